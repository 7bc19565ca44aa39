// Package cache stores fetched remote resources (type declarations, library
// manifests) keyed by a deterministic hash of their resolved URL. A valid
// entry suppresses network access entirely. Stores are pluggable: MemoryStore
// for tests and one-shot runs, SQLite and bbolt stores (constructed through
// the top-level mirgen package) for durable caches.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DomainDeclaration separates declaration cache keys from other uses of the
// same hash function. The version suffix allows migrating the key scheme.
const DomainDeclaration = "mirgen/decl/v1"

// DomainManifest namespaces library manifest entries.
const DomainManifest = "mirgen/manifest/v1"

// Entry is one cached payload.
type Entry struct {
	Content  string    `json:"content"`
	CachedAt time.Time `json:"cachedAt"`
}

// Valid reports whether the entry can be served. Empty content is a valid
// payload; only entries without a cache timestamp are rejected. A zero ttl
// never expires.
func (e Entry) Valid(now time.Time, ttl time.Duration) bool {
	if e.CachedAt.IsZero() {
		return false
	}
	if ttl <= 0 {
		return true
	}
	return now.Sub(e.CachedAt) <= ttl
}

// Store is a key-value store for cache entries.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// Key derives the cache key for a resolved resource URL:
// hex(SHA256(domain + 0x00 + url)).
func Key(resolvedURL string) string {
	return KeyWithDomain(DomainDeclaration, resolvedURL)
}

// KeyWithDomain derives a key under a custom domain.
func KeyWithDomain(domain, resolvedURL string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(strings.TrimSpace(resolvedURL)))
	return hex.EncodeToString(h.Sum(nil))
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok, nil
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, key string, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

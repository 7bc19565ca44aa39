// Package sqlitecache provides a SQLite-backed cache.Store.
//
// The database runs in WAL mode with a single connection, matching SQLite's
// single-writer model. Timestamps are stored as Unix nanoseconds (UTC).
package sqlitecache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-mirgen/pkg/cache"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store implements cache.Store on top of SQLite.
type Store struct {
	db *sql.DB
}

var _ cache.Store = (*Store)(nil)

// Open creates or opens a cache database at path. It is safe to call on an
// existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite cache: connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var (
		content  string
		cachedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT content, cached_at FROM cache_entries WHERE cache_key = ?`, key,
	).Scan(&content, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("sqlite cache: get %s: %w", key, err)
	}
	return cache.Entry{Content: content, CachedAt: time.Unix(0, cachedAt).UTC()}, true, nil
}

// Put implements cache.Store.
func (s *Store) Put(ctx context.Context, key string, entry cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, content, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET content = excluded.content, cached_at = excluded.cached_at
	`, key, entry.Content, entry.CachedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite cache: put %s: %w", key, err)
	}
	return nil
}

// Delete implements cache.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("sqlite cache: delete %s: %w", key, err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("sqlite cache: execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite cache: apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("sqlite cache: set user_version: %w", err)
	}
	return nil
}

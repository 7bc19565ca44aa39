// Package mirgen wires the document model, component registry, library
// runtime and code generator into ready-to-use constructors. Concrete
// implementations under internal/ stay hidden behind package interfaces.
package mirgen

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-mirgen/internal/cache/boltcache"
	"github.com/goliatone/go-mirgen/internal/cache/sqlitecache"
	internalLoader "github.com/goliatone/go-mirgen/internal/loader"
	"github.com/goliatone/go-mirgen/pkg/cache"
	"github.com/goliatone/go-mirgen/pkg/codegen"
	"github.com/goliatone/go-mirgen/pkg/enrich"
	"github.com/goliatone/go-mirgen/pkg/libruntime"
	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/preview"
	"github.com/goliatone/go-mirgen/pkg/registry"
	"github.com/goliatone/go-mirgen/pkg/renderers/html"
	"github.com/goliatone/go-mirgen/pkg/renderers/react"
)

// Cache drivers accepted by OpenCache.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheBolt   = "bolt"
)

// NewLoader constructs a document loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...mir.LoaderOption) mir.Loader {
	return internalLoader.New(mir.NewLoaderOptions(options...))
}

// ClosableStore is a cache store owning an underlying resource.
type ClosableStore interface {
	cache.Store
	Close() error
}

type memoryStore struct {
	*cache.MemoryStore
}

func (memoryStore) Close() error { return nil }

// OpenSQLiteCache opens a durable SQLite-backed cache at path.
func OpenSQLiteCache(path string) (ClosableStore, error) {
	store, err := sqlitecache.Open(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenBoltCache opens a durable bbolt-backed cache at path.
func OpenBoltCache(path string) (ClosableStore, error) {
	store, err := boltcache.Open(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenCache opens the store for driver. The memory driver ignores path.
func OpenCache(driver, path string) (ClosableStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", CacheMemory:
		return memoryStore{cache.NewMemoryStore()}, nil
	case CacheSQLite, "sqlite3":
		return OpenSQLiteCache(path)
	case CacheBolt, "bbolt":
		return OpenBoltCache(path)
	default:
		return nil, fmt.Errorf("mirgen: unknown cache driver %q", driver)
	}
}

// NewRegistry constructs a component registry seeded with the built-in
// catalogue.
func NewRegistry(options ...registry.Option) *registry.Registry {
	return registry.New(options...)
}

// NewRuntime constructs a library runtime writing into reg.
func NewRuntime(reg *registry.Registry, options ...libruntime.Option) *libruntime.Runtime {
	return libruntime.New(reg, options...)
}

// NewEnricher constructs a prop-option enricher.
func NewEnricher(options ...enrich.Option) *enrich.Enricher {
	return enrich.New(options...)
}

// NewPreview constructs a preview renderer. A non-nil runtime marks nodes of
// loading libraries as pending.
func NewPreview(reg *registry.Registry, rt *libruntime.Runtime, options ...preview.Option) *preview.Renderer {
	if rt != nil {
		options = append([]preview.Option{preview.WithPendingSource(rt)}, options...)
	}
	return preview.New(reg, options...)
}

// DefaultBackends returns the built-in react and html backends.
func DefaultBackends() ([]codegen.Backend, error) {
	reactBackend, err := react.New()
	if err != nil {
		return nil, err
	}
	htmlBackend, err := html.New()
	if err != nil {
		return nil, err
	}
	return []codegen.Backend{reactBackend, htmlBackend}, nil
}

// NewGenerator constructs a generator with the built-in backends registered
// ahead of any supplied through options.
func NewGenerator(reg *registry.Registry, options ...codegen.Option) (*codegen.Generator, error) {
	backends, err := DefaultBackends()
	if err != nil {
		return nil, err
	}
	return codegen.New(reg, append([]codegen.Option{codegen.WithBackends(backends...)}, options...)...)
}

// EmbeddedTemplates exposes the built-in backend templates so callers can
// reuse or extend them. Unknown targets return nil.
func EmbeddedTemplates(target string) fs.FS {
	switch strings.ToLower(target) {
	case react.Name:
		return react.TemplatesFS()
	case html.Name:
		return html.TemplatesFS()
	}
	return nil
}

// Package enrich augments canonical library components with prop options
// scraped from published type declarations. Enrichment is cosmetic: every
// failure degrades to returning the components unchanged.
package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-mirgen/internal/fetch"
	"github.com/goliatone/go-mirgen/pkg/cache"
	"github.com/goliatone/go-mirgen/pkg/libruntime"
)

// Fetcher retrieves a declaration source by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (fn FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return fn(ctx, url)
}

// HTTPFetcher fetches declarations with a plain HTTP GET.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	return fetch.Get(ctx, client, url, f.Timeout)
}

// Option customises an Enricher.
type Option func(*Enricher)

// WithCache sets the declaration cache. Defaults to an in-memory store.
func WithCache(store cache.Store) Option {
	return func(e *Enricher) {
		if store != nil {
			e.store = store
		}
	}
}

// WithTTL expires cache entries older than ttl. Zero never expires.
func WithTTL(ttl time.Duration) Option {
	return func(e *Enricher) {
		e.ttl = ttl
	}
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(e *Enricher) {
		if fetcher != nil {
			e.fetcher = fetcher
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNow overrides the clock used for cache timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// Enricher implements libruntime.PropEnricher.
type Enricher struct {
	store   cache.Store
	ttl     time.Duration
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

var _ libruntime.PropEnricher = (*Enricher)(nil)

// New constructs an Enricher.
func New(options ...Option) *Enricher {
	e := &Enricher{
		store:   cache.NewMemoryStore(),
		fetcher: HTTPFetcher{Timeout: 10 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EnrichPropOptions returns copies of components with PropOptions extended by
// the literal unions found in each component's declaration. Existing choices
// are never removed. A declaration shared by several components is fetched
// once per call.
func (e *Enricher) EnrichPropOptions(ctx context.Context, desc libruntime.Descriptor, components []libruntime.CanonicalComponent) []libruntime.CanonicalComponent {
	out := make([]libruntime.CanonicalComponent, len(components))
	sources := make(map[string]string)

	for idx, comp := range components {
		out[idx] = comp.Clone()
		url := desc.DeclarationURL(comp.ComponentName)
		if url == "" {
			continue
		}

		source, seen := sources[url]
		if !seen {
			var ok bool
			source, ok = e.declaration(ctx, desc.LibraryID, url)
			if !ok {
				source = ""
			}
			sources[url] = source
		}
		if source == "" {
			continue
		}

		discovered := ParseLiteralUnions(source, comp.ComponentName)
		if len(discovered) == 0 {
			continue
		}
		out[idx].PropOptions = MergeOptions(out[idx].PropOptions, discovered)
	}
	return out
}

func (e *Enricher) declaration(ctx context.Context, libraryID, url string) (string, bool) {
	key := cache.Key(url)
	entry, ok, err := e.store.Get(ctx, key)
	switch {
	case err != nil:
		e.logger.Debug("declaration cache read failed", "library", libraryID, "url", url, "error", err)
	case ok && entry.Valid(e.now(), e.ttl):
		return entry.Content, true
	}

	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.logger.Debug("declaration fetch failed", "library", libraryID, "url", url, "error", err)
		return "", false
	}
	content := string(body)
	if err := e.store.Put(ctx, key, cache.Entry{Content: content, CachedAt: e.now()}); err != nil {
		e.logger.Debug("declaration cache write failed", "library", libraryID, "url", url, "error", err)
	}
	return content, true
}

package libruntime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-mirgen/internal/fetch"
	"github.com/goliatone/go-mirgen/pkg/cache"
	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// ErrModuleNotFound is returned by StaticFetcher for unknown libraries.
var ErrModuleNotFound = errors.New("libruntime: module not found")

// StaticFetcher serves in-process modules keyed by library id.
type StaticFetcher map[string]Module

// Fetch implements Fetcher.
func (s StaticFetcher) Fetch(ctx context.Context, desc Descriptor) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	module, ok := s[desc.LibraryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, desc.LibraryID)
	}
	return module, nil
}

// Manifest is the wire form of a remotely published library module. Export
// kinds follow registry.ElementType; "data" (or any unknown kind) marks
// plain values that are not components.
type Manifest struct {
	Exports map[string]ManifestExport `json:"exports"`
}

// ManifestExport is one named export of a manifest.
type ManifestExport struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
}

// Module converts the manifest into a namespace of element markers and
// plain values.
func (m Manifest) Module() Module {
	module := make(Module, len(m.Exports))
	for name, export := range m.Exports {
		switch kind := registry.ElementType(export.Kind); kind {
		case registry.ElementComponent, registry.ElementForwardRef, registry.ElementMemo, registry.ElementLazy:
			module[name] = registry.Element{Kind: kind, Name: name}
		default:
			module[name] = export.Value
		}
	}
	return module
}

// HTTPFetcherOption customises an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithCDNBase sets the base URL bare entry candidates resolve against.
func WithCDNBase(base string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.cdnBase = base
	}
}

// WithManifestCache caches manifests in store.
func WithManifestCache(store cache.Store, ttl time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.cache = store
		f.ttl = ttl
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(timeout time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = timeout
	}
}

// HTTPFetcher loads JSON manifests over HTTP, trying the descriptor's entry
// candidates in order.
type HTTPFetcher struct {
	client  *http.Client
	cdnBase string
	timeout time.Duration
	cache   cache.Store
	ttl     time.Duration
	now     func() time.Time
}

// NewHTTPFetcher constructs an HTTPFetcher.
func NewHTTPFetcher(options ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  http.DefaultClient,
		cdnBase: imports.DefaultCDNBase,
		timeout: 15 * time.Second,
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Candidates returns the URLs Fetch tries for desc, in order.
func (f *HTTPFetcher) Candidates(desc Descriptor) []string {
	specs := desc.EntryCandidates
	if len(specs) == 0 {
		specs = []string{desc.PackageName}
	}
	urls := make([]string, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		res := imports.Resolve(spec, imports.Options{
			Strategy: imports.StrategyCDN,
			CDNBase:  f.cdnBase,
			Version:  desc.Version,
		})
		urls = append(urls, res.ImportSource)
	}
	return urls
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, desc Descriptor) (Module, error) {
	candidates := f.Candidates(desc)
	if len(candidates) == 0 {
		return nil, errors.New("libruntime: no entry candidates")
	}

	var errs []error
	for _, url := range candidates {
		manifest, err := f.fetchManifest(ctx, url)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return manifest.Module(), nil
	}
	return nil, errors.Join(errs...)
}

func (f *HTTPFetcher) fetchManifest(ctx context.Context, url string) (Manifest, error) {
	key := cache.KeyWithDomain(cache.DomainManifest, url)
	if f.cache != nil {
		if entry, ok, err := f.cache.Get(ctx, key); err == nil && ok && entry.Valid(f.now(), f.ttl) {
			if manifest, err := decodeManifest(url, []byte(entry.Content)); err == nil {
				return manifest, nil
			}
		}
	}

	body, err := fetch.Get(ctx, f.client, url, f.timeout)
	if err != nil {
		return Manifest{}, err
	}
	manifest, err := decodeManifest(url, body)
	if err != nil {
		return Manifest{}, err
	}
	if f.cache != nil {
		_ = f.cache.Put(ctx, key, cache.Entry{Content: string(body), CachedAt: f.now()})
	}
	return manifest, nil
}

func decodeManifest(url string, body []byte) (Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("libruntime: decode manifest %s: %w", url, err)
	}
	if len(manifest.Exports) == 0 {
		return Manifest{}, fmt.Errorf("libruntime: manifest %s has no exports", url)
	}
	return manifest, nil
}

// ExportNames returns the sorted export names of a module.
func ExportNames(module Module) []string {
	names := make([]string, 0, len(module))
	for name := range module {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-mirgen"
	"github.com/goliatone/go-mirgen/pkg/codegen"
	"github.com/goliatone/go-mirgen/pkg/enrich"
	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/libruntime"
	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// environment is the wired registry, runtime and generator for one command.
type environment struct {
	reg     *registry.Registry
	runtime *libruntime.Runtime
	gen     *codegen.Generator
	store   mirgen.ClosableStore
	imports imports.Options
}

func (o *RootOptions) importOptions() imports.Options {
	return imports.Options{
		Strategy: imports.Strategy(o.Config.ImportStrategy),
		CDNBase:  o.Config.CDNBase,
	}
}

func newEnvironment(opts *RootOptions) (*environment, error) {
	cfg := opts.Config
	logger := opts.logger()

	store, err := mirgen.OpenCache(cfg.Cache.Driver, cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	var profiles []libruntime.Profile
	if cfg.ProfileDir != "" {
		profiles, err = libruntime.LoadProfiles(os.DirFS(cfg.ProfileDir), ".")
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = libruntime.NewHTTPFetcher(
			libruntime.WithCDNBase(cfg.CDNBase),
			libruntime.WithManifestCache(store, cfg.Cache.TTL),
		)
	}

	importOpts := opts.importOptions()
	reg := mirgen.NewRegistry()
	rt := mirgen.NewRuntime(reg,
		libruntime.WithProfiles(profiles...),
		libruntime.WithFetcher(fetcher),
		libruntime.WithEnricher(mirgen.NewEnricher(
			enrich.WithCache(store),
			enrich.WithTTL(cfg.Cache.TTL),
			enrich.WithLogger(logger),
		)),
		libruntime.WithImportOptions(importOpts),
		libruntime.WithLogger(logger),
	)

	gen, err := mirgen.NewGenerator(reg,
		codegen.WithImportOptions(importOpts),
		codegen.WithModuleName(cfg.ModuleName),
		codegen.WithLogger(logger),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &environment{reg: reg, runtime: rt, gen: gen, store: store, imports: importOpts}, nil
}

// Close waits for background enrichment and releases the cache.
func (e *environment) Close() error {
	e.runtime.Wait()
	return e.store.Close()
}

func loadDocument(ctx context.Context, location string) (mir.Document, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return mir.Document{}, fmt.Errorf("document location is required")
	}
	var src mir.Source
	loaderOpts := []mir.LoaderOption{}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		src = mir.SourceFromURL(location)
		loaderOpts = append(loaderOpts, mir.WithHTTPFallback(0))
	} else {
		src = mir.SourceFromFile(location)
	}
	return mir.LoadDocument(ctx, mirgen.NewLoader(loaderOpts...), src)
}

// referencedLibraries returns the library prefixes of external node types,
// sorted.
func referencedLibraries(doc mir.Document) []string {
	seen := make(map[string]struct{})
	mir.Walk(doc.UI.Root, func(node mir.Node, _ string) bool {
		if idx := strings.LastIndex(node.Type, ":"); idx > 0 {
			seen[node.Type[:idx]] = struct{}{}
		}
		return true
	})
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func formatDiagnostics(diags map[string][]libruntime.Diagnostic) string {
	ids := make([]string, 0, len(diags))
	for id := range diags {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		for _, d := range diags[id] {
			fmt.Fprintf(&b, "%s: %s [%s/%s] %s\n", id, d.Level, d.Stage, d.Code, d.Message)
		}
	}
	return b.String()
}

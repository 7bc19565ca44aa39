package mirgen

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mirgen/pkg/cache"
	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/testsupport"
)

func TestNewGenerator_RegistersBuiltinBackends(t *testing.T) {
	gen, err := NewGenerator(NewRegistry())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if diff := cmp.Diff([]string{"html", "react"}, gen.Targets()); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	doc := mir.Normalize([]byte(`{"ui":{"root":{"id":"root","children":[{"id":"t","type":"text","text":"Hello"}]}}}`))
	out, err := gen.Generate(testsupport.Context(), doc, "react")
	if err != nil {
		t.Fatalf("generate react: %v", err)
	}
	if !strings.Contains(string(out), `{"Hello"}`) {
		t.Fatalf("react output missing text:\n%s", out)
	}

	out, err = gen.Generate(context.Background(), doc, "html")
	if err != nil {
		t.Fatalf("generate html: %v", err)
	}
	if !strings.Contains(string(out), `<span data-mir-id="t">Hello</span>`) {
		t.Fatalf("html output missing text:\n%s", out)
	}
}

func TestOpenCache_Drivers(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{CacheMemory, CacheSQLite, CacheBolt} {
		store, err := OpenCache(driver, filepath.Join(dir, driver+".db"))
		if err != nil {
			t.Fatalf("%s: open: %v", driver, err)
		}
		ctx := context.Background()
		entry := cache.Entry{Content: "x", CachedAt: time.Unix(100, 0).UTC()}
		if err := store.Put(ctx, "k", entry); err != nil {
			t.Fatalf("%s: put: %v", driver, err)
		}
		got, ok, err := store.Get(ctx, "k")
		if err != nil || !ok || got.Content != "x" || !got.CachedAt.Equal(entry.CachedAt) {
			t.Fatalf("%s: get = %+v %v %v", driver, got, ok, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("%s: close: %v", driver, err)
		}
	}

	if _, err := OpenCache("redis", ""); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if EmbeddedTemplates("react") == nil || EmbeddedTemplates("HTML") == nil {
		t.Fatalf("expected embedded templates for built-in targets")
	}
	if EmbeddedTemplates("vue") != nil {
		t.Fatalf("unknown target should have no templates")
	}
}

package mir

import "testing"

func page(id, kind, path string) map[string]any {
	return map[string]any{
		"id":   id,
		"type": kind,
		"path": path,
		"content": map[string]any{
			"ui": map[string]any{"root": map[string]any{"id": id, "type": "container"}},
		},
	}
}

func TestResolveFromContainer_PrefersRootPathPageRegardlessOfOrder(t *testing.T) {
	orders := [][]any{
		{page("about", "page", "/about"), page("home", "page", "/"), page("card", "component", "")},
		{page("home", "page", "/"), page("card", "component", ""), page("about", "page", "/about")},
		{page("card", "component", ""), page("about", "page", "/about"), page("home", "page", "/")},
	}
	for idx, docs := range orders {
		got := ResolveFromContainer(map[string]any{"documents": docs})
		if got.UI.Root.ID != "home" {
			t.Fatalf("order %d: expected home page, got %q", idx, got.UI.Root.ID)
		}
	}
}

func TestResolveFromContainer_EmptyPathPageCountsAsRoot(t *testing.T) {
	got := ResolveFromContainer(map[string]any{"documents": []any{
		page("about", "page", "/about"),
		page("landing", "page", ""),
	}})
	if got.UI.Root.ID != "landing" {
		t.Fatalf("expected empty-path page, got %q", got.UI.Root.ID)
	}
}

func TestResolveFromContainer_FallsBackToFirstPageThenFirstDocument(t *testing.T) {
	got := ResolveFromContainer(map[string]any{"documents": []any{
		page("card", "component", "/card"),
		page("about", "page", "/about"),
		page("contact", "page", "/contact"),
	}})
	if got.UI.Root.ID != "about" {
		t.Fatalf("expected first page, got %q", got.UI.Root.ID)
	}

	got = ResolveFromContainer(map[string]any{"documents": []any{
		page("card", "component", "/card"),
		page("hero", "component", "/hero"),
	}})
	if got.UI.Root.ID != "card" {
		t.Fatalf("expected first document, got %q", got.UI.Root.ID)
	}
}

func TestResolveFromContainer_DirectShapeWins(t *testing.T) {
	got := ResolveFromContainer(map[string]any{
		"ui":        map[string]any{"root": map[string]any{"id": "direct", "type": "container"}},
		"documents": []any{page("home", "page", "/")},
	})
	if got.UI.Root.ID != "direct" {
		t.Fatalf("expected direct document, got %q", got.UI.Root.ID)
	}
}

func TestResolveFromContainer_MapBundleAndStringContent(t *testing.T) {
	got := ResolveFromContainer(map[string]any{"documents": map[string]any{
		"b": map[string]any{"type": "component", "content": `{"ui":{"root":{"id":"second"}}}`},
		"a": map[string]any{"type": "component", "content": `{"ui":{"root":{"id":"first"}}}`},
	}})
	if got.UI.Root.ID != "first" {
		t.Fatalf("expected key-ordered first document, got %q", got.UI.Root.ID)
	}
}

func TestResolveFromContainer_NeverFails(t *testing.T) {
	inputs := []any{
		nil,
		"garbage",
		map[string]any{"documents": "nope"},
		map[string]any{"documents": []any{}},
		map[string]any{"documents": []any{page("home", "page", "/"), 7}},
		map[string]any{"documents": []any{map[string]any{"type": "page", "path": "/", "content": 3}}},
	}
	for idx, input := range inputs {
		got := ResolveFromContainer(input)
		if got.UI.Root.Type == "" || got.Version != CurrentVersion {
			t.Fatalf("input %d: malformed result %+v", idx, got)
		}
	}
}

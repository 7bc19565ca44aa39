package react

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
)

func lit(code string) ir.Expr {
	return ir.Expr{Kind: ir.ExprLiteral, Code: code}
}

func counterModule() *ir.Module {
	count := ir.Expr{Kind: ir.ExprState, Code: "state.count", Path: "count"}
	return &ir.Module{
		Name:    "counter card",
		Version: "1.0",
		Root: ir.Node{
			ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "div", Intrinsic: true,
			Props: []ir.Prop{{Name: "class", Value: lit(`"card"`)}},
			Children: []ir.Node{
				{ID: "label", Type: "text", Kind: ir.KindComponent, Tag: "span", Intrinsic: true, Text: &count},
				{
					ID: "inc", Type: "acme:Button", Kind: ir.KindComponent, Tag: "Button", Import: "@acme/ui",
					StyleProp: "style",
					Style:     []ir.Prop{{Name: "margin-top", Value: lit(`"4px"`)}},
					Events:    []ir.Event{{Name: "click", Handler: "increment"}},
					Text:      &ir.Expr{Kind: ir.ExprLiteral, Code: `"Add"`},
				},
			},
		},
		State:        []ir.StateDecl{{Name: "count", Kind: "local", Initial: lit("0")}},
		Imports:      []ir.Import{{Source: "@acme/ui", Names: []string{"Button"}}},
		Dependencies: []ir.Dependency{{Package: "@acme/ui", Version: "2.3.0"}},
	}
}

func emit(t *testing.T, module *ir.Module) string {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Fatalf("react.New: %v", err)
	}
	out, err := backend.Emit(context.Background(), module)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return string(out)
}

func TestEmit_CounterGolden(t *testing.T) {
	out := emit(t, counterModule())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "counter_card", []byte(out))
}

func TestEmit_MissingNodesRenderPlaceholders(t *testing.T) {
	out := emit(t, &ir.Module{
		Name: "view",
		Root: ir.Node{ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "div", Intrinsic: true, Children: []ir.Node{
			{ID: "chart", Type: "viz:Chart", Kind: ir.KindMissing},
		}},
	})

	if !strings.Contains(out, `<div data-mir-missing={"viz:Chart"} data-mir-id={"chart"} />`) {
		t.Fatalf("expected missing placeholder, got:\n%s", out)
	}
	if strings.Contains(out, "useState") {
		t.Fatalf("stateless module must not import useState:\n%s", out)
	}
}

func TestEmit_EventsAndBindings(t *testing.T) {
	payload := lit(`"saved"`)
	out := emit(t, &ir.Module{
		Name: "form",
		Root: ir.Node{ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "form", Intrinsic: true, Children: []ir.Node{
			{
				ID: "name", Type: "input", Kind: ir.KindComponent, Tag: "input", Intrinsic: true,
				Binding: &ir.Binding{Path: "name", Read: ir.Expr{Kind: ir.ExprState, Code: "state.name", Path: "name"}},
				Events:  []ir.Event{{Name: "input", Handler: "search", Debounce: 250}},
			},
			{
				ID: "agree", Type: "input", Kind: ir.KindComponent, Tag: "input", Intrinsic: true,
				Binding: &ir.Binding{Path: "agree", ValueType: "boolean", Read: ir.Expr{Kind: ir.ExprState, Code: "state.agree", Path: "agree"}},
			},
			{
				ID: "save", Type: "button", Kind: ir.KindComponent, Tag: "button", Intrinsic: true,
				Events: []ir.Event{{Name: "click", Handler: "form.save", Payload: &payload, PreventDefault: true}},
			},
		}},
	})

	for _, want := range []string{
		`import { useMemo, useRef, useState } from "react";`,
		"const debounce = (fn, ms) => {",
		`useState({})`,
		`value={state.name} onChange={(event) => setState(["name"], event.target.value)}`,
		`checked={state.agree} onChange={(event) => setState(["agree"], event.target.checked)}`,
		"  const actionsRef = useRef(actions);\n  actionsRef.current = actions;\n",
		`const debounced0 = useMemo(() => debounce((event) => actionsRef.current.search?.(event), 250), []);`,
		`onInput={debounced0}`,
		`onClick={(event) => { event.preventDefault(); actions.form.save?.("saved"); }}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmit_DebouncedHandlersAreCreatedOnce(t *testing.T) {
	payload := lit(`"draft"`)
	out := emit(t, &ir.Module{
		Name: "editor",
		Root: ir.Node{ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "div", Intrinsic: true, Children: []ir.Node{
			{
				ID: "body", Type: "input", Kind: ir.KindComponent, Tag: "textarea", Intrinsic: true,
				Events: []ir.Event{{Name: "input", Handler: "autosave", Debounce: 300}},
			},
			{
				ID: "publish", Type: "button", Kind: ir.KindComponent, Tag: "button", Intrinsic: true,
				Events: []ir.Event{{Name: "click", Handler: "publish", Payload: &payload, Debounce: 500, PreventDefault: true}},
			},
		}},
	})

	if got := strings.Count(out, "useMemo(() => debounce("); got != 2 {
		t.Fatalf("expected one memoised debounce per handler, got %d:\n%s", got, out)
	}
	if strings.Contains(out, ")()") {
		t.Fatalf("debounced wrappers must not be built per event:\n%s", out)
	}
	for _, want := range []string{
		`const debounced0 = useMemo(() => debounce((event) => actionsRef.current.autosave?.(event), 300), []);`,
		`const debounced1 = useMemo(() => debounce((event) => actionsRef.current.publish?.("draft"), 500), []);`,
		`<textarea onInput={debounced0} />`,
		`<button onClick={(event) => { event.preventDefault(); debounced1(event); }} />`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "useState") {
		t.Fatalf("stateless module must not declare state:\n%s", out)
	}
}

func TestEmit_NestedBindingWritesAlongPath(t *testing.T) {
	out := emit(t, &ir.Module{
		Name: "profile",
		Root: ir.Node{ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "div", Intrinsic: true, Children: []ir.Node{
			{
				ID: "name", Type: "input", Kind: ir.KindComponent, Tag: "input", Intrinsic: true,
				Binding: &ir.Binding{Path: "user.name", Read: ir.Expr{Kind: ir.ExprState, Code: "state.user.name", Path: "user.name"}},
			},
			{
				ID: "tag", Type: "input", Kind: ir.KindComponent, Tag: "input", Intrinsic: true,
				Binding: &ir.Binding{Path: "user.tags[0]", Read: ir.Expr{Kind: ir.ExprState, Code: "state.user.tags[0]", Path: "user.tags[0]"}},
			},
		}},
		State: []ir.StateDecl{{Name: "user", Kind: "local", Initial: lit(`{"name":"Ada","tags":["x"]}`)}},
	})

	for _, want := range []string{
		`value={state.user.name} onChange={(event) => setState(["user", "name"], event.target.value)}`,
		`value={state.user.tags[0]} onChange={(event) => setState(["user", "tags", 0], event.target.value)}`,
		"const assignPath = (target, [key, ...rest], value) => {",
		`const setState = (path, value) => replaceState((prev) => assignPath(prev, path, value));`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmit_UndeclaredStateReadDeclaresAccessor(t *testing.T) {
	count := ir.Expr{Kind: ir.ExprState, Code: "state.count", Path: "count"}
	out := emit(t, &ir.Module{
		Name:      "badge",
		UsesState: true,
		Root:      ir.Node{ID: "root", Type: "text", Kind: ir.KindComponent, Tag: "span", Intrinsic: true, Text: &count},
	})

	for _, want := range []string{
		`import { useState } from "react";`,
		`const [state, replaceState] = useState({});`,
		"{state.count}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmit_AliasedImportsAndComponentName(t *testing.T) {
	out := emit(t, &ir.Module{
		Name: "button",
		Root: ir.Node{ID: "root", Type: "container", Kind: ir.KindContainer, Tag: "div", Intrinsic: true, Children: []ir.Node{
			{ID: "a", Type: "a:Button", Kind: ir.KindComponent, Tag: "Button", Import: "lib-a"},
			{ID: "b", Type: "b:Button", Kind: ir.KindComponent, Tag: "Button2", Import: "lib-b"},
		}},
		Imports: []ir.Import{
			{Source: "lib-a", Names: []string{"Button"}},
			{Source: "lib-b", Names: []string{"Button"}, Aliases: map[string]string{"Button": "Button2"}},
		},
	})

	for _, want := range []string{
		`import { Button } from "lib-a";`,
		`import { Button as Button2 } from "lib-b";`,
		`<Button2 />`,
		`export default function ButtonView(`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmit_InlineResourcesBecomeDataURIs(t *testing.T) {
	out := emit(t, &ir.Module{
		Name: "icons",
		Root: ir.Node{ID: "logo", Type: "image", Kind: ir.KindComponent, Tag: "img", Intrinsic: true, Resources: []ir.Resource{
			{Name: "src", Kind: "inline", MimeType: "image/svg+xml", Content: "<svg/>"},
			{Name: "poster", Kind: "url", URL: "https://cdn.test/a.png"},
		}},
	})

	if !strings.Contains(out, `src={"data:image/svg+xml;base64,PHN2Zy8+"}`) {
		t.Fatalf("inline resource not encoded:\n%s", out)
	}
	if !strings.Contains(out, `poster={"https://cdn.test/a.png"}`) {
		t.Fatalf("url resource not emitted:\n%s", out)
	}
}

func TestEmit_RejectsInvalidPropNames(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Fatalf("react.New: %v", err)
	}
	_, err = backend.Emit(context.Background(), &ir.Module{
		Root: ir.Node{ID: "x", Type: "text", Kind: ir.KindComponent, Tag: "span", Intrinsic: true,
			Props: []ir.Prop{{Name: "bad name", Value: lit("1")}}},
	})
	if err == nil || !strings.Contains(err.Error(), `"bad name"`) {
		t.Fatalf("expected invalid prop error, got %v", err)
	}
	if _, err := backend.Emit(context.Background(), nil); err == nil {
		t.Fatalf("expected nil module error")
	}
}

func TestNames(t *testing.T) {
	cases := map[string][2]string{
		"component": {ComponentName("landing page"), "LandingPage"},
		"empty":     {ComponentName("  "), "MirView"},
		"digit":     {ComponentName("404 page"), "View404Page"},
		"event":     {EventProp("mouse-enter"), "onMouseEnter"},
		"onEvent":   {EventProp("onClick"), "onClick"},
		"style":     {StyleKey("background-color"), "backgroundColor"},
		"cssVar":    {StyleKey("--brand-color"), "--brand-color"},
	}
	for name, tc := range cases {
		if tc[0] != tc[1] {
			t.Errorf("%s: got %q, want %q", name, tc[0], tc[1])
		}
	}
}

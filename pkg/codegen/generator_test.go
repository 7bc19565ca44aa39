package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

func newGenerator(t *testing.T, reg *registry.Registry, opts ...Option) *Generator {
	t.Helper()
	if reg == nil {
		reg = registry.New()
	}
	gen, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return gen
}

func mustLower(t *testing.T, gen *Generator, raw string) *ir.Module {
	t.Helper()
	module, err := gen.Lower(mir.Normalize([]byte(raw)))
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return module
}

func TestLower_LiteralTextIsQuoted(t *testing.T) {
	module := mustLower(t, newGenerator(t, nil), `{"ui":{"root":{"id":"root","type":"container","children":[{"id":"t","type":"text","text":"Hello"}]}}}`)

	if module.Root.Kind != ir.KindContainer || len(module.Root.Children) != 1 {
		t.Fatalf("unexpected root %+v", module.Root)
	}
	leaf := module.Root.Children[0]
	if leaf.Text == nil {
		t.Fatalf("leaf lost its text")
	}
	if leaf.Text.Kind != ir.ExprLiteral || leaf.Text.Code != `"Hello"` {
		t.Fatalf("literal text must be a quoted string, got %+v", *leaf.Text)
	}
}

func TestLower_ModuleGolden(t *testing.T) {
	module := mustLower(t, newGenerator(t, nil), `{
		"ui": {"root": {"id": "root", "type": "container", "children": [
			{"id": "greeting", "type": "text", "text": "Hello"},
			{"id": "cta", "type": "button", "text": {"$state": "label"}, "events": {"click": {"target": "increment"}}},
			{"id": "title", "type": "heading", "text": {"$param": "title"}}
		]}},
		"logic": {"state": {"label": {"initial": "Go"}}}
	}`)

	data, err := json.MarshalIndent(module, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "lower_module", append(data, '\n'))
}

func TestLower_AdapterMapping(t *testing.T) {
	module := mustLower(t, newGenerator(t, nil), `{"ui":{"root":{"id":"root","children":[
		{"id":"img","type":"image","text":"A cat","props":{"source":"cat.png","width":120}},
		{"id":"go","type":"link","props":{"to":{"$data":"item.url"}},"children":[{"id":"lbl","type":"text","text":"Open"}]}
	]}}}`)

	img := module.Root.Children[0]
	if img.Text != nil {
		t.Fatalf("text should be routed into the text prop")
	}
	var names []string
	for _, prop := range img.Props {
		names = append(names, prop.Name+"="+prop.Value.Code)
	}
	if diff := cmp.Diff([]string{`alt="A cat"`, `src="cat.png"`, `width=120`}, names); diff != "" {
		t.Fatalf("image props mismatch (-want +got):\n%s", diff)
	}

	link := module.Root.Children[1]
	if link.Kind != ir.KindContainer || link.Props[0].Name != "href" || link.Props[0].Value.Code != "data.item.url" {
		t.Fatalf("unexpected link %+v", link)
	}
	if !module.UsesData {
		t.Fatalf("data reference should mark the module")
	}
}

func TestLower_Failures(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		nodeID string
		err    error
	}{
		{
			name:   "children under leaf adapter",
			raw:    `{"ui":{"root":{"id":"root","children":[{"id":"btn","type":"button","children":[{"id":"x","type":"text"}]}]}}}`,
			nodeID: "btn",
			err:    ErrChildrenNotAccepted,
		},
		{
			name:   "invalid state path",
			raw:    `{"ui":{"root":{"id":"root","children":[{"id":"t","type":"text","text":{"$state":"a; alert(1)"}}]}}}`,
			nodeID: "t",
			err:    ErrInvalidBinding,
		},
		{
			name:   "invalid event target",
			raw:    `{"ui":{"root":{"id":"root","events":{"click":"do it"}}}}`,
			nodeID: "root",
			err:    ErrInvalidBinding,
		},
		{
			name:   "duplicate id",
			raw:    `{"ui":{"root":{"id":"root","children":[{"id":"a","type":"text"},{"id":"a","type":"text"}]}}}`,
			nodeID: "a",
			err:    ErrDuplicateID,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := newGenerator(t, nil, WithBackends(stubBackend{name: "stub"}))
			doc := mir.Normalize([]byte(tc.raw))

			_, err := gen.Lower(doc)
			var lowering *LoweringError
			if !errors.As(err, &lowering) {
				t.Fatalf("expected LoweringError, got %v", err)
			}
			if lowering.NodeID != tc.nodeID || !errors.Is(err, tc.err) {
				t.Fatalf("unexpected error %v (node %q)", err, lowering.NodeID)
			}

			out, err := gen.Generate(context.Background(), doc, "stub")
			if err == nil || out != nil {
				t.Fatalf("generation must fail without output, got %q", out)
			}
		})
	}
}

func TestLower_StrictState(t *testing.T) {
	raw := `{"ui":{"root":{"id":"root","text":{"$state":"ghost.value"}}},"logic":{"state":{"name":{"initial":""}}}}`
	if _, err := newGenerator(t, nil).Lower(mir.Normalize([]byte(raw))); err != nil {
		t.Fatalf("lenient lowering failed: %v", err)
	}
	_, err := newGenerator(t, nil, WithStrictState()).Lower(mir.Normalize([]byte(raw)))
	if !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
}

func TestLower_MissingTypesBecomePlaceholders(t *testing.T) {
	module := mustLower(t, newGenerator(t, nil), `{"ui":{"root":{"id":"root","children":[
		{"id":"m","type":"acme:Chart","children":[{"id":"inner","type":"text","text":"x"}]},
		{"id":"n","type":"acme:Chart"},
		{"id":"o","type":"acme:Map"}
	]}}}`)

	chart := module.Root.Children[0]
	if chart.Kind != ir.KindMissing || chart.Tag != "" || len(chart.Children) != 1 {
		t.Fatalf("unexpected placeholder %+v", chart)
	}
	if diff := cmp.Diff([]string{"acme:Chart", "acme:Map"}, module.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestLower_ImportsAndDependencies(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterEntries([]registry.Entry{
		{Type: "acme:Button", Implementation: registry.Implementation{Name: "Button", Import: "@acme/ui"}},
		{Type: "acme:Card", Implementation: registry.Implementation{Name: "Card", Import: "@acme/ui"}, Adapter: registry.Adapter{AcceptsChildren: true}},
		{Type: "local:Badge", Implementation: registry.Implementation{Name: "Badge", Import: "./badge"}},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	raw := `{"ui":{"root":{"id":"root","children":[
		{"id":"c","type":"acme:Card","children":[{"id":"b","type":"acme:Button"}]},
		{"id":"b2","type":"acme:Button"},
		{"id":"l","type":"local:Badge"}
	]}}}`

	module := mustLower(t, newGenerator(t, reg), raw)
	want := []ir.Import{
		{Source: "./badge", Names: []string{"Badge"}},
		{Source: "@acme/ui", Names: []string{"Button", "Card"}},
	}
	if diff := cmp.Diff(want, module.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ir.Dependency{{Package: "@acme/ui"}}, module.Dependencies); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if module.Root.Children[0].Kind != ir.KindComponent {
		t.Fatalf("external containers lower as components")
	}

	cdn := mustLower(t, newGenerator(t, reg, WithImportOptions(imports.Options{Strategy: imports.StrategyCDN, Version: "1.0.0"})), raw)
	if cdn.Imports[1].Source != "https://esm.sh/@acme/ui@1.0.0" || len(cdn.Dependencies) != 0 {
		t.Fatalf("cdn imports must be absolute and undeclared: %+v %+v", cdn.Imports, cdn.Dependencies)
	}
}

func TestLower_UndeclaredStateReadMarksModule(t *testing.T) {
	module := mustLower(t, newGenerator(t, nil), `{"ui":{"root":{"id":"root","text":{"$state":"count"}}}}`)
	if !module.UsesState || len(module.State) != 0 {
		t.Fatalf("state read without declaration should set UsesState, got %+v", module)
	}

	literal := mustLower(t, newGenerator(t, nil), `{"ui":{"root":{"id":"root","text":"static"}}}`)
	if literal.UsesState {
		t.Fatalf("literal-only module must not use state")
	}
}

func TestLower_ClashingImportNamesAreAliased(t *testing.T) {
	reg := registry.New()
	if err := reg.RegisterEntries([]registry.Entry{
		{Type: "a:Button", Implementation: registry.Implementation{Name: "Button", Import: "lib-a"}},
		{Type: "b:Button", Implementation: registry.Implementation{Name: "Button", Import: "lib-b"}},
		{Type: "b:Menu", Implementation: registry.Implementation{Name: "Menu.Item", Import: "lib-b"}},
		{Type: "c:Menu", Implementation: registry.Implementation{Name: "Menu.Item", Import: "lib-c"}},
		{Type: "c:State", Implementation: registry.Implementation{Name: "useState", Import: "lib-c"}},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	module := mustLower(t, newGenerator(t, reg), `{"ui":{"root":{"id":"root","children":[
		{"id":"first","type":"a:Button"},
		{"id":"second","type":"b:Button"},
		{"id":"again","type":"b:Button"},
		{"id":"m1","type":"b:Menu"},
		{"id":"m2","type":"c:Menu"},
		{"id":"hook","type":"c:State"}
	]}}}`)

	var tags []string
	for _, child := range module.Root.Children {
		tags = append(tags, child.Tag)
	}
	if diff := cmp.Diff([]string{"Button", "Button2", "Button2", "Menu.Item", "Menu2.Item", "useState2"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	want := []ir.Import{
		{Source: "lib-a", Names: []string{"Button"}},
		{Source: "lib-b", Names: []string{"Button", "Menu"}, Aliases: map[string]string{"Button": "Button2"}},
		{Source: "lib-c", Names: []string{"Menu", "useState"}, Aliases: map[string]string{"Menu": "Menu2", "useState": "useState2"}},
	}
	if diff := cmp.Diff(want, module.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestLower_ThemeCSSVarsAreQuoted(t *testing.T) {
	cfg := &theme.RendererConfig{CSSVars: map[string]string{"--tone": "say \"hi\"", "--gap": "4px"}}
	module := mustLower(t, newGenerator(t, nil, WithTheme(cfg)), `{"ui":{"root":{"id":"root"}}}`)

	var vars []string
	for _, prop := range module.CSSVars {
		vars = append(vars, prop.Name+"="+prop.Value.Code)
	}
	if diff := cmp.Diff([]string{`--gap="4px"`, `--tone="say \"hi\""`}, vars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
}

func TestLower_ThemeTokensAndAssets(t *testing.T) {
	cfg := &theme.RendererConfig{
		Theme:   "acme",
		Tokens:  map[string]string{"gap": "12px"},
		CSSVars: map[string]string{"--brand": "#123456"},
		AssetURL: func(key string) string {
			return "/themes/acme/" + key
		},
	}
	module := mustLower(t, newGenerator(t, nil, WithTheme(cfg)), `{"ui":{"root":{"id":"root",
		"style":{"color":"$brand","gap":"$gap","margin":"$unknown","opacity":0.5},
		"resources":{"logo":{"kind":"file","value":"logo.svg"},"site":{"kind":"url","value":"https://example.com"}}
	}}}`)

	var style []string
	for _, prop := range module.Root.Style {
		style = append(style, prop.Name+":"+prop.Value.Code)
	}
	want := []string{`color:"var(--brand)"`, `gap:"12px"`, `margin:"$unknown"`, `opacity:0.5`}
	if diff := cmp.Diff(want, style); diff != "" {
		t.Fatalf("style mismatch (-want +got):\n%s", diff)
	}
	if module.Root.StyleProp != "style" {
		t.Fatalf("unexpected style prop %q", module.Root.StyleProp)
	}
	if got := module.Root.Resources[0].URL; got != "/themes/acme/logo.svg" {
		t.Fatalf("file resource should resolve through the theme, got %q", got)
	}
	if diff := cmp.Diff([]ir.Prop{{Name: "--brand", Value: ir.Expr{Kind: ir.ExprLiteral, Code: `"#123456"`, Value: "#123456"}}}, module.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
}

type stubBackend struct {
	name string
	err  error
}

func (s stubBackend) Name() string        { return s.name }
func (s stubBackend) ContentType() string { return "text/plain" }
func (s stubBackend) Emit(_ context.Context, module *ir.Module) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(module.Name + ":" + module.Root.Tag), nil
}

func TestGenerate_DispatchesToBackend(t *testing.T) {
	gen := newGenerator(t, nil,
		WithModuleName("Landing"),
		WithBackends(stubBackend{name: "stub"}, stubBackend{name: "broken", err: errors.New("boom")}),
	)
	doc := mir.Default()

	out, err := gen.Generate(context.Background(), doc, " STUB ")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "Landing:div" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := gen.Generate(context.Background(), doc, "vue"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if out, err := gen.Generate(context.Background(), doc, "broken"); err == nil || out != nil {
		t.Fatalf("backend failure must not return output")
	}
	if diff := cmp.Diff([]string{"broken", "stub"}, gen.Targets()); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestBackendRegistry_RejectsDuplicates(t *testing.T) {
	reg, err := NewBackendRegistry(stubBackend{name: "a"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Register(stubBackend{name: "A"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := reg.Register(stubBackend{name: " "}); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil backend error")
	}
}

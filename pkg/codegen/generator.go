package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
	"github.com/goliatone/go-mirgen/pkg/imports"
	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// Generator lowers documents and dispatches to backends.
type Generator struct {
	registry *registry.Registry
	backends *BackendRegistry
	cfg      config
}

// New constructs a generator resolving node types through reg.
func New(reg *registry.Registry, options ...Option) (*Generator, error) {
	cfg := config{
		name:   DefaultModuleName,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if reg == nil {
		return nil, errors.New("codegen: registry is required")
	}

	backends := cfg.registry
	if backends == nil {
		backends = &BackendRegistry{backends: make(map[string]Backend)}
	}
	for _, backend := range cfg.backends {
		if err := backends.Register(backend); err != nil {
			return nil, err
		}
	}
	return &Generator{registry: reg, backends: backends, cfg: cfg}, nil
}

// Targets lists the registered backend names.
func (g *Generator) Targets() []string {
	return g.backends.List()
}

// Backends exposes the backend registry.
func (g *Generator) Backends() *BackendRegistry {
	return g.backends
}

// Generate lowers doc and emits it with the backend registered for target.
// Output is returned only when both steps succeed.
func (g *Generator) Generate(ctx context.Context, doc mir.Document, target string) ([]byte, error) {
	backend, err := g.backends.Get(target)
	if err != nil {
		return nil, err
	}
	module, err := g.Lower(doc)
	if err != nil {
		g.cfg.logger.Warn("lowering failed", "target", target, "error", err)
		return nil, err
	}
	out, err := backend.Emit(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("codegen: emit %s: %w", backend.Name(), err)
	}
	g.cfg.logger.Debug("module generated",
		"target", backend.Name(),
		"bytes", len(out),
		"imports", len(module.Imports),
		"missing", len(module.Missing),
	)
	return out, nil
}

// Lower converts doc into a complete IR module.
func (g *Generator) Lower(doc mir.Document) (*ir.Module, error) {
	l := &lowerer{
		gen:      g,
		seen:     make(map[string]string),
		params:   make(map[string]struct{}),
		imports:  make(map[string]map[string]string),
		locals:   reservedLocals(),
		deps:     make(map[string]string),
		missing:  make(map[string]struct{}),
		declared: make(map[string]struct{}),
	}
	if doc.Logic != nil {
		for name := range doc.Logic.State {
			l.declared[name] = struct{}{}
		}
	}

	root, err := l.node(doc.UI.Root, "0")
	if err != nil {
		return nil, err
	}

	version := doc.Version
	if version == "" {
		version = mir.CurrentVersion
	}
	module := &ir.Module{
		Name:      g.cfg.name,
		Version:   version,
		Root:      root,
		UsesData:  l.usesData,
		UsesState: l.usesState,
		Params:    sortedKeys(l.params),
		Missing:   sortedKeys(l.missing),
	}
	if module.State, err = stateDecls(doc.Logic); err != nil {
		return nil, err
	}
	module.Imports = l.importList()
	module.Dependencies = l.dependencyList()
	if module.CSSVars, err = g.cssVars(); err != nil {
		return nil, err
	}
	return module, nil
}

type lowerer struct {
	gen       *Generator
	seen      map[string]string
	params    map[string]struct{}
	imports   map[string]map[string]string // source -> exported name -> local binding
	locals    map[string]struct{}
	deps      map[string]string
	missing   map[string]struct{}
	declared  map[string]struct{}
	usesData  bool
	usesState bool
}

func (l *lowerer) node(n mir.Node, path string) (ir.Node, error) {
	fail := func(err error) (ir.Node, error) {
		return ir.Node{}, &LoweringError{NodeID: n.ID, Path: path, Err: err}
	}

	if n.ID != "" {
		if prev, dup := l.seen[n.ID]; dup {
			return fail(fmt.Errorf("%w (first at %s)", ErrDuplicateID, prev))
		}
		l.seen[n.ID] = path
	}

	res := l.gen.registry.Resolve(n.Type)
	out := ir.Node{ID: n.ID, Type: n.Type}
	adapter := res.Adapter

	switch {
	case res.Missing:
		out.Kind = ir.KindMissing
		l.missing[n.Type] = struct{}{}
		adapter = registry.Adapter{AcceptsChildren: true}
	case res.Implementation.Intrinsic && adapter.AcceptsChildren:
		out.Kind = ir.KindContainer
	default:
		out.Kind = ir.KindComponent
	}
	if !res.Missing {
		out.Tag = res.Implementation.Name
		out.Intrinsic = res.Implementation.Intrinsic
		if !out.Intrinsic && res.Implementation.Import != "" {
			out.Import, out.Tag = l.addImport(res.Implementation)
		}
	}

	if len(n.Children) > 0 && !adapter.AcceptsChildren {
		return fail(fmt.Errorf("%w: type %q", ErrChildrenNotAccepted, n.Type))
	}

	props := make(map[string]ir.Expr, len(n.Props)+len(adapter.Overrides)+1)
	for _, name := range sortedKeys(n.Props) {
		expr, err := l.value(n.Props[name])
		if err != nil {
			return fail(fmt.Errorf("prop %q: %w", name, err))
		}
		props[adapter.NativeProp(name)] = expr
	}

	if n.Text != nil {
		expr, err := l.value(*n.Text)
		if err != nil {
			return fail(fmt.Errorf("text: %w", err))
		}
		if adapter.TextProp != "" {
			if _, set := props[adapter.TextProp]; !set {
				props[adapter.TextProp] = expr
			}
		} else {
			out.Text = &expr
		}
	}

	for _, name := range sortedKeys(adapter.Overrides) {
		expr, err := ir.Literal(adapter.Overrides[name])
		if err != nil {
			return fail(fmt.Errorf("override %q: %w", name, err))
		}
		props[name] = expr
	}
	for _, name := range sortedKeys(props) {
		out.Props = append(out.Props, ir.Prop{Name: name, Value: props[name]})
	}

	if len(n.Style) > 0 {
		out.StyleProp = adapter.StylePropName()
		for _, name := range sortedKeys(n.Style) {
			expr, err := ir.Literal(l.gen.themeValue(n.Style[name]))
			if err != nil {
				return fail(fmt.Errorf("style %q: %w", name, err))
			}
			out.Style = append(out.Style, ir.Prop{Name: name, Value: expr})
		}
	}

	for _, name := range sortedKeys(n.Events) {
		event, err := l.event(name, n.Events[name])
		if err != nil {
			return fail(err)
		}
		out.Events = append(out.Events, event)
	}

	if n.Binding != nil {
		read, err := l.ref(ir.ExprState, n.Binding.Path)
		if err != nil {
			return fail(fmt.Errorf("binding: %w", err))
		}
		out.Binding = &ir.Binding{Path: read.Path, ValueType: n.Binding.ValueType, Read: read}
	}

	for _, name := range sortedKeys(n.Resources) {
		out.Resources = append(out.Resources, l.gen.resource(name, n.Resources[name]))
	}

	for idx, child := range n.Children {
		lowered, err := l.node(child, fmt.Sprintf("%s/%d", path, idx))
		if err != nil {
			return ir.Node{}, err
		}
		out.Children = append(out.Children, lowered)
	}
	return out, nil
}

func (l *lowerer) value(v mir.Value) (ir.Expr, error) {
	switch v.Ref {
	case mir.RefState:
		return l.ref(ir.ExprState, v.Path)
	case mir.RefParam:
		return l.ref(ir.ExprParam, v.Path)
	case mir.RefData:
		return l.ref(ir.ExprData, v.Path)
	}
	return ir.Literal(v.Literal)
}

func (l *lowerer) ref(kind ir.ExprKind, path string) (ir.Expr, error) {
	expr, err := ir.Ref(kind, path)
	if err != nil {
		return ir.Expr{}, fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	switch kind {
	case ir.ExprParam:
		if !ir.ValidIdentifier(expr.Path) {
			return ir.Expr{}, fmt.Errorf("%w: parameter %q must be an identifier", ErrInvalidBinding, expr.Path)
		}
		l.params[expr.Path] = struct{}{}
	case ir.ExprData:
		l.usesData = true
	case ir.ExprState:
		l.usesState = true
		if l.gen.cfg.strictState {
			if _, ok := l.declared[rootSegment(expr.Path)]; !ok {
				return ir.Expr{}, fmt.Errorf("%w %q", ErrUnknownState, expr.Path)
			}
		}
	}
	return expr, nil
}

func (l *lowerer) event(name string, binding mir.EventBinding) (ir.Event, error) {
	target := strings.TrimSpace(binding.Target)
	if !ir.ValidPath(target) {
		return ir.Event{}, fmt.Errorf("event %q: %w: target %q", name, ErrInvalidBinding, binding.Target)
	}
	event := ir.Event{
		Name:           name,
		Handler:        target,
		Debounce:       binding.Debounce,
		PreventDefault: binding.PreventDefault,
	}
	if binding.Payload != nil {
		payload, err := ir.Literal(binding.Payload)
		if err != nil {
			return ir.Event{}, fmt.Errorf("event %q payload: %w", name, err)
		}
		event.Payload = &payload
	}
	return event, nil
}

// addImport records impl's import and returns the resolved source with the
// tag to emit. A name already bound by another source, or by the backends'
// own scaffolding, is imported under a numbered alias.
func (l *lowerer) addImport(impl registry.Implementation) (string, string) {
	res := imports.Resolve(impl.Import, l.gen.cfg.imports)
	names, ok := l.imports[res.ImportSource]
	if !ok {
		names = make(map[string]string)
		l.imports[res.ImportSource] = names
	}
	exported := rootSegment(impl.Name)
	local, ok := names[exported]
	if !ok {
		local = exported
		for n := 2; ; n++ {
			if _, taken := l.locals[local]; !taken {
				break
			}
			local = fmt.Sprintf("%s%d", exported, n)
		}
		l.locals[local] = struct{}{}
		names[exported] = local
	}
	if res.DeclareDependency && res.PackageName != "" {
		if prev := l.deps[res.PackageName]; prev == "" {
			l.deps[res.PackageName] = res.Version
		}
	}
	return res.ImportSource, local + strings.TrimPrefix(impl.Name, exported)
}

func (l *lowerer) importList() []ir.Import {
	if len(l.imports) == 0 {
		return nil
	}
	out := make([]ir.Import, 0, len(l.imports))
	for _, source := range sortedKeys(l.imports) {
		bound := l.imports[source]
		imp := ir.Import{Source: source, Names: sortedKeys(bound)}
		for _, name := range imp.Names {
			if local := bound[name]; local != name {
				if imp.Aliases == nil {
					imp.Aliases = make(map[string]string)
				}
				imp.Aliases[name] = local
			}
		}
		out = append(out, imp)
	}
	return out
}

func reservedLocals() map[string]struct{} {
	out := make(map[string]struct{}, len(ir.ReservedNames))
	for _, name := range ir.ReservedNames {
		out[name] = struct{}{}
	}
	return out
}

func (l *lowerer) dependencyList() []ir.Dependency {
	if len(l.deps) == 0 {
		return nil
	}
	out := make([]ir.Dependency, 0, len(l.deps))
	for _, pkg := range sortedKeys(l.deps) {
		out = append(out, ir.Dependency{Package: pkg, Version: l.deps[pkg]})
	}
	return out
}

func stateDecls(logic *mir.Logic) ([]ir.StateDecl, error) {
	if logic == nil || len(logic.State) == 0 {
		return nil, nil
	}
	out := make([]ir.StateDecl, 0, len(logic.State))
	for _, name := range sortedKeys(logic.State) {
		if !ir.ValidIdentifier(name) {
			return nil, &LoweringError{Path: "logic.state", Err: fmt.Errorf("%w: state name %q", ErrInvalidBinding, name)}
		}
		def := logic.State[name]
		initial, err := ir.Literal(def.Initial)
		if err != nil {
			return nil, &LoweringError{Path: "logic.state." + name, Err: err}
		}
		kind := string(def.Kind)
		if kind == "" {
			kind = string(mir.StateLocal)
		}
		out = append(out, ir.StateDecl{Name: name, Kind: kind, Initial: initial})
	}
	return out, nil
}

func (g *Generator) themeValue(value any) any {
	token, ok := value.(string)
	if !ok || !strings.HasPrefix(token, "$") || g.cfg.theme == nil {
		return value
	}
	name := strings.TrimPrefix(token, "$")
	if _, ok := g.cfg.theme.CSSVars["--"+name]; ok {
		return "var(--" + name + ")"
	}
	if resolved, ok := g.cfg.theme.Tokens[name]; ok {
		return resolved
	}
	return value
}

func (g *Generator) resource(name string, res mir.Resource) ir.Resource {
	out := ir.Resource{Name: name, Kind: string(res.Kind), MimeType: res.MimeType}
	switch res.Kind {
	case mir.ResourceInline:
		out.Content = res.Value
	case mir.ResourceFile:
		out.URL = res.Value
		if g.cfg.theme != nil && g.cfg.theme.AssetURL != nil {
			if resolved := g.cfg.theme.AssetURL(res.Value); resolved != "" {
				out.URL = resolved
			}
		}
	default:
		out.URL = res.Value
	}
	return out
}

func (g *Generator) cssVars() ([]ir.Prop, error) {
	if g.cfg.theme == nil || len(g.cfg.theme.CSSVars) == 0 {
		return nil, nil
	}
	out := make([]ir.Prop, 0, len(g.cfg.theme.CSSVars))
	for _, name := range sortedKeys(g.cfg.theme.CSSVars) {
		expr, err := ir.Literal(g.cfg.theme.CSSVars[name])
		if err != nil {
			return nil, &LoweringError{Path: "theme.cssVars." + name, Err: err}
		}
		out = append(out, ir.Prop{Name: name, Value: expr})
	}
	return out, nil
}

func rootSegment(path string) string {
	if idx := strings.IndexAny(path, ".["); idx >= 0 {
		return path[:idx]
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

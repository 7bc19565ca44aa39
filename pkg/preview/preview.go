// Package preview resolves a document against the registry into a live
// preview tree. Unknown types become placeholders and types owned by a
// library that is still loading are marked pending; neither stops the rest
// of the tree from rendering.
package preview

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/mir"
	"github.com/goliatone/go-mirgen/pkg/registry"
)

// Status classifies a preview node.
type Status string

const (
	StatusRendered Status = "rendered"
	StatusMissing  Status = "missing"
	StatusPending  Status = "pending"
)

// PendingSource reports libraries that are currently loading.
// *libruntime.Runtime satisfies it.
type PendingSource interface {
	Pending() []string
}

// PendingFunc adapts a function to PendingSource.
type PendingFunc func() []string

// Pending implements PendingSource.
func (fn PendingFunc) Pending() []string {
	return fn()
}

// Node is one resolved preview node.
type Node struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Status    Status            `json:"status"`
	Element   string            `json:"element,omitempty"`
	Intrinsic bool              `json:"intrinsic,omitempty"`
	Library   string            `json:"library,omitempty"`
	Props     map[string]any    `json:"props,omitempty"`
	Bindings  map[string]string `json:"bindings,omitempty"`
	Text      string            `json:"text,omitempty"`
	Handle    any               `json:"-"`
	Children  []Node            `json:"children,omitempty"`
}

// Tree is a rendered preview.
type Tree struct {
	Root Node `json:"root"`
	// Missing lists unresolved types, sorted.
	Missing []string `json:"missing,omitempty"`
	// Pending lists libraries the tree is waiting on, sorted.
	Pending []string `json:"pending,omitempty"`
	// Warnings describe recoverable problems such as dropped children.
	Warnings []string `json:"warnings,omitempty"`
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithPendingSource marks nodes of loading libraries as pending.
func WithPendingSource(src PendingSource) Option {
	return func(r *Renderer) {
		r.pending = src
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer builds preview trees.
type Renderer struct {
	reg     *registry.Registry
	pending PendingSource
	logger  *slog.Logger
}

// New constructs a Renderer reading reg.
func New(reg *registry.Registry, options ...Option) *Renderer {
	r := &Renderer{
		reg:    reg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render resolves doc. It never fails: structural problems are reported on
// the tree.
func (r *Renderer) Render(doc mir.Document) Tree {
	pass := &pass{
		r:       r,
		state:   initialState(doc),
		loading: make(map[string]struct{}),
		missing: make(map[string]struct{}),
		waiting: make(map[string]struct{}),
	}
	if r.pending != nil {
		for _, id := range r.pending.Pending() {
			pass.loading[id] = struct{}{}
		}
	}

	tree := Tree{Root: pass.node(doc.UI.Root)}
	tree.Missing = sortedSet(pass.missing)
	tree.Pending = sortedSet(pass.waiting)
	tree.Warnings = pass.warnings
	return tree
}

type pass struct {
	r        *Renderer
	state    map[string]any
	loading  map[string]struct{}
	missing  map[string]struct{}
	waiting  map[string]struct{}
	warnings []string
}

func (p *pass) node(n mir.Node) Node {
	out := Node{ID: n.ID, Type: n.Type}
	res := p.r.reg.Resolve(n.Type)

	if res.Missing {
		if lib := libraryOf(n.Type); lib != "" {
			if _, ok := p.loading[lib]; ok {
				out.Status = StatusPending
				out.Library = lib
				p.waiting[lib] = struct{}{}
				out.Children = p.children(n.Children)
				return out
			}
		}
		out.Status = StatusMissing
		p.missing[n.Type] = struct{}{}
		out.Children = p.children(n.Children)
		return out
	}

	adapter := res.Adapter
	out.Status = StatusRendered
	out.Element = res.Implementation.Name
	out.Intrinsic = res.Implementation.Intrinsic
	out.Handle = res.Implementation.Handle
	if res.External {
		out.Library = libraryOf(n.Type)
	}

	for _, name := range sortedKeys(n.Props) {
		p.setProp(&out, adapter.NativeProp(name), n.Props[name])
	}
	if n.Text != nil {
		if adapter.TextProp != "" {
			p.setProp(&out, adapter.TextProp, *n.Text)
		} else {
			out.Text = p.text(*n.Text)
		}
	}
	if len(n.Style) > 0 {
		if out.Props == nil {
			out.Props = make(map[string]any)
		}
		out.Props[adapter.StylePropName()] = n.Style
	}
	if n.Binding != nil {
		if out.Bindings == nil {
			out.Bindings = make(map[string]string)
		}
		out.Bindings["value"] = "$state:" + n.Binding.Path
	}
	for name, value := range adapter.Overrides {
		if out.Props == nil {
			out.Props = make(map[string]any)
		}
		out.Props[name] = value
		delete(out.Bindings, name)
	}

	if len(n.Children) > 0 && !adapter.AcceptsChildren {
		warning := "node " + n.ID + ": " + n.Type + " does not accept children"
		p.warnings = append(p.warnings, warning)
		p.r.logger.Warn("preview dropped children", "node", n.ID, "type", n.Type, "children", len(n.Children))
		return out
	}
	out.Children = p.children(n.Children)
	return out
}

func (p *pass) children(nodes []mir.Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, 0, len(nodes))
	for _, child := range nodes {
		out = append(out, p.node(child))
	}
	return out
}

func (p *pass) setProp(out *Node, name string, value mir.Value) {
	if resolved, ok := p.resolve(value); ok {
		if out.Props == nil {
			out.Props = make(map[string]any)
		}
		out.Props[name] = resolved
		return
	}
	if out.Bindings == nil {
		out.Bindings = make(map[string]string)
	}
	out.Bindings[name] = value.String()
}

func (p *pass) text(value mir.Value) string {
	if resolved, ok := p.resolve(value); ok {
		return mir.Literal(resolved).String()
	}
	return "{" + value.String() + "}"
}

// resolve returns the preview value of v. State reads use initial values;
// params and data have no value outside a running app.
func (p *pass) resolve(v mir.Value) (any, bool) {
	switch v.Ref {
	case mir.RefNone:
		return v.Literal, true
	case mir.RefState:
		var current any = p.state
		for _, segment := range strings.Split(v.Path, ".") {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = obj[segment]; !ok {
				return nil, false
			}
		}
		return current, true
	}
	return nil, false
}

func initialState(doc mir.Document) map[string]any {
	state := make(map[string]any)
	if doc.Logic == nil {
		return state
	}
	for name, def := range doc.Logic.State {
		state[name] = def.Initial
	}
	return state
}

// libraryOf returns the library prefix of an external item type
// ("@acme/ui:Button" belongs to "@acme/ui").
func libraryOf(typ string) string {
	idx := strings.LastIndex(typ, ":")
	if idx <= 0 {
		return ""
	}
	return typ[:idx]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	return sortedKeys(set)
}

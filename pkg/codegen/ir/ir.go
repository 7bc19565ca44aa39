// Package ir defines the framework-neutral component representation the
// generator lowers documents into. Backends consume a complete Module; no
// backend needs access to the document or the registry.
package ir

// Kind is the resolved implementation class of a node.
type Kind string

const (
	// KindContainer is a host element that accepts children.
	KindContainer Kind = "container"
	// KindComponent is a named implementation (host element or imported
	// component) that does not act as a plain container.
	KindComponent Kind = "component"
	// KindMissing marks a node whose type did not resolve. Backends emit a
	// visible placeholder.
	KindMissing Kind = "missing"
)

// ExprKind classifies an expression.
type ExprKind string

const (
	ExprLiteral ExprKind = "literal"
	ExprState   ExprKind = "state"
	ExprParam   ExprKind = "param"
	ExprData    ExprKind = "data"
)

// Conventional accessor names used by read expressions.
const (
	StateAccessor = "state"
	ParamAccessor = "params"
	DataAccessor  = "data"
)

// ReservedNames are module-scope bindings backends declare themselves.
// Imported components never bind these names.
var ReservedNames = []string{
	"React", "useMemo", "useRef", "useState",
	"debounce", "assignPath",
	StateAccessor, "setState", "replaceState", "actionsRef",
	ParamAccessor, DataAccessor, "actions",
}

// Expr is a bound expression. Code is always a valid JavaScript expression:
// literals are quoted, references are property reads on an accessor.
type Expr struct {
	Kind ExprKind `json:"kind"`
	Code string   `json:"code"`
	// Path is the reference path for non-literal expressions.
	Path string `json:"path,omitempty"`
	// Value is the literal value for literal expressions.
	Value any `json:"value,omitempty"`
}

// IsLiteral reports whether e is a literal.
func (e Expr) IsLiteral() bool {
	return e.Kind == ExprLiteral
}

// Prop is one named expression.
type Prop struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
}

// Event is a lowered event handler binding.
type Event struct {
	Name           string `json:"name"`
	Handler        string `json:"handler"`
	Payload        *Expr  `json:"payload,omitempty"`
	Debounce       int    `json:"debounce,omitempty"`
	PreventDefault bool   `json:"preventDefault,omitempty"`
}

// Binding links a node's value to a state path.
type Binding struct {
	Path      string `json:"path"`
	ValueType string `json:"valueType,omitempty"`
	Read      Expr   `json:"read"`
}

// Resource is an attached resource with its resolved location.
type Resource struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	MimeType string `json:"mimeType,omitempty"`
	// URL is set for file and url resources.
	URL string `json:"url,omitempty"`
	// Content is set for inline resources.
	Content string `json:"content,omitempty"`
}

// Node is one lowered document node.
type Node struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Kind Kind   `json:"kind"`
	// Tag is the element or component identifier to emit. Empty for
	// missing nodes.
	Tag string `json:"tag,omitempty"`
	// Intrinsic marks host elements.
	Intrinsic bool `json:"intrinsic,omitempty"`
	// Import is the resolved module specifier for imported components.
	Import string `json:"import,omitempty"`
	// Props are sorted by name; adapter overrides are already applied.
	Props []Prop `json:"props,omitempty"`
	// StyleProp names the prop that receives Style.
	StyleProp string      `json:"styleProp,omitempty"`
	Style     []Prop      `json:"style,omitempty"`
	Text      *Expr       `json:"text,omitempty"`
	Events    []Event     `json:"events,omitempty"`
	Binding   *Binding    `json:"binding,omitempty"`
	Resources []Resource  `json:"resources,omitempty"`
	Children  []Node      `json:"children,omitempty"`
}

// StateDecl is a declared state variable.
type StateDecl struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Initial Expr   `json:"initial"`
}

// Import groups the names imported from one module specifier.
type Import struct {
	Source string   `json:"source"`
	Names  []string `json:"names"`
	// Aliases maps an exported name to the local binding when the name is
	// already taken in module scope.
	Aliases map[string]string `json:"aliases,omitempty"`
}

// Local returns the module-scope binding for an imported name.
func (i Import) Local(name string) string {
	if local, ok := i.Aliases[name]; ok && local != "" {
		return local
	}
	return name
}

// Dependency is a package the caller must declare in its project manifest.
type Dependency struct {
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
}

// Module is the complete lowered document.
type Module struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Root         Node         `json:"root"`
	State        []StateDecl  `json:"state,omitempty"`
	Params       []string     `json:"params,omitempty"`
	UsesData     bool         `json:"usesData,omitempty"`
	UsesState    bool         `json:"usesState,omitempty"`
	Imports      []Import     `json:"imports,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	// Missing lists unresolved node types, sorted.
	Missing []string `json:"missing,omitempty"`
	// CSSVars are theme custom properties for the module root.
	CSSVars []Prop `json:"cssVars,omitempty"`
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for idx := range n.Children {
		Walk(&n.Children[idx], fn)
	}
}

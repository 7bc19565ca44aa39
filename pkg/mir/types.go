package mir

// CurrentVersion is stamped on every normalized document.
const CurrentVersion = "1.2.0"

const (
	// DefaultRootID is assigned to a root node without an id.
	DefaultRootID = "root"
	// DefaultRootType is assigned to a root node without a type.
	DefaultRootType = "container"
)

// Document is the persisted, interchangeable UI document.
type Document struct {
	Version string `json:"version"`
	UI      UI     `json:"ui"`
	Logic   *Logic `json:"logic,omitempty"`
}

// UI holds the single tree root.
type UI struct {
	Root Node `json:"root"`
}

// Node is one element of the document tree.
type Node struct {
	ID        string                  `json:"id"`
	Type      string                  `json:"type"`
	Text      *Value                  `json:"text,omitempty"`
	Props     map[string]Value        `json:"props,omitempty"`
	Style     map[string]any          `json:"style,omitempty"`
	Children  []Node                  `json:"children,omitempty"`
	Events    map[string]EventBinding `json:"events,omitempty"`
	Binding   *DataBinding            `json:"binding,omitempty"`
	Resources map[string]Resource     `json:"resources,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// EventBinding routes a node event to a named target (a state mutation,
// navigation or logic graph entry).
type EventBinding struct {
	Target         string `json:"target"`
	Payload        any    `json:"payload,omitempty"`
	Debounce       int    `json:"debounce,omitempty"`
	PreventDefault bool   `json:"preventDefault,omitempty"`
}

// DataBinding links a node to external state.
type DataBinding struct {
	Path      string `json:"path"`
	ValueType string `json:"type,omitempty"`
}

// ResourceKind enumerates where a resource payload lives.
type ResourceKind string

const (
	ResourceFile   ResourceKind = "file"
	ResourceURL    ResourceKind = "url"
	ResourceInline ResourceKind = "inline"
)

// Resource is a named asset attached to a node.
type Resource struct {
	Kind     ResourceKind `json:"kind"`
	Value    string       `json:"value"`
	MimeType string       `json:"mimeType,omitempty"`
}

// StateKind classifies declared state.
type StateKind string

const (
	StateLocal   StateKind = "local"
	StateGlobal  StateKind = "global"
	StateDerived StateKind = "derived"
)

// StateDefinition declares one named state variable.
type StateDefinition struct {
	Kind    StateKind `json:"kind"`
	Initial any       `json:"initial,omitempty"`
	Schema  any       `json:"schema,omitempty"`
}

// Logic carries document-level behaviour metadata. Graphs are opaque to this
// module and preserved as authored.
type Logic struct {
	State  map[string]StateDefinition `json:"state,omitempty"`
	Graphs map[string]any             `json:"graphs,omitempty"`
}

// Default returns the minimal valid document: a single empty container.
func Default() Document {
	return Document{
		Version: CurrentVersion,
		UI: UI{
			Root: Node{ID: DefaultRootID, Type: DefaultRootType},
		},
	}
}

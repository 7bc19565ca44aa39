package registry

import (
	"maps"
	"reflect"
	"slices"
)

// ElementType tags opaque implementation handles that are components even
// though they are not callables (forwarded, memoised or lazily loaded
// wrappers).
type ElementType string

const (
	ElementComponent  ElementType = "component"
	ElementForwardRef ElementType = "forward_ref"
	ElementMemo       ElementType = "memo"
	ElementLazy       ElementType = "lazy"
)

var recognisedElementTypes = map[ElementType]struct{}{
	ElementComponent:  {},
	ElementForwardRef: {},
	ElementMemo:       {},
	ElementLazy:       {},
}

// ElementMarker is implemented by handles that carry an element-type tag.
type ElementMarker interface {
	ElementType() ElementType
}

// Element is the stock ElementMarker used by loaders and tests.
type Element struct {
	Kind   ElementType
	Name   string
	Target any
}

// ElementType implements ElementMarker.
func (e Element) ElementType() ElementType {
	return e.Kind
}

// IsComponentLike reports whether value can back a registry entry: any
// function value, or a handle whose element-type marker is recognised. Plain
// data (maps, strings, token tables) never qualifies.
func IsComponentLike(value any) bool {
	if value == nil {
		return false
	}
	if marker, ok := value.(ElementMarker); ok {
		_, known := recognisedElementTypes[marker.ElementType()]
		return known
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

// Implementation describes what a node type renders as.
type Implementation struct {
	// Name is the intrinsic element ("div") or the component identifier
	// ("Button") emitted by code generators.
	Name string
	// Import is the module specifier the component is imported from. Empty
	// for intrinsic elements.
	Import string
	// Intrinsic marks host elements that need no import.
	Intrinsic bool
	// Handle is the opaque runtime implementation used by live renderers.
	Handle any
	// PropOptions lists enumerated literal choices per prop, when known.
	PropOptions map[string][]string
}

// Adapter describes how generic node fields map onto an implementation.
type Adapter struct {
	// AcceptsChildren reports whether child nodes may be nested.
	AcceptsChildren bool
	// TextProp routes node text into the named prop instead of child content.
	TextProp string
	// PropMap renames generic props to the implementation's native names
	// (for example "icon" to "leftIcon").
	PropMap map[string]string
	// StyleProp names the prop receiving node style. Defaults to "style".
	StyleProp string
	// Overrides are hard-coded props applied after node props.
	Overrides map[string]any
}

// NativeProp returns the implementation prop name for a generic prop.
func (a Adapter) NativeProp(name string) string {
	if mapped, ok := a.PropMap[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

// StylePropName returns the prop receiving style, defaulting to "style".
func (a Adapter) StylePropName() string {
	if a.StyleProp == "" {
		return "style"
	}
	return a.StyleProp
}

func (a Adapter) clone() Adapter {
	out := a
	out.PropMap = maps.Clone(a.PropMap)
	out.Overrides = maps.Clone(a.Overrides)
	return out
}

// Entry is one resolvable node type.
type Entry struct {
	Type           string
	Implementation Implementation
	Adapter        Adapter
	// External is true for entries in the externally registered partition.
	External bool
}

func (e Entry) clone() Entry {
	out := e
	out.Adapter = e.Adapter.clone()
	if e.Implementation.PropOptions != nil {
		out.Implementation.PropOptions = make(map[string][]string, len(e.Implementation.PropOptions))
		for prop, choices := range e.Implementation.PropOptions {
			out.Implementation.PropOptions[prop] = slices.Clone(choices)
		}
	}
	return out
}

// Resolution is the result of Resolve. When Missing is true the embedded
// Entry carries only the requested Type and consumers must render or emit a
// placeholder.
type Resolution struct {
	Entry
	Missing bool
}

// Namespace is a module-like set of named exports, as produced by a library
// loader.
type Namespace map[string]any

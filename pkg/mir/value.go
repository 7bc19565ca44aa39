package mir

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// RefKind identifies the namespace a symbolic binding points into.
type RefKind string

const (
	RefNone  RefKind = ""
	RefState RefKind = "state"
	RefParam RefKind = "param"
	RefData  RefKind = "data"
)

var refKeys = map[string]RefKind{
	"$state": RefState,
	"$param": RefParam,
	"$data":  RefData,
}

// Value is either a literal (string, number, bool, nil, list or map) or a
// symbolic reference such as {"$state": "user.name"}.
type Value struct {
	Literal any
	Ref     RefKind
	Path    string
}

// Literal wraps a literal value.
func Literal(v any) Value {
	if lit, ok := canonicalLiteral(v, 0); ok {
		return Value{Literal: lit}
	}
	return Value{}
}

// StateRef references a declared state variable.
func StateRef(path string) Value {
	return Value{Ref: RefState, Path: path}
}

// ParamRef references an external parameter of the generated component.
func ParamRef(name string) Value {
	return Value{Ref: RefParam, Path: name}
}

// DataRef references the data scope (for example the current list item).
func DataRef(path string) Value {
	return Value{Ref: RefData, Path: path}
}

// IsRef reports whether the value is a symbolic binding.
func (v Value) IsRef() bool {
	return v.Ref != RefNone
}

// String returns the literal as text, or the reference in "$kind:path" form.
func (v Value) String() string {
	if v.IsRef() {
		return "$" + string(v.Ref) + ":" + v.Path
	}
	switch typed := v.Literal.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

// MarshalJSON encodes references as single-key objects and literals as is.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsRef() {
		return json.Marshal(map[string]string{"$" + string(v.Ref): v.Path})
	}
	return json.Marshal(v.Literal)
}

// UnmarshalJSON accepts the same shapes Normalize does.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := valueFrom(raw)
	if !ok {
		return fmt.Errorf("mir: unsupported value %s", strings.TrimSpace(string(data)))
	}
	*v = parsed
	return nil
}

func valueFrom(raw any) (Value, bool) {
	if obj, ok := raw.(map[string]any); ok && len(obj) == 1 {
		for key, target := range obj {
			kind, isRef := refKeys[key]
			if !isRef {
				break
			}
			path, ok := target.(string)
			path = strings.TrimSpace(path)
			if !ok || path == "" {
				return Value{}, false
			}
			return Value{Ref: kind, Path: path}, true
		}
	}
	lit, ok := canonicalLiteral(raw, 0)
	if !ok {
		return Value{}, false
	}
	return Value{Literal: lit}, true
}

// textFrom accepts strings, scalar literals (stringified) and references.
func textFrom(raw any) (*Value, bool) {
	switch typed := raw.(type) {
	case string:
		return &Value{Literal: typed}, true
	case map[string]any:
		value, ok := valueFrom(typed)
		if !ok || !value.IsRef() {
			return nil, false
		}
		return &value, true
	case nil:
		return nil, false
	}
	lit, ok := canonicalLiteral(raw, 0)
	if !ok {
		return nil, false
	}
	switch lit.(type) {
	case float64, bool:
		return &Value{Literal: fmt.Sprint(lit)}, true
	}
	return nil, false
}

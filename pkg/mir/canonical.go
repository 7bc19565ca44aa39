package mir

import (
	"math"
	"reflect"

	json "github.com/goccy/go-json"
)

const maxDepth = 256

// canonicalLiteral converts decoded payloads into the JSON value space
// (nil, bool, string, float64, []any, map[string]any) so values built in Go,
// decoded from JSON or decoded from YAML compare equal after normalization.
func canonicalLiteral(v any, depth int) (any, bool) {
	if depth > maxDepth {
		return nil, false
	}
	switch typed := v.(type) {
	case nil:
		return nil, true
	case bool, string:
		return typed, true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, false
		}
		return typed, true
	case float32:
		return canonicalLiteral(float64(typed), depth)
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	case Value:
		if typed.IsRef() {
			return map[string]any{"$" + string(typed.Ref): typed.Path}, true
		}
		return canonicalLiteral(typed.Literal, depth)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			lit, ok := canonicalLiteral(val, depth+1)
			if !ok {
				continue
			}
			out[key] = lit
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			name, ok := key.(string)
			if !ok {
				continue
			}
			lit, ok := canonicalLiteral(val, depth+1)
			if !ok {
				continue
			}
			out[name] = lit
		}
		return out, true
	case []any:
		out := make([]any, 0, len(typed))
		for _, val := range typed {
			lit, ok := canonicalLiteral(val, depth+1)
			if !ok {
				continue
			}
			out = append(out, lit)
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, false
	}
	decoded, err := roundTrip(v)
	if err != nil {
		return nil, false
	}
	return canonicalLiteral(decoded, depth+1)
}

func roundTrip(v any) (any, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func canonicalMap(raw any) map[string]any {
	lit, ok := canonicalLiteral(raw, 0)
	if !ok {
		return nil
	}
	obj, ok := lit.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	return obj
}

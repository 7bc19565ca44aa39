package mir

import (
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// Normalize converts arbitrary input into a document satisfying the tree
// invariants. It accepts decoded maps, JSON or YAML text ([]byte, string,
// json.RawMessage) and Document values. Input without a usable ui.root yields
// Default(). Normalize never panics and never returns an error.
func Normalize(source any) (doc Document) {
	defer func() {
		if recover() != nil {
			doc = Default()
		}
	}()

	raw, ok := asObject(source)
	if !ok {
		return Default()
	}
	normalized, ok := normalizeDocument(raw)
	if !ok {
		return Default()
	}
	return normalized
}

func asObject(source any) (map[string]any, bool) {
	switch typed := source.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return typed, true
	case map[any]any:
		obj := canonicalMap(typed)
		return obj, obj != nil
	case []byte:
		return decodeObject(typed)
	case json.RawMessage:
		return decodeObject([]byte(typed))
	case string:
		return decodeObject([]byte(typed))
	case Document:
		return documentObject(typed)
	case *Document:
		if typed == nil {
			return nil, false
		}
		return documentObject(*typed)
	}
	decoded, err := roundTrip(source)
	if err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	return obj, ok
}

func decodeObject(raw []byte) (map[string]any, bool) {
	decoded, err := Decode(raw)
	if err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	return obj, ok
}

func documentObject(doc Document) (map[string]any, bool) {
	decoded, err := roundTrip(doc)
	if err != nil {
		return nil, false
	}
	obj, ok := decoded.(map[string]any)
	return obj, ok
}

// hasRoot reports whether raw carries an object at ui.root.
func hasRoot(raw map[string]any) bool {
	ui, ok := raw["ui"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = ui["root"].(map[string]any)
	return ok
}

func normalizeDocument(raw map[string]any) (Document, bool) {
	if !hasRoot(raw) {
		return Document{}, false
	}
	ui := raw["ui"].(map[string]any)
	root, ok := normalizeNode(ui["root"], true, 0)
	if !ok {
		return Document{}, false
	}
	return Document{
		Version: CurrentVersion,
		UI:      UI{Root: root},
		Logic:   normalizeLogic(raw["logic"]),
	}, true
}

func normalizeNode(raw any, isRoot bool, depth int) (Node, bool) {
	if depth > maxDepth {
		return Node{}, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Node{}, false
	}

	node := Node{
		ID:   readString(obj, "id"),
		Type: strings.TrimSpace(readString(obj, "type")),
	}
	if isRoot {
		if node.ID == "" {
			node.ID = DefaultRootID
		}
		if node.Type == "" {
			node.Type = DefaultRootType
		}
	}
	if node.Type == "" {
		return Node{}, false
	}

	if text, ok := textFrom(obj["text"]); ok {
		node.Text = text
	}
	node.Props = normalizeProps(obj["props"])
	node.Style = canonicalMap(obj["style"])
	node.Events = normalizeEvents(obj["events"])
	node.Binding = normalizeBinding(obj["binding"])
	node.Resources = normalizeResources(obj["resources"])

	if list, ok := obj["children"].([]any); ok && len(list) > 0 {
		children := make([]Node, 0, len(list))
		for _, entry := range list {
			child, ok := normalizeNode(entry, false, depth+1)
			if !ok {
				continue
			}
			children = append(children, child)
		}
		if len(children) > 0 {
			node.Children = children
		}
	}
	return node, true
}

func normalizeProps(raw any) map[string]Value {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]Value, len(obj))
	for name, entry := range obj {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		value, ok := valueFrom(entry)
		if !ok {
			continue
		}
		out[name] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeEvents(raw any) map[string]EventBinding {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]EventBinding, len(obj))
	for name, entry := range obj {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch typed := entry.(type) {
		case string:
			if target := strings.TrimSpace(typed); target != "" {
				out[name] = EventBinding{Target: target}
			}
		case map[string]any:
			target := strings.TrimSpace(readString(typed, "target"))
			if target == "" {
				target = strings.TrimSpace(readString(typed, "action"))
			}
			if target == "" {
				continue
			}
			binding := EventBinding{Target: target}
			if payload, ok := canonicalLiteral(typed["payload"], 0); ok {
				binding.Payload = payload
			}
			binding.Debounce = readNonNegativeInt(typed, "debounce")
			if prevent, ok := typed["preventDefault"].(bool); ok {
				binding.PreventDefault = prevent
			}
			out[name] = binding
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeBinding(raw any) *DataBinding {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	path := strings.TrimSpace(readString(obj, "path"))
	if path == "" {
		return nil
	}
	return &DataBinding{
		Path:      path,
		ValueType: strings.TrimSpace(readString(obj, "type")),
	}
}

func normalizeResources(raw any) map[string]Resource {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]Resource, len(obj))
	for name, entry := range obj {
		res, ok := entry.(map[string]any)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		kind := ResourceKind(strings.ToLower(strings.TrimSpace(readString(res, "kind"))))
		switch kind {
		case ResourceFile, ResourceURL, ResourceInline:
		default:
			continue
		}
		out[name] = Resource{
			Kind:     kind,
			Value:    readString(res, "value"),
			MimeType: strings.TrimSpace(readString(res, "mimeType")),
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeLogic(raw any) *Logic {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	logic := &Logic{Graphs: canonicalMap(obj["graphs"])}
	if states, ok := obj["state"].(map[string]any); ok && len(states) > 0 {
		logic.State = make(map[string]StateDefinition, len(states))
		for name, entry := range states {
			name = strings.TrimSpace(name)
			def, ok := entry.(map[string]any)
			if !ok || name == "" {
				continue
			}
			kind := StateKind(strings.ToLower(strings.TrimSpace(readString(def, "kind"))))
			switch kind {
			case StateLocal, StateGlobal, StateDerived:
			default:
				kind = StateLocal
			}
			state := StateDefinition{Kind: kind}
			if initial, ok := canonicalLiteral(def["initial"], 0); ok {
				state.Initial = initial
			}
			if schema, ok := canonicalLiteral(def["schema"], 0); ok {
				state.Schema = schema
			}
			logic.State[name] = state
		}
		if len(logic.State) == 0 {
			logic.State = nil
		}
	}
	if logic.State == nil && logic.Graphs == nil {
		return nil
	}
	return logic
}

func readString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	value, _ := obj[key].(string)
	return value
}

func readNonNegativeInt(obj map[string]any, key string) int {
	lit, ok := canonicalLiteral(obj[key], 0)
	if !ok {
		return 0
	}
	f, ok := lit.(float64)
	if !ok || f <= 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

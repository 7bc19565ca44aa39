package mir

import (
	"sort"
	"strings"
)

const pageType = "page"

// ResolveFromContainer returns the canonical document for source. A direct
// document shape is tried first; otherwise source is treated as a workspace
// bundle ({"documents": [...]} or an id-keyed map) and one entry is picked:
// the page at path "/" (or with an empty path), else the first page, else the
// first document. Map-shaped bundles are ordered by key. The picked entry's
// content is normalized. Anything unusable yields Default().
func ResolveFromContainer(source any) (doc Document) {
	defer func() {
		if recover() != nil {
			doc = Default()
		}
	}()

	raw, ok := asObject(source)
	if !ok {
		return Default()
	}
	if direct, ok := normalizeDocument(raw); ok {
		return direct
	}
	entries := containerEntries(raw)
	if content, ok := pickCanonical(entries); ok {
		return Normalize(content)
	}
	return Default()
}

type containerEntry struct {
	kind    string
	path    string
	content any
}

func containerEntries(raw map[string]any) []containerEntry {
	var items []any
	switch typed := raw["documents"].(type) {
	case []any:
		items = typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		items = make([]any, 0, len(keys))
		for _, key := range keys {
			items = append(items, typed[key])
		}
	default:
		return nil
	}

	entries := make([]containerEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, containerEntry{
			kind:    strings.ToLower(strings.TrimSpace(readString(obj, "type"))),
			path:    strings.TrimSpace(readString(obj, "path")),
			content: entryContent(obj),
		})
	}
	return entries
}

func entryContent(obj map[string]any) any {
	for _, key := range []string{"content", "document", "mir"} {
		if value, ok := obj[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func pickCanonical(entries []containerEntry) (any, bool) {
	if len(entries) == 0 {
		return nil, false
	}
	for _, entry := range entries {
		if entry.kind == pageType && (entry.path == "/" || entry.path == "") {
			return entry.content, true
		}
	}
	for _, entry := range entries {
		if entry.kind == pageType {
			return entry.content, true
		}
	}
	return entries[0].content, true
}

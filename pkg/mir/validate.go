package mir

import (
	"fmt"
	"sort"
)

// Issue codes reported by Validate.
const (
	IssueDuplicateID = "duplicate_id"
	IssueEmptyID     = "empty_id"
	IssueUnknownRef  = "unknown_state"
)

// Issue describes a document problem that normalization tolerates but editors
// should surface.
type Issue struct {
	Code    string
	NodeID  string
	Path    string
	Message string
}

// Walk visits node and its descendants depth-first in document order. The
// callback receives the slash-separated index path ("0/2/1") of each node;
// returning false skips that node's children.
func Walk(node Node, fn func(node Node, path string) bool) {
	walk(node, "0", fn)
}

func walk(node Node, path string, fn func(node Node, path string) bool) {
	if !fn(node, path) {
		return
	}
	for idx, child := range node.Children {
		walk(child, fmt.Sprintf("%s/%d", path, idx), fn)
	}
}

// Validate reports duplicate ids, empty descendant ids and state references
// to undeclared state variables.
func Validate(doc Document) []Issue {
	var issues []Issue
	seen := make(map[string]string)
	declared := map[string]struct{}{}
	if doc.Logic != nil {
		for name := range doc.Logic.State {
			declared[name] = struct{}{}
		}
	}

	Walk(doc.UI.Root, func(node Node, path string) bool {
		switch {
		case node.ID == "":
			issues = append(issues, Issue{
				Code:    IssueEmptyID,
				Path:    path,
				Message: fmt.Sprintf("node at %s (%s) has no id", path, node.Type),
			})
		case seen[node.ID] != "":
			issues = append(issues, Issue{
				Code:    IssueDuplicateID,
				NodeID:  node.ID,
				Path:    path,
				Message: fmt.Sprintf("id %q already used at %s", node.ID, seen[node.ID]),
			})
		default:
			seen[node.ID] = path
		}

		for _, ref := range nodeRefs(node) {
			if ref.Ref != RefState || len(declared) == 0 {
				continue
			}
			if _, ok := declared[rootSegment(ref.Path)]; !ok {
				issues = append(issues, Issue{
					Code:    IssueUnknownRef,
					NodeID:  node.ID,
					Path:    path,
					Message: fmt.Sprintf("state %q is not declared", ref.Path),
				})
			}
		}
		return true
	})
	return issues
}

func nodeRefs(node Node) []Value {
	var refs []Value
	if node.Text != nil && node.Text.IsRef() {
		refs = append(refs, *node.Text)
	}
	names := make([]string, 0, len(node.Props))
	for name := range node.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value := node.Props[name]; value.IsRef() {
			refs = append(refs, value)
		}
	}
	return refs
}

func rootSegment(path string) string {
	for idx, r := range path {
		if r == '.' || r == '[' {
			return path[:idx]
		}
	}
	return path
}

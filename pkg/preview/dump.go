package preview

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Dump renders the tree as indented HTML-like text for inspection and
// snapshot tests. Placeholders render as <mir-missing> and <mir-pending>.
func (t Tree) Dump() string {
	var b strings.Builder
	dumpNode(&b, t.Root, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)

	var tag string
	var attrs []string
	switch n.Status {
	case StatusMissing:
		tag = "mir-missing"
		attrs = append(attrs, "type="+strconv.Quote(n.Type))
	case StatusPending:
		tag = "mir-pending"
		attrs = append(attrs, "type="+strconv.Quote(n.Type), "library="+strconv.Quote(n.Library))
	default:
		tag = n.Element
	}
	if n.ID != "" {
		attrs = append(attrs, "id="+strconv.Quote(n.ID))
	}
	for _, name := range sortedKeys(n.Props) {
		attrs = append(attrs, name+"="+formatValue(n.Props[name]))
	}
	for _, name := range sortedKeys(n.Bindings) {
		attrs = append(attrs, name+"={"+n.Bindings[name]+"}")
	}

	open := "<" + tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}
	if n.Text == "" && len(n.Children) == 0 {
		fmt.Fprintf(b, "%s%s />\n", indent, open)
		return
	}
	if len(n.Children) == 0 {
		fmt.Fprintf(b, "%s%s>%s</%s>\n", indent, open, n.Text, tag)
		return
	}
	fmt.Fprintf(b, "%s%s>\n", indent, open)
	if n.Text != "" {
		fmt.Fprintf(b, "%s  %s\n", indent, n.Text)
	}
	for _, child := range n.Children {
		dumpNode(b, child, depth+1)
	}
	fmt.Fprintf(b, "%s</%s>\n", indent, tag)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "{null}"
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "{" + fmt.Sprint(value) + "}"
	}
	return "{" + string(data) + "}"
}

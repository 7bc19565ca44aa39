package react

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
)

var (
	attrNameRe = regexp.MustCompile(`^[A-Za-z_][\w:.-]*$`)
	segmentRe  = regexp.MustCompile(`[^.\[\]]+|\[\d+\]`)
)

var intrinsicAttrs = map[string]string{
	"class": "className",
	"for":   "htmlFor",
}

type printer struct {
	b        strings.Builder
	bindings bool
	// debounced holds one memoised handler declaration per debounced event.
	debounced []string
}

func (p *printer) node(n ir.Node, depth int) error {
	indent := strings.Repeat("  ", depth)

	tag := n.Tag
	var attrs []string
	if n.Kind == ir.KindMissing || tag == "" {
		tag = "div"
		attrs = append(attrs,
			"data-mir-missing={"+ir.Quote(n.Type)+"}",
			"data-mir-id={"+ir.Quote(n.ID)+"}",
		)
	}

	for _, prop := range n.Props {
		name := prop.Name
		if n.Intrinsic {
			if mapped, ok := intrinsicAttrs[name]; ok {
				name = mapped
			}
		}
		if !attrNameRe.MatchString(name) {
			return fmt.Errorf("react: node %q: invalid prop name %q", n.ID, prop.Name)
		}
		attrs = append(attrs, name+"={"+prop.Value.Code+"}")
	}

	for _, res := range n.Resources {
		if !attrNameRe.MatchString(res.Name) {
			return fmt.Errorf("react: node %q: invalid resource name %q", n.ID, res.Name)
		}
		attrs = append(attrs, res.Name+"={"+ir.Quote(resourceURL(res))+"}")
	}

	if len(n.Style) > 0 {
		entries := make([]string, 0, len(n.Style))
		for _, style := range n.Style {
			key := StyleKey(style.Name)
			if !ir.ValidIdentifier(key) {
				key = ir.Quote(key)
			}
			entries = append(entries, key+": "+style.Value.Code)
		}
		attrs = append(attrs, n.StyleProp+"={{ "+strings.Join(entries, ", ")+" }}")
	}

	for _, event := range n.Events {
		attrs = append(attrs, EventProp(event.Name)+"={"+p.handler(event)+"}")
	}

	if n.Binding != nil {
		p.bindings = true
		prop, source := "value", "event.target.value"
		if strings.EqualFold(n.Binding.ValueType, "boolean") {
			prop, source = "checked", "event.target.checked"
		}
		attrs = append(attrs,
			prop+"={"+n.Binding.Read.Code+"}",
			"onChange={(event) => setState("+pathSegments(n.Binding.Path)+", "+source+")}",
		)
	}

	open := "<" + tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	if n.Text == nil && len(n.Children) == 0 {
		p.line(indent, open+" />")
		return nil
	}
	p.line(indent, open+">")
	if n.Text != nil {
		p.line(indent+"  ", "{"+n.Text.Code+"}")
	}
	for _, child := range n.Children {
		if err := p.node(child, depth+1); err != nil {
			return err
		}
	}
	p.line(indent, "</"+tag+">")
	return nil
}

func (p *printer) handler(event ir.Event) string {
	target := "actions." + event.Handler
	if event.Payload == nil && !event.PreventDefault && event.Debounce == 0 {
		return target
	}

	arg := "event"
	if event.Payload != nil {
		arg = event.Payload.Code
	}
	call := target + "?.(" + arg + ")"
	if event.Debounce > 0 {
		name := "debounced" + strconv.Itoa(len(p.debounced))
		p.debounced = append(p.debounced, fmt.Sprintf(
			"const %s = useMemo(() => debounce((event) => actionsRef.current.%s?.(%s), %d), []);",
			name, event.Handler, arg, event.Debounce,
		))
		if !event.PreventDefault {
			return name
		}
		call = name + "(event)"
	}

	var body []string
	if event.PreventDefault {
		body = append(body, "event.preventDefault();")
	}
	body = append(body, call+";")
	return "(event) => { " + strings.Join(body, " ") + " }"
}

// hooks returns the component-scope declarations the printed body relies on.
func (p *printer) hooks() []string {
	if len(p.debounced) == 0 {
		return nil
	}
	lines := []string{
		"const actionsRef = useRef(actions);",
		"actionsRef.current = actions;",
	}
	return append(lines, p.debounced...)
}

// pathSegments renders a state path as the key list setState walks
// ("user.tags[0]" becomes ["user", "tags", 0]).
func pathSegments(path string) string {
	parts := segmentRe.FindAllString(path, -1)
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.HasPrefix(part, "[") {
			keys = append(keys, strings.Trim(part, "[]"))
			continue
		}
		keys = append(keys, ir.Quote(part))
	}
	return "[" + strings.Join(keys, ", ") + "]"
}

func (p *printer) line(indent, text string) {
	p.b.WriteString(indent)
	p.b.WriteString(text)
	p.b.WriteByte('\n')
}

func resourceURL(res ir.Resource) string {
	if res.Kind != "inline" {
		return res.URL
	}
	mime := res.MimeType
	if mime == "" {
		mime = "text/plain"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(res.Content))
}

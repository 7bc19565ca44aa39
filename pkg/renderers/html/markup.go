package html

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/goliatone/go-mirgen/pkg/codegen/ir"
)

var attrNameRe = regexp.MustCompile(`^[A-Za-z_][\w:.-]*$`)

var voidElements = map[string]struct{}{
	"area": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

type attr struct {
	name  string
	value string
	bare  bool
}

type printer struct {
	b     strings.Builder
	state map[string]any
	vars  []ir.Prop
}

func newPrinter(module *ir.Module) *printer {
	state := make(map[string]any, len(module.State))
	for _, decl := range module.State {
		state[decl.Name] = decl.Initial.Value
	}
	return &printer{state: state, vars: module.CSSVars}
}

// eval returns the static value of expr. State reads resolve against initial
// values; params and data are unknown until runtime.
func (p *printer) eval(expr ir.Expr) (any, bool) {
	switch expr.Kind {
	case ir.ExprLiteral:
		return expr.Value, true
	case ir.ExprState:
		var current any = p.state
		for _, segment := range strings.Split(expr.Path, ".") {
			obj, ok := current.(map[string]any)
			if !ok || strings.Contains(segment, "[") {
				return nil, false
			}
			if current, ok = obj[segment]; !ok {
				return nil, false
			}
		}
		return current, true
	}
	return nil, false
}

func (p *printer) node(n ir.Node, depth int, root bool) error {
	indent := strings.Repeat("  ", depth)

	tag := n.Tag
	var attrs []attr
	switch {
	case n.Kind == ir.KindMissing || tag == "":
		tag = "div"
		attrs = append(attrs, attr{name: "data-mir-missing", value: n.Type})
	case !n.Intrinsic:
		tag = "div"
		attrs = append(attrs, attr{name: "data-mir-component", value: n.Tag})
		if n.Import != "" {
			attrs = append(attrs, attr{name: "data-mir-import", value: n.Import})
		}
	}
	if n.ID != "" {
		attrs = append(attrs, attr{name: "data-mir-id", value: n.ID})
	}

	for _, prop := range n.Props {
		if !attrNameRe.MatchString(prop.Name) {
			return fmt.Errorf("html: node %q: invalid prop name %q", n.ID, prop.Name)
		}
		value, ok := p.eval(prop.Value)
		if !ok {
			attrs = append(attrs, attr{name: "data-mir-bind-" + prop.Name, value: prop.Value.Code})
			continue
		}
		switch v := value.(type) {
		case nil:
		case bool:
			if v {
				attrs = append(attrs, attr{name: prop.Name, bare: true})
			}
		default:
			attrs = append(attrs, attr{name: prop.Name, value: display(v)})
		}
	}

	var inline []string
	for _, res := range n.Resources {
		if res.Kind == "inline" && isMarkup(res.MimeType) {
			if cleaned := sanitizeMarkup(res.MimeType, res.Content); cleaned != "" {
				inline = append(inline, cleaned)
			}
			continue
		}
		if !attrNameRe.MatchString(res.Name) {
			return fmt.Errorf("html: node %q: invalid resource name %q", n.ID, res.Name)
		}
		attrs = append(attrs, attr{name: res.Name, value: resourceURL(res)})
	}

	if style := p.style(n, root); style != "" {
		attrs = append(attrs, attr{name: "style", value: style})
	}

	for _, event := range n.Events {
		attrs = append(attrs, attr{name: "data-mir-on-" + strings.ToLower(event.Name), value: event.Handler})
	}

	if n.Binding != nil {
		attrs = append(attrs, attr{name: "data-mir-bind", value: n.Binding.Path})
		if value, ok := p.eval(n.Binding.Read); ok {
			if checked, isBool := value.(bool); isBool {
				if checked {
					attrs = append(attrs, attr{name: "checked", bare: true})
				}
			} else if value != nil {
				attrs = append(attrs, attr{name: "value", value: display(value)})
			}
		}
	}

	open := "<" + tag + formatAttrs(attrs) + ">"
	if _, void := voidElements[tag]; void {
		p.line(indent, open)
		return nil
	}

	text, hasText := p.text(n.Text)
	if !hasText && len(inline) == 0 && len(n.Children) == 0 {
		p.line(indent, open+"</"+tag+">")
		return nil
	}
	if hasText && len(inline) == 0 && len(n.Children) == 0 {
		p.line(indent, open+text+"</"+tag+">")
		return nil
	}

	p.line(indent, open)
	for _, markup := range inline {
		p.line(indent+"  ", markup)
	}
	if hasText {
		p.line(indent+"  ", text)
	}
	for _, child := range n.Children {
		if err := p.node(child, depth+1, false); err != nil {
			return err
		}
	}
	p.line(indent, "</"+tag+">")
	return nil
}

func (p *printer) text(expr *ir.Expr) (string, bool) {
	if expr == nil {
		return "", false
	}
	value, ok := p.eval(*expr)
	if !ok {
		return `<span data-mir-text="` + html.EscapeString(expr.Code) + `"></span>`, true
	}
	return html.EscapeString(display(value)), true
}

func (p *printer) style(n ir.Node, root bool) string {
	var decls []string
	if root {
		for _, v := range p.vars {
			if value, ok := p.eval(v.Value); ok {
				decls = append(decls, v.Name+": "+display(value))
			}
		}
	}
	for _, entry := range n.Style {
		if value, ok := p.eval(entry.Value); ok && value != nil {
			decls = append(decls, entry.Name+": "+display(value))
		}
	}
	return strings.Join(decls, "; ")
}

func (p *printer) line(indent, text string) {
	p.b.WriteString(indent)
	p.b.WriteString(text)
	p.b.WriteByte('\n')
}

func formatAttrs(attrs []attr) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.bare {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.value))
		b.WriteByte('"')
	}
	return b.String()
}

func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	code, err := ir.LiteralCode(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return code
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

package enrich

import (
	"regexp"
	"slices"
	"strings"
)

const literal = `(?:'[^'\n]*'|"[^"\n]*")`

var (
	unionPattern = `\|?\s*` + literal + `(?:\s*\|\s*` + literal + `)*`

	propRe = regexp.MustCompile(`(?m)^\s*(?:readonly\s+)?['"]?([A-Za-z_$][\w$-]*)['"]?\??\s*:\s*(` + unionPattern + `|[A-Za-z_$][\w$.]*)\s*[;,]?\s*(?://.*)?$`)

	aliasRe = regexp.MustCompile(`(?m)(?:export\s+)?(?:declare\s+)?type\s+([A-Za-z_$][\w$]*)\s*=\s*(` + unionPattern + `)\s*;?`)

	literalRe = regexp.MustCompile(`'([^'\n]*)'|"([^"\n]*)"`)
)

// ParseLiteralUnions extracts string literal unions per prop from a type
// declaration source. When a "<component>Props" interface or type literal
// is present only its body is scanned. Props typed by a local alias of a
// literal union resolve through the alias. Non-literal props are ignored.
func ParseLiteralUnions(source, component string) map[string][]string {
	aliases := make(map[string][]string)
	for _, match := range aliasRe.FindAllStringSubmatch(source, -1) {
		if choices := literals(match[2]); len(choices) > 0 {
			aliases[match[1]] = choices
		}
	}

	body := propsBody(source, component)
	out := make(map[string][]string)
	for _, match := range propRe.FindAllStringSubmatch(body, -1) {
		prop, typ := match[1], strings.TrimSpace(match[2])
		var choices []string
		if strings.ContainsAny(typ, `'"`) {
			choices = literals(typ)
		} else {
			choices = aliases[typ]
		}
		if len(choices) == 0 {
			continue
		}
		out[prop] = mergeChoices(out[prop], choices)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func literals(union string) []string {
	var out []string
	for _, match := range literalRe.FindAllStringSubmatch(union, -1) {
		value := match[1]
		if value == "" {
			value = match[2]
		}
		if !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}

// propsBody returns the brace-delimited body of "<component>Props", or the
// whole source when no such declaration exists.
func propsBody(source, component string) string {
	if component == "" {
		return source
	}
	re := regexp.MustCompile(`(?:interface\s+` + regexp.QuoteMeta(component) + `Props\b[^{]*|type\s+` + regexp.QuoteMeta(component) + `Props\s*=\s*[^{]*)\{`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return source
	}
	depth := 0
	for idx := loc[1] - 1; idx < len(source); idx++ {
		switch source[idx] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[loc[1]:idx]
			}
		}
	}
	return source[loc[1]:]
}

// MergeOptions adds discovered choices to existing ones without removing or
// reordering anything already present.
func MergeOptions(existing, discovered map[string][]string) map[string][]string {
	if len(discovered) == 0 {
		return existing
	}
	out := make(map[string][]string, len(existing)+len(discovered))
	for prop, choices := range existing {
		out[prop] = slices.Clone(choices)
	}
	for prop, choices := range discovered {
		out[prop] = mergeChoices(out[prop], choices)
	}
	return out
}

func mergeChoices(existing, extra []string) []string {
	out := existing
	for _, choice := range extra {
		if !slices.Contains(out, choice) {
			out = append(out, choice)
		}
	}
	return out
}

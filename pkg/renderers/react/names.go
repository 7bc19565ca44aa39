package react

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// ComponentName converts a module name into a PascalCase component
// identifier ("landing page" becomes "LandingPage").
func ComponentName(name string) string {
	words := splitWords(name)
	var b strings.Builder
	for _, word := range words {
		b.WriteString(titleCaser.String(word))
	}
	out := b.String()
	if out == "" {
		return "MirView"
	}
	if first := []rune(out)[0]; unicode.IsDigit(first) {
		out = "View" + out
	}
	return out
}

// EventProp maps a document event name onto a React handler prop
// ("click" becomes "onClick", "mouse-enter" becomes "onMouseEnter").
func EventProp(event string) string {
	if len(event) > 2 && strings.HasPrefix(event, "on") && unicode.IsUpper(rune(event[2])) {
		return event
	}
	var b strings.Builder
	b.WriteString("on")
	for _, word := range splitWords(event) {
		b.WriteString(titleCaser.String(word))
	}
	return b.String()
}

// StyleKey maps a CSS property name onto the React style object key. Custom
// properties keep their name.
func StyleKey(name string) string {
	if strings.HasPrefix(name, "--") || !strings.Contains(name, "-") {
		return name
	}
	parts := strings.Split(name, "-")
	var b strings.Builder
	for idx, part := range parts {
		if part == "" {
			continue
		}
		if idx == 0 || b.Len() == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(titleCaser.String(part))
	}
	return b.String()
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

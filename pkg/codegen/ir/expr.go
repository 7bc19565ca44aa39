package ir

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

var (
	identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	pathRe  = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*|\[\d+\])*$`)
)

// ValidIdentifier reports whether name is a plain JavaScript identifier.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// ValidPath reports whether path is a dotted property path with optional
// numeric indexes ("user.tags[0]").
func ValidPath(path string) bool {
	return pathRe.MatchString(path)
}

// Literal returns the expression for a literal value.
func Literal(value any) (Expr, error) {
	code, err := LiteralCode(value)
	if err != nil {
		return Expr{}, err
	}
	return Expr{Kind: ExprLiteral, Code: code, Value: value}, nil
}

// Ref returns a read expression against the accessor for kind. The path is
// validated so references can never inject code.
func Ref(kind ExprKind, path string) (Expr, error) {
	path = strings.TrimSpace(path)
	var accessor string
	switch kind {
	case ExprState:
		accessor = StateAccessor
	case ExprParam:
		accessor = ParamAccessor
	case ExprData:
		accessor = DataAccessor
	default:
		return Expr{}, fmt.Errorf("ir: unsupported reference kind %q", kind)
	}
	if !ValidPath(path) {
		return Expr{}, fmt.Errorf("ir: invalid %s reference %q", kind, path)
	}
	return Expr{Kind: kind, Code: accessor + "." + path, Path: path}, nil
}

// LiteralCode renders value as a JavaScript literal. Strings are quoted,
// numbers use the shortest round-tripping form, and composite values are
// encoded as JSON.
func LiteralCode(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return Quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return formatNumber(v)
	case float32:
		return formatNumber(float64(v))
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("ir: encode literal: %w", err)
	}
	return string(data), nil
}

func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("ir: non-finite number %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// Quote returns s as a double-quoted JavaScript string literal. Content is
// escaped for the string grammar only; markup characters are left intact.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for idx := 0; idx < len(s); {
		r, size := utf8.DecodeRuneInString(s[idx:])
		idx += size
		switch {
		case r == utf8.RuneError && size == 1:
			b.WriteString(`\uFFFD`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20, r == 0x7f, r == '\u2028', r == '\u2029':
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

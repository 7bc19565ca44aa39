package ir

import (
	"testing"
)

func TestQuote(t *testing.T) {
	cases := map[string]string{
		"Hello":             `"Hello"`,
		`say "hi"`:          `"say \"hi\""`,
		"line\nbreak":       `"line\nbreak"`,
		`back\slash`:        `"back\\slash"`,
		"<b>&amp;</b>":      `"<b>&amp;</b>"`,
		"state.count":       `"state.count"`,
		"sep\u2028x":       `"sep\u2028x"`,
		"bell\x07":          `"bell\u0007"`,
	}
	for in, want := range cases {
		if got := Quote(in); got != want {
			t.Fatalf("Quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLiteralCode(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, "null"},
		{true, "true"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{42, "42"},
		{[]any{"a", float64(1)}, `["a",1]`},
		{map[string]any{"b": float64(2), "a": "x"}, `{"a":"x","b":2}`},
	}
	for _, tc := range cases {
		got, err := LiteralCode(tc.value)
		if err != nil {
			t.Fatalf("LiteralCode(%v): %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("LiteralCode(%v) = %s, want %s", tc.value, got, tc.want)
		}
	}
}

func TestRef(t *testing.T) {
	expr, err := Ref(ExprState, "user.tags[0]")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if expr.Code != "state.user.tags[0]" || expr.Path != "user.tags[0]" {
		t.Fatalf("unexpected expr %+v", expr)
	}
	if param, _ := Ref(ExprParam, "title"); param.Code != "params.title" {
		t.Fatalf("unexpected param expr %+v", param)
	}
	if data, _ := Ref(ExprData, "items"); data.Code != "data.items" {
		t.Fatalf("unexpected data expr %+v", data)
	}

	for _, bad := range []string{"", "a b", "x;alert(1)", "1abc", "a..b", "a[b]"} {
		if _, err := Ref(ExprState, bad); err == nil {
			t.Fatalf("expected invalid path error for %q", bad)
		}
	}
	if _, err := Ref(ExprLiteral, "x"); err == nil {
		t.Fatalf("literal is not a reference kind")
	}
}

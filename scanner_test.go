// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/creachadair/jbind"
	"github.com/google/go-cmp/cmp"
)

// scanAll returns all the tokens of input up to but not including End.
func scanAll(t *testing.T, lex *jbind.Lexer) []jbind.Token {
	t.Helper()
	var out []jbind.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		} else if tok.Kind == jbind.End {
			return out
		}
		out = append(out, tok)
	}
}

func kinds(toks []jbind.Token) []jbind.Kind {
	var out []jbind.Kind
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexer(t *testing.T) {
	const (
		lb = jbind.LBrace
		rb = jbind.RBrace
		ls = jbind.LSquare
		rs = jbind.RSquare
		cm = jbind.Comma
		cn = jbind.Colon
		vv = jbind.Value
	)
	tests := []struct {
		input string
		want  []jbind.Kind
	}{
		// Empty inputs
		{"", nil},
		{"  ", nil},
		{"\n\n  \n", nil},
		{"\t  \r\n \t  \r\n", nil},

		// Constants
		{"true false null", []jbind.Kind{vv, vv, vv}},

		// Punctuation
		{"{ [ ] } , :", []jbind.Kind{lb, ls, rs, rb, cm, cn}},

		// Strings
		{`"" "a b c" "a\nb\tc"`, []jbind.Kind{vv, vv, vv}},
		{`"\"\\\/\b\f\n\r\t"`, []jbind.Kind{vv}},
		{`"\u0000\u01fc\uAA9c"`, []jbind.Kind{vv}},

		// Numbers
		{`0 -1 5139 2.3 5e+9 3.6E+4 -0.001E-100`, []jbind.Kind{vv, vv, vv, vv, vv, vv, vv}},

		// Mixed types
		{`{true,"false":-15 null[]}`, []jbind.Kind{lb, vv, cm, vv, cn, vv, vv, ls, rs, rb}},
		{`{"a": true, "b":[null, 1, 0.5]}`, []jbind.Kind{
			lb, vv, cn, vv, cm, vv, cn, ls, vv, cm, vv, cm, vv, rs, rb,
		}},
		{`"a",1,true
       false["b"]
       `, []jbind.Kind{vv, cm, vv, cm, vv, vv, ls, vv, rs}},
	}

	for _, test := range tests {
		got := kinds(scanAll(t, jbind.NewLexer(strings.NewReader(test.input))))
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Input: %#q\nTokens: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestLexerValues(t *testing.T) {
	big20, _ := new(big.Int).SetString("99999999999999999999", 10)
	tests := []struct {
		input string
		want  any
	}{
		{`0`, int32(0)},
		{`-15`, int32(-15)},
		{`2147483647`, int32(2147483647)},
		{`-2147483648`, int32(-2147483648)},
		{`2147483648`, int64(2147483648)},
		{`-9223372036854775808`, int64(-9223372036854775808)},
		{`99999999999999999999`, big20},
		{`3.25e-5`, 3.25e-5},
		{`1.5`, 1.5},
		{`5E+3`, 5000.0},
		{`true`, true},
		{`FALSE`, false},
		{`True`, true},
		{`null`, nil},
		{`""`, ""},
		{`"a\tb c\n"`, "a\tb c\n"},
		{`"\ud83d\ude00"`, "\U0001f600"},
		{`"café"`, "café"},
		{`"\/"`, "/"},
	}
	for _, test := range tests {
		tok, err := jbind.NewLexer(strings.NewReader(test.input)).Next()
		if err != nil {
			t.Errorf("Next %#q: unexpected error: %v", test.input, err)
			continue
		}
		if tok.Kind != jbind.Value {
			t.Errorf("Next %#q: got kind %v, want value", test.input, tok.Kind)
		}
		if diff := cmp.Diff(test.want, tok.Value, cmp.Comparer(func(a, b *big.Int) bool {
			return a.Cmp(b) == 0
		})); diff != "" {
			t.Errorf("Next %#q: value (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{`"abc`, jbind.ErrUnterminatedString},
		{`"abc\"`, jbind.ErrUnterminatedString},
		{`@`, jbind.ErrUnexpectedCharacter},
		{`tru`, jbind.ErrUnexpectedCharacter},
		{`NULL`, jbind.ErrUnexpectedCharacter},
		{`1.5.2`, jbind.ErrUnexpectedCharacter},
		{`+1`, jbind.ErrUnexpectedCharacter},
		{`1.`, jbind.ErrUnexpectedCharacter},
		{`"a\qb"`, jbind.ErrUnexpectedCharacter},
		{`"\u12g4"`, jbind.ErrUnexpectedCharacter},
		{"\"a\x01b\"", jbind.ErrUnexpectedCharacter},
		{`{a: 1}`, jbind.ErrUnexpectedCharacter},
		{`1.5e400`, jbind.ErrNumberRange},
		{`[-2E999]`, jbind.ErrNumberRange},
	}
	for _, test := range tests {
		lex := jbind.NewLexer(strings.NewReader(test.input))
		var err error
		for err == nil {
			var tok jbind.Token
			tok, err = lex.Next()
			if err == nil && tok.Kind == jbind.End {
				break
			}
		}
		var le *jbind.LexError
		if !errors.As(err, &le) {
			t.Errorf("Input %#q: got error %v, want *LexError", test.input, err)
			continue
		}
		if !errors.Is(err, test.want) {
			t.Errorf("Input %#q: got error %v, want %v", test.input, err, test.want)
		}
		t.Logf("Input %#q: got expected error: %v", test.input, err)
	}
}

func TestLexerLenient(t *testing.T) {
	lex := jbind.NewLexer(strings.NewReader(`{a: 1, $b_2: [x], "c": {d: true}}`))
	lex.Lenient(true)

	var got []any
	for {
		tok, err := lex.Next()
		if err != nil {
			// The bare x inside the array is not a key.
			if !errors.Is(err, jbind.ErrUnexpectedCharacter) {
				t.Fatalf("Next: unexpected error: %v", err)
			}
			break
		} else if tok.Kind == jbind.End {
			t.Fatal("Next: reached end of input without an error")
		}
		if tok.Kind == jbind.Value {
			got = append(got, tok.Value)
		}
	}
	if diff := cmp.Diff([]any{"a", int32(1), "$b_2"}, got); diff != "" {
		t.Errorf("Values (-want, +got):\n%s", diff)
	}

	lex = jbind.NewLexer(strings.NewReader(`{a: 1, b: [2, 3], c: {d: [{e: null}]}}`))
	lex.Lenient(true)
	var keys []any
	for _, tok := range scanAll(t, lex) {
		if s, ok := tok.Value.(string); ok {
			keys = append(keys, s)
		}
	}
	if diff := cmp.Diff([]any{"a", "b", "c", "d", "e"}, keys); diff != "" {
		t.Errorf("Keys (-want, +got):\n%s", diff)
	}
}

func TestLexerPeek(t *testing.T) {
	lex := jbind.NewLexer(strings.NewReader(`[1, "x"]`))
	p1, err := lex.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	p2, _ := lex.Peek()
	n1, _ := lex.Next()
	if p1 != n1 || p2 != n1 {
		t.Errorf("Peek/Next: got %v, %v, %v; want all equal", p1, p2, n1)
	}
	rest := kinds(scanAll(t, lex))
	if diff := cmp.Diff([]jbind.Kind{jbind.Value, jbind.Comma, jbind.Value, jbind.RSquare}, rest); diff != "" {
		t.Errorf("Remaining (-want, +got):\n%s", diff)
	}
	for range 3 {
		if tok, err := lex.Next(); err != nil || tok.Kind != jbind.End {
			t.Errorf("Next at end: got %v, %v; want end of input", tok, err)
		}
	}
}

func TestTokenPosition(t *testing.T) {
	type tokPos struct {
		Kind jbind.Kind
		Pos  int
		Line int
	}
	tests := []struct {
		input string
		want  []tokPos
	}{
		{"{ }", []tokPos{{jbind.LBrace, 0, 1}, {jbind.RBrace, 2, 1}}},
		{"\ntrue\n false\n", []tokPos{{jbind.Value, 1, 2}, {jbind.Value, 7, 3}}},
		{"[1,\n \"é\",\n2]", []tokPos{
			{jbind.LSquare, 0, 1}, {jbind.Value, 1, 1}, {jbind.Comma, 2, 1},
			{jbind.Value, 5, 2}, {jbind.Comma, 9, 2}, {jbind.Value, 11, 3}, {jbind.RSquare, 12, 3},
		}},
	}
	for _, tc := range tests {
		var got []tokPos
		for _, tok := range scanAll(t, jbind.NewLexer(strings.NewReader(tc.input))) {
			got = append(got, tokPos{tok.Kind, tok.Pos, tok.Line})
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Input: %#q\nPositions: (-want, +got)\n%s", tc.input, diff)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", `""`},
		{" ", `" "`},
		{"a\t\nb", `"a\t\nb"`},
		{"\x00\x01\x02", `"\u0000\u0001\u0002"`},
		{`a "b c\" d"`, `"a \"b c\\\" d\""`},
		{`\ufffd`, `"\\ufffd"`},
		{"\u2028 \u2029 \ufffd", `"\u2028 \u2029 �"`},
		{"This is the end\v", `"This is the end\u000b"`},
		{"<\x1e>", `"<\u001e>"`},
		{"\x7f\u0085", `"\u007f\u0085"`},
		{"café \u2014 ok", `"café \u2014 ok"`},
	}
	for _, test := range tests {
		got := jbind.Quote(test.input)
		if got != test.want {
			t.Errorf("Input: %#q\nGot:  %#q\nWant: %#q", test.input, got, test.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
		fail  bool
	}{
		{``, ``, true},                        // missing quotes
		{`"missing quote`, ``, true},          // missing quotes
		{`missing quote"`, ``, true},          // missing quotes
		{`""`, ``, false},                     // ok
		{`"ok go"`, "ok go", false},           // ok
		{`"abc\ndef"`, "abc\ndef", false},     // C escapes
		{`"\tabc\n"`, "\tabc\n", false},       // C escapes
		{`"\b\f\n\r\t"`, "\b\f\n\r\t", false}, // C escapes
		{`"a \u0026 b"`, "a & b", false},      // short Unicode escape
		{`"\u"`, ``, true},                    // incomplete Unicode escape
		{`"\u00"`, ``, true},                  // incomplete Unicode escape
		{`"\u00x9"`, "\ufffd", false},         // invalid Unicode escape
		{`"\u019 "`, "\ufffd", false},         // invalid Unicode escape
		{`"a\"b"`, `a"b`, false},              // ok
		{`"a\\b\\cd"`, `a\b\cd`, false},       // ok
		{`"\ud83d\ude00!"`, "\U0001f600!", false}, // surrogate pair
		{`"\ud83d!"`, "\ufffd!", false},        // unpaired surrogate
	}

	for _, test := range tests {
		got, err := jbind.Unquote(test.input)
		if err != nil {
			if !test.fail {
				t.Errorf("Unquote(%#q): got %v, want no error", test.input, err)
			} else {
				t.Logf("Unquote(%#q): got expected error: %v", test.input, err)
			}
		} else if test.fail {
			t.Errorf("Unquote(%#q): got nil, want error", test.input)
		}
		if got != test.want {
			t.Errorf("Unquote(%#q): got %#q, want %#q", test.input, got, test.want)
		}
	}
}

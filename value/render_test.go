// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package value_test

import (
	"bytes"
	"math"
	"math/big"
	"testing"

	"github.com/creachadair/jbind/internal/testutil"
	"github.com/creachadair/jbind/value"
	jcs "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

func TestFormatter(t *testing.T) {
	v := testutil.MustParse(t, `{"b": [1, 2.5, {"c": null}], "a": "x\ty", "e": {}, "d": []}`)
	tests := []struct {
		name string
		f    value.Formatter
		want string
	}{
		{"Compact", value.Formatter{}, `{"b":[1,2.5,{"c":null}],"a":"x\ty","e":{},"d":[]}`},
		{"Pretty", value.Formatter{Pretty: true}, `{
  "b": [1, 2.5, {
    "c": null
  }],
  "a": "x\ty",
  "e": {},
  "d": []
}`},
		{"Canonical", value.Formatter{Canonical: true}, `{"a":"x\ty","b":[1,2.5E0,{"c":null}],"d":[],"e":{}}`},
		{"CanonicalPretty", value.Formatter{Pretty: true, Canonical: true}, `{"a":"x\ty","b":[1,2.5E0,{"c":null}],"d":[],"e":{}}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.f.String(v); got != test.want {
				t.Errorf("String:\n got %s\nwant %s", got, test.want)
			}
			var buf bytes.Buffer
			if err := test.f.Format(&buf, v); err != nil {
				t.Fatalf("Format: unexpected error: %v", err)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("Format:\n got %s\nwant %s", got, test.want)
			}
		})
	}
}

func TestFloats(t *testing.T) {
	tests := []struct {
		input           float64
		compact, canon string
	}{
		{0, "0.0", "0.0E0"},
		{1.5, "1.5", "1.5E0"},
		{-3.25, "-3.25", "-3.25E0"},
		{1000, "1000.0", "1.0E3"},
		{0.0002, "0.0002", "2.0E-4"},
		{123456.789, "123456.789", "1.23457E5"},
		{1.5e-7, "1.5e-7", "1.5E-7"},
		{1e21, "1e+21", "1.0E21"},
		{math.NaN(), "null", "null"},
		{math.Inf(-1), "null", "null"},
	}
	for _, test := range tests {
		if got := value.JSON(test.input); got != test.compact {
			t.Errorf("JSON(%v): got %q, want %q", test.input, got, test.compact)
		}
		if got := value.Canonical(test.input); got != test.canon {
			t.Errorf("Canonical(%v): got %q, want %q", test.input, got, test.canon)
		}
	}
}

func TestNativeValues(t *testing.T) {
	big1, _ := new(big.Int).SetString("123456789012345678901", 10)
	var nilObj *value.Object
	tests := []struct {
		input any
		want  string
	}{
		{nil, "null"},
		{nilObj, "null"},
		{map[string]any{"b": 1, "a": []any{true, "s"}}, `{"a":[true,"s"],"b":1}`},
		{[]int{1, 2, 3}, `[1,2,3]`},
		{[2]bool{true, false}, `[true,false]`},
		{map[int]string{2: "b", 1: "a"}, `{"1":"a","2":"b"}`},
		{[]string(nil), "null"},
		{uint64(math.MaxUint64), "18446744073709551615"},
		{big1, "123456789012345678901"},
		{float32(0.5), "0.5"},
		{int8(-3), "-3"},
		{value.NewArray("x", nil, 1.5), `["x",null,1.5]`},
	}
	for _, test := range tests {
		if got := value.JSON(test.input); got != test.want {
			t.Errorf("JSON(%#v): got %s, want %s", test.input, got, test.want)
		}
	}
}

func TestAppendQuote(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{`a"b\c`, `"a\"b\\c"`},
		{"tab\there\n", `"tab\there\n"`},
		{"\x00\x1f", `"\u0000\u001f"`},
		{"caf\u00e9", "\"caf\u00e9\""},
		{"dash \u2014 here", `"dash \u2014 here"`},
		{"</script>", `"</script>"`},
	}
	for _, test := range tests {
		if got := string(value.AppendQuote(nil, test.input)); got != test.want {
			t.Errorf("AppendQuote(%q): got %s, want %s", test.input, got, test.want)
		}
	}
}

func TestCanonicalMatchesRFC8785(t *testing.T) {
	// These inputs avoid floating-point values, whose canonical form here
	// uses a fixed mantissa and exponent notation.
	tests := []string{
		`{"b":2,"a":1}`,
		`{"z":[3,2,1],"y":{"d":null,"c":true,"b":false},"x":"text"}`,
		`[{"id":100,"name":"n"},{"name":"m","id":-7}]`,
		`{"esc":"quote \" and backslash \\ and tab \t","empty":{},"list":[]}`,
		`{"10":"ten","1":"one","A":"upper","a":"lower","_":"under"}`,
		`{"big":9007199254740991,"neg":-9007199254740991}`,
	}
	for _, input := range tests {
		want, err := jcs.Transform([]byte(input))
		if err != nil {
			t.Fatalf("Transform %s: %v", input, err)
		}
		got := value.Canonical(testutil.MustParse(t, input))
		if got != string(want) {
			t.Errorf("Canonical %s:\n got %s\nwant %s", input, got, want)
		}
	}
}

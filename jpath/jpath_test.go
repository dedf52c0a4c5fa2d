package jpath_test

import (
	"testing"

	"github.com/creachadair/jbind/jpath"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
	}{
		{"$.store.book[*]..author"},
		{"$..author"},
		{"$.store.*"},
		{"$.store..price"},
		{"$..book[2]"},
		{"$..book[(@.length-1)]"},
		{"$..book[-1:]"},
		{"$..book[0,1]"},
		{"$..book[:2]"},
		{"$..book[?(@.isbn)]"},
		{"$..book[?(@price<10)]"},
		{"$..*"},
		{"$['apple sauce'].pearPlum..'cherry apple'"},
		{"$[a][1:3][b]['c d e']"},
	}
	for _, test := range tests {
		e, err := jpath.Parse(test.input)
		if err != nil {
			t.Errorf("Parse %q: %v", test.input, err)
			continue
		}

		want := test.input
		if got := e.String(); got != want {
			t.Errorf("Parse %q:\n got %q\nwant %q", test.input, got, want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		"",
		"a.b",
		"$.",
		"$[1",
		"$..book[?(@.isbn)]",
		"$..book[(@.length-1)]",
		"$..book[-1:]",
		"$.a[-2]",
	}
	for _, input := range tests {
		if e, err := jpath.Compile(input); err == nil {
			t.Errorf("Compile %q: got %v, want error", input, e)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		expr, path string
		want       bool
	}{
		{"$", "$", true},
		{"$", "$.a", false},
		{"$.a.b", "$.a.b", true},
		{"$.a.b", "$.a", false},
		{"$.a.b", "$.a.b.c", false},
		{"$.a.b", "$.a[0].b", false},
		{"$.a[0].b", "$.a[0].b", true},
		{"$.a[0].b", "$.a[1].b", false},
		{"$.items[*].id", "$.items[3].id", true},
		{"$.items[*].id", "$.items[3].name", false},
		{"$.a.*", "$.a.x", true},
		{"$.a.*", "$.a[4]", true},
		{"$..id", "$.id", true},
		{"$..id", "$.a[0].b.id", true},
		{"$..id", "$.a[0].idx", false},
		{"$..b.c", "$.a.b.c", true},
		{"$..b.c", "$.a.b.d.c", false},
		{"$..*", "$.anything[1]", true},
		{"$.a[1,2]", "$.a[2]", true},
		{"$.a[1,2]", "$.a[0]", false},
		{"$.a[1:3]", "$.a[1]", true},
		{"$.a[1:3]", "$.a[3]", false},
		{"$.a[2:]", "$.a[50]", true},
		{"$.a[:2]", "$.a[2]", false},
		{"$.a[1:3]", "$.a.b", false},
		{"$['b c']", "$.b c", true},
		{"$[b]", "$.b", true},
		{"$.a", "a", false},
		{"$.a[0]", "$.a[x]", false},
	}
	for _, test := range tests {
		e, err := jpath.Compile(test.expr)
		if err != nil {
			t.Errorf("Compile %q: %v", test.expr, err)
			continue
		}
		if got := e.Match(test.path); got != test.want {
			t.Errorf("Match(%q, %q): got %v, want %v", test.expr, test.path, got, test.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path string
		want []jpath.Segment
	}{
		{"$", nil},
		{"$.a", []jpath.Segment{{Key: "a"}}},
		{"$.a[0].b", []jpath.Segment{{Key: "a"}, {Index: 0, IsIndex: true}, {Key: "b"}}},
		{"$[3][14]", []jpath.Segment{{Index: 3, IsIndex: true}, {Index: 14, IsIndex: true}}},
		{"$.x y.z", []jpath.Segment{{Key: "x y"}, {Key: "z"}}},
	}
	for _, test := range tests {
		got, err := jpath.Split(test.path)
		if err != nil {
			t.Errorf("Split %q: unexpected error: %v", test.path, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Split %q (-want, +got):\n%s", test.path, diff)
		}
	}

	for _, bad := range []string{"", "a.b", "$x", "$.a[1", "$.a[x]", "$[-1]"} {
		if segs, err := jpath.Split(bad); err == nil {
			t.Errorf("Split %q: got %v, want error", bad, segs)
		}
	}
}

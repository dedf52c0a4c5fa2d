// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"slices"
	"strings"
	"testing"

	"github.com/creachadair/jbind"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/scott-cotton/cli"
)

func TestToYAML(t *testing.T) {
	v, err := jbind.ParseString(`{"z": 1, "a": [true, null, "x"], "m": {"k": 2.5}, "big": 123456789012345678901}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := yaml.Marshal(toYAML(v))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Keys keep their input order.
	var keys []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" && line[0] != ' ' && line[0] != '-' {
			key, _, _ := strings.Cut(line, ":")
			keys = append(keys, key)
		}
	}
	if diff := cmp.Diff([]string{"z", "a", "m", "big"}, keys); diff != "" {
		t.Errorf("YAML keys (-want, +got):\n%s\n%s", diff, out)
	}
}

func TestWriteDiff(t *testing.T) {
	a := "{\n  \"a\": 1,\n  \"b\": 2\n}"
	b := "{\n  \"a\": 1,\n  \"b\": 3\n}"

	var buf bytes.Buffer
	plain := color.New(color.FgRed)
	plain.DisableColor()
	writeDiff(&buf, lineDiff(a, b), plain.SprintFunc(), plain.SprintFunc())

	want := []string{
		` {`,
		`   "a": 1,`,
		`-  "b": 2`,
		`+  "b": 3`,
		` }`,
	}
	if diff := cmp.Diff(want, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")); diff != "" {
		t.Errorf("Diff (-want, +got):\n%s", diff)
	}
}

// nopCloser adapts a buffer to the output of a cli.Context.
type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

// runMain runs the jbind command with args, and returns its output.
func runMain(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errs bytes.Buffer
	cc := &cli.Context{
		In:  io.NopCloser(strings.NewReader("")),
		Out: nopCloser{&out},
		Err: nopCloser{&errs},
		Go:  context.Background(),
	}
	err := MainCommand().Run(cc, args)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"FmtCompact", []string{"fmt", "testdata/a.json"},
			`{"name":"x","tags":[1,2],"n":{"ok":true}}` + "\n"},
		{"FmtCanonical", []string{"fmt", "-c", "testdata/a.json"},
			`{"n":{"ok":true},"name":"x","tags":[1,2]}` + "\n"},
		{"FmtPretty", []string{"f", "-p", "testdata/c.json"},
			"{\n  \"tags\": [1, 2],\n  \"n\": {\n    \"ok\": true\n  },\n  \"name\": \"x\"\n}\n"},
		{"FmtMany", []string{"fmt", "testdata/a.json", "testdata/b.json"},
			`{"name":"x","tags":[1,2],"n":{"ok":true}}` + "\n" + `{"name":"y","tags":[1,2],"n":{"ok":true}}` + "\n"},
		{"FmtLenient", []string{"-lenient", "fmt", "testdata/lenient.json"},
			`{"a":1,"b":[true]}` + "\n"},
		{"FmtComments", []string{"-comments", "fmt", "testdata/comments.json"},
			`{"a":1,"b":2}` + "\n"},

		{"GetPattern", []string{"get", "$.n.ok", "testdata/a.json"}, "$.n.ok\ttrue\n"},
		{"GetDescendant", []string{"get", "$..name", "testdata/a.json", "testdata/b.json"},
			"$.name\t\"x\"\n$.name\t\"y\"\n"},
		{"GetExpr", []string{"g", "-e", `key == "ok" && depth == 2`, "testdata/a.json"}, "$.n.ok\ttrue\n"},
		{"GetLookup", []string{"get", "n.ok", "testdata/c.json"}, "true\n"},
		{"GetLookupArray", []string{"get", "tags", "testdata/a.json"}, "[1,2]\n"},

		{"DiffSame", []string{"diff", "testdata/a.json", "testdata/a.json"}, ""},
		{"DiffSorted", []string{"d", "-s", "testdata/a.json", "testdata/c.json"}, ""},

		{"Check", []string{"check", "testdata/a.json", "testdata/c.json"},
			"testdata/a.json: ok\ntestdata/c.json: ok\n"},
		{"CheckQuiet", []string{"c", "-q", "testdata/a.json"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := runMain(t, tc.args...)
			if err != nil {
				t.Fatalf("Run %q: unexpected error: %v", tc.args, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Run %q output (-want, +got):\n%s", tc.args, diff)
			}
		})
	}
}

func TestDiffCommand(t *testing.T) {
	out, err := runMain(t, "diff", "testdata/a.json", "testdata/b.json")
	var xc cli.ExitCodeErr
	if !errors.As(err, &xc) || xc != 1 {
		t.Fatalf("Diff: got error %v, want exit 1", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for _, want := range []string{` {`, `-  "name": "x",`, `+  "name": "y",`, `   "tags": [1, 2],`, ` }`} {
		if !slices.Contains(lines, want) {
			t.Errorf("Diff output is missing %q:\n%s", want, out)
		}
	}

	// Without sorting, member order matters.
	if _, err := runMain(t, "diff", "testdata/a.json", "testdata/c.json"); !errors.As(err, &xc) || xc != 1 {
		t.Errorf("Diff unsorted: got error %v, want exit 1", err)
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := runMain(t, "check", "-q", "testdata/a.json", "testdata/bad.json", "testdata/lenient.json")
	var xc cli.ExitCodeErr
	if !errors.As(err, &xc) || xc != 1 {
		t.Fatalf("Check: got error %v, want exit 1", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Check: got %d lines, want 2:\n%s", len(lines), out)
	}
	for i, name := range []string{"testdata/bad.json: at line 1", "testdata/lenient.json: at line 1"} {
		if !strings.HasPrefix(lines[i], name) {
			t.Errorf("Line %d: got %q, want prefix %q", i+1, lines[i], name)
		}
	}

	// The same input is accepted with the matching option.
	if _, err := runMain(t, "-lenient", "check", "-q", "testdata/lenient.json"); err != nil {
		t.Errorf("Check lenient: unexpected error: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := [][]string{
		{"-lenient", "-comments", "fmt", "testdata/a.json"},
		{},
		{"nonesuch"},
	}
	for _, args := range tests {
		if _, err := runMain(t, args...); !errors.Is(err, cli.ErrUsage) {
			t.Errorf("Run %q: got error %v, want usage error", args, err)
		}
	}

	// Errors reading input are reported as such.
	if _, err := runMain(t, "fmt", "testdata/nonesuch.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Run: got error %v, want %v", err, fs.ErrNotExist)
	}
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package testutil defines support code for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/creachadair/jbind"
	json "github.com/goccy/go-json"
)

// InputPath is the path of the shared test input file.
var InputPath = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "input.json")
}()

// Input returns the contents of the shared test input file.
func Input(t testing.TB) []byte {
	t.Helper()
	data, err := os.ReadFile(InputPath)
	if err != nil {
		t.Fatalf("Reading test input: %v", err)
	}
	return data
}

// MustParse parses s as a single JSON value, or fails t.
func MustParse(t testing.TB, s string) any {
	t.Helper()
	v, err := jbind.ParseString(s)
	if err != nil {
		t.Fatalf("Parse %q: %v", s, err)
	}
	return v
}

// Native decodes data into native Go values with an independent decoder, for
// use as a reference.
func Native(t testing.TB, data []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return v
}

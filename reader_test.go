// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind_test

import (
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/value"
)

func TestReader(t *testing.T) {
	const input = `{
  "name": "x",
  "count": 3,
  "big": 123456789012345678901,
  "ok": true,
  "nil": null,
  "ratio": 0.5,
  "items": [{"a": 1}, {"a": 2}],
  "nested": [1, [2]]
}`
	r := jbind.NewReader(strings.NewReader(input))
	check := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	name := func(want string) {
		t.Helper()
		got, err := r.NextName()
		check(err)
		if got != want {
			t.Fatalf("NextName: got %q, want %q", got, want)
		}
	}

	check(r.BeginObject())
	name("name")
	if s, err := r.NextString(); err != nil || s != "x" {
		t.Errorf("NextString: got %q, %v", s, err)
	}
	name("count")
	if z, err := r.NextInt(); err != nil || z != 3 {
		t.Errorf("NextInt: got %d, %v", z, err)
	}
	name("big")
	want, _ := new(big.Int).SetString("123456789012345678901", 10)
	if z, err := r.NextBigInt(); err != nil || z.Cmp(want) != 0 {
		t.Errorf("NextBigInt: got %v, %v", z, err)
	}
	name("ok")
	if b, err := r.NextBool(); err != nil || !b {
		t.Errorf("NextBool: got %v, %v", b, err)
	}
	name("nil")
	check(r.NextNull())
	name("ratio")
	if f, err := r.NextFloat(); err != nil || f != 0.5 {
		t.Errorf("NextFloat: got %v, %v", f, err)
	}

	name("items")
	check(r.BeginArray())
	var items []string
	for r.HasNext() {
		obj, err := r.NextObject()
		check(err)
		items = append(items, value.JSON(obj))
	}
	check(r.Err())
	check(r.EndArray())
	if got, want := strings.Join(items, " "), `{"a":1} {"a":2}`; got != want {
		t.Errorf("Items: got %s, want %s", got, want)
	}

	name("nested")
	arr, err := r.NextArray()
	check(err)
	if got, want := value.JSON(arr), `[1,[2]]`; got != want {
		t.Errorf("NextArray: got %s, want %s", got, want)
	}
	if r.HasNext() {
		t.Error("HasNext: got true at end of object")
	}
	check(r.EndObject())
	if r.HasNext() {
		t.Error("HasNext: got true at end of input")
	}
	check(r.Err())
}

func TestReaderNextValue(t *testing.T) {
	r := jbind.NewReader(strings.NewReader(`[1, "two", {"three": 3}, [4]]`))
	if err := r.BeginArray(); err != nil {
		t.Fatalf("BeginArray: %v", err)
	}
	var got []string
	for {
		v, err := r.NextValue()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("NextValue: %v", err)
		}
		got = append(got, value.JSON(v))
	}
	if s, want := strings.Join(got, " "), `1 "two" {"three":3} [4]`; s != want {
		t.Errorf("Values: got %s, want %s", s, want)
	}
	if err := r.EndArray(); err != nil {
		t.Errorf("EndArray: %v", err)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		input string
		read  func(*jbind.Reader) error
	}{
		{`[]`, (*jbind.Reader).BeginObject},
		{`{}`, (*jbind.Reader).EndObject},
		{`1`, func(r *jbind.Reader) error { _, err := r.NextString(); return err }},
		{`"x"`, func(r *jbind.Reader) error { _, err := r.NextBool(); return err }},
		{`1.5`, func(r *jbind.Reader) error { _, err := r.NextInt(); return err }},
		{`123456789012345678901`, func(r *jbind.Reader) error { _, err := r.NextInt64(); return err }},
		{`true`, (*jbind.Reader).NextNull},
		{`"x"`, func(r *jbind.Reader) error { _, err := r.NextFloat(); return err }},
		{`[1]`, func(r *jbind.Reader) error { _, err := r.NextObject(); return err }},
		{`{}`, func(r *jbind.Reader) error { _, err := r.NextArray(); return err }},
		{`{1: 2}`, func(r *jbind.Reader) error {
			r.BeginObject()
			_, err := r.NextName()
			return err
		}},
		{`{"a" 2}`, func(r *jbind.Reader) error {
			r.BeginObject()
			_, err := r.NextName()
			return err
		}},
	}
	for _, test := range tests {
		r := jbind.NewReader(strings.NewReader(test.input))
		err := test.read(r)
		var pe *jbind.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Input %#q: got %v, want *ParseError", test.input, err)
		}
	}
}

func TestReaderMatch(t *testing.T) {
	r := jbind.NewReader(strings.NewReader(`[{"id": 1, "tag": "a"}, {"id": 2}]`))
	ps := jbind.NewPathSet("$.tag")
	r.Match(ps)
	if err := r.BeginArray(); err != nil {
		t.Fatalf("BeginArray: %v", err)
	}
	if _, err := r.NextObject(); err != nil {
		t.Fatalf("NextObject: %v", err)
	}
	if v, ok := ps.Lookup("$.tag"); !ok || v != "a" {
		t.Errorf("Lookup: got %v, %v; want a", v, ok)
	}
}

func TestReaderLenient(t *testing.T) {
	r := jbind.NewReader(strings.NewReader(`{key: "v"}`))
	r.Lenient(true)
	if err := r.BeginObject(); err != nil {
		t.Fatalf("BeginObject: %v", err)
	}
	if got, err := r.NextName(); err != nil || got != "key" {
		t.Errorf("NextName: got %q, %v", got, err)
	}
}

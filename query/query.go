// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package query implements structural queries over JSON values.
//
// A query describes a syntactic substructure of a JSON value tree, such as an
// object member, array element, or a path through the tree. Evaluating a query
// against a concrete JSON value traverses the structure described by the query
// and returns the resulting value.
//
// The simplest query is for a "path", a sequence of object keys and/or array
// indices that describes a path from the root of a JSON value. For example,
// given the JSON value:
//
//	[{"a": 1, "b": 2}, {"c": {"d": true}, "e": false}]
//
// the query
//
//	query.Path(1, "c", "d")
//
// yields the value true.
//
// Values are those of the value package: *value.Object, *value.Array, and
// scalars. Queries that construct arrays or objects return fresh containers
// whose elements are shared with the input.
package query

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/creachadair/jbind/value"
)

// Eval evaluates the given query beginning from root, returning the resulting
// value or an error.
func Eval(root any, q Query) (any, error) {
	return q.eval(root)
}

// A Query describes a traversal of a JSON value.
type Query interface {
	eval(any) (any, error)
}

// Path traverses a sequence of nested object keys or array indices from the
// root.  If no keys are specified, the root is returned. Each key must be a
// string, an int, or a Query.
func Path(keys ...any) Query {
	if len(keys) == 1 {
		return pathElem(keys[0])
	}
	pq := make(Seq, 0, len(keys))
	for _, key := range keys {
		q := pathElem(key)
		if sq, ok := q.(Seq); ok {
			pq = append(pq, sq...)
		} else {
			pq = append(pq, q)
		}
	}
	return pq
}

func pathElem(key any) Query {
	switch t := key.(type) {
	case string:
		return objKey(t)
	case int:
		return nthQuery(t)
	case Query:
		return t
	default:
		panic("invalid path element")
	}
}

// Key selects the value of the given key from an object.
func Key(key string) Query { return objKey(key) }

// Index selects the element at offset i of an array. A negative offset
// selects from the end of the array.
func Index(i int) Query { return nthQuery(i) }

type objKey string

func (o objKey) eval(v any) (any, error) {
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("got %s, want object", kind(v))
	}
	val, ok := obj.Get(string(o))
	if !ok {
		return nil, fmt.Errorf("key %q not found", o)
	}
	return val, nil
}

type nthQuery int

func (nq nthQuery) eval(v any) (any, error) {
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	idx := int(nq)
	if idx < 0 {
		idx += arr.Len()
	}
	if idx < 0 || idx >= arr.Len() {
		return nil, fmt.Errorf("index %d out of range (0..%d)", nq, arr.Len())
	}
	return arr.At(idx), nil
}

// Selection constructs an array of the elements of its input array, for which
// the specified function returns true.
type Selection func(any) bool

func (q Selection) eval(v any) (any, error) {
	a, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	out := value.NewArray()
	for _, elt := range a.All() {
		if q(elt) {
			out.Append(elt)
		}
	}
	return out, nil
}

// Mapping constructs an array in which each value is replaced by the result of
// calling the specified function on the corresponding input value.
type Mapping func(any) any

func (q Mapping) eval(v any) (any, error) {
	a, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	out := make([]any, a.Len())
	for i, elt := range a.All() {
		out[i] = q(elt)
	}
	return value.NewArray(out...), nil
}

// Slice selects a slice of an array from offsets lo to hi.  The range includes
// lo but excludes hi. Negative offsets select from the end of the array.
// If hi == 0, the length of the array is used.
func Slice(lo, hi int) Query { return sliceQuery{lo, hi} }

type sliceQuery struct{ lo, hi int }

func (q sliceQuery) eval(v any) (any, error) {
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	n := arr.Len()
	lox := q.lo
	if lox < 0 {
		lox += n
	}
	hix := q.hi
	if hix <= 0 {
		hix += n
	}
	if lox < 0 || lox >= n {
		return nil, fmt.Errorf("index %d out of range (0..%d)", q.lo, n)
	} else if hix < 0 || hix > n {
		return nil, fmt.Errorf("index %d out of range (0..%d)", q.hi, n)
	} else if lox > hix {
		return nil, fmt.Errorf("index start %d > end %d", q.lo, q.hi)
	}
	return value.NewArray(arr.Values()[lox:hix]...), nil
}

// Pick constructs an array by picking the designated offsets from an array.
// Negative offsets select from the end of the input array.
func Pick(offsets ...int) Query { return pickQuery(offsets) }

type pickQuery []int

func (q pickQuery) eval(v any) (any, error) {
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	out := value.NewArray()
	for _, off := range q {
		if off < 0 {
			off += arr.Len()
		}
		if off < 0 || off >= arr.Len() {
			return nil, fmt.Errorf("index %d out of range (0..%d)", off, arr.Len())
		}
		out.Append(arr.At(off))
	}
	return out, nil
}

// Len returns an integer representing the length of the root.
//
// For an object, the length is the number of members.
// For an array, the length is the number of elements.
// For a string, the length is the length of the string in bytes.
// For null, the length is zero.
func Len() Query { return lenQuery{} }

type lenQuery struct{}

func (lenQuery) eval(v any) (any, error) {
	switch t := v.(type) {
	case *value.Object:
		return t.Len(), nil
	case *value.Array:
		return t.Len(), nil
	case string:
		return len(t), nil
	case nil:
		return 0, nil
	}
	return nil, fmt.Errorf("cannot take length of %s", kind(v))
}

// Seq is a sequential composition of queries. An empty sequence selects the
// root; otherwise, each query is applied to the result selected by the
// previous query in the sequence.
type Seq []Query

func (q Seq) eval(v any) (any, error) {
	cur := v
	for _, sq := range q {
		next, err := sq.eval(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Alt is a query that selects among a sequence of alternatives.  The result of
// the first alternative that does not report an error is returned. If there
// are no alternatives, the query fails on all inputs.
type Alt []Query

func (q Alt) eval(v any) (any, error) {
	for _, alt := range q {
		if w, err := alt.eval(v); err == nil {
			return w, nil
		}
	}
	return nil, errors.New("no matching alternatives")
}

// Recur applies a query to each recursive descendant of its input and returns
// an array of the resulting values. The arguments have the same constraints as
// Path.
func Recur(keys ...any) Query { return recQuery{Path(keys...)} }

type recQuery struct{ Query }

func (q recQuery) eval(v any) (any, error) {
	out := value.NewArray()

	stk := []any{v}
	for len(stk) != 0 {
		next := stk[len(stk)-1]
		stk = stk[:len(stk)-1]

		if r, err := q.Query.eval(next); err == nil {
			out.Append(r)
		}

		// N.B. Push in reverse order, so we visit in lexical order.
		switch t := next.(type) {
		case *value.Object:
			keys := t.Keys()
			for i := len(keys) - 1; i >= 0; i-- {
				elt, _ := t.Get(keys[i])
				stk = append(stk, elt)
			}
		case *value.Array:
			for i := t.Len() - 1; i >= 0; i-- {
				stk = append(stk, t.At(i))
			}
		}
	}

	if out.Len() == 0 {
		return nil, errors.New("no matches")
	}
	return out, nil
}

// Each applies a query to each element of an array and returns an array of the
// resulting values. It fails if the input is not an array.  The arguments have
// the same constraints as Path.
func Each(keys ...any) Query { return eachQuery{Path(keys...)} }

type eachQuery struct{ Query }

func (q eachQuery) eval(v any) (any, error) {
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("got %s, want array", kind(v))
	}
	out := value.NewArray()
	for i, elt := range arr.All() {
		v, err := q.Query.eval(elt)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out.Append(v)
	}
	return out, nil
}

// Object constructs an object with the given keys mapped to the results of
// matching the query values against its input. The keys of the result are in
// lexicographic order.
type Object map[string]Query

func (o Object) eval(v any) (any, error) {
	out := value.NewObject()
	for _, key := range slices.Sorted(maps.Keys(o)) {
		val, err := o[key].eval(v)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", key, err)
		}
		out.Set(key, val)
	}
	return out, nil
}

// Array constructs an array with the values produced by matching the given
// queries against its input.
type Array []Query

func (a Array) eval(v any) (any, error) {
	out := make([]any, len(a))
	for i, q := range a {
		val, err := q.eval(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = val
	}
	return value.NewArray(out...), nil
}

// A String query ignores its input and returns the given string.
func String(s string) Query { return Value(s) }

// A Float query ignores its input and returns the given number.
func Float(n float64) Query { return Value(n) }

// An Int query ignores its input and returns the given integer.
func Int(z int64) Query { return Value(z) }

// A Bool query ignores its input and returns the given bool.
func Bool(b bool) Query { return Value(b) }

// A Null query ignores its input and returns a null value.
func Null() Query { return Value(nil) }

// A Value query ignores its input and returns the given value.
func Value(v any) Query { return constQuery{v} }

type constQuery struct{ v any }

func (c constQuery) eval(any) (any, error) { return c.v, nil }

// A Glob query returns an array of all its inputs.
func Glob() Query { return globQuery{} }

type globQuery struct{}

func (globQuery) eval(v any) (any, error) {
	switch t := v.(type) {
	case *value.Object:
		out := value.NewArray()
		for _, elt := range t.All() {
			out.Append(elt)
		}
		return out, nil
	case *value.Array:
		return t, nil
	default:
		return nil, errors.New("no matching values")
	}
}

// Lookup returns the values found by following the member keys of path from
// root. The keys are separated by "." as in "users.name", or by "/" if path
// begins with "/" as in "/users/name".
//
// Arrays are traversed transparently: looking up a key in an array looks it
// up in each element, and the results are flattened into a single array. A
// missing key, or a key looked up in a scalar, contributes a null. For
// example, looking up "users.name" in
//
//	{"users": [{"name": "a"}, {"name": "b"}, null]}
//
// yields ["a", "b", null].
func Lookup(root any, path string) *value.Array {
	var keys []string
	if rest, ok := strings.CutPrefix(path, "/"); ok {
		keys = strings.Split(rest, "/")
	} else if path != "" {
		keys = strings.Split(path, ".")
	}
	out := value.NewArray()
	lookup(out, root, keys)
	return out
}

func lookup(out *value.Array, v any, keys []string) {
	if len(keys) == 0 {
		out.Append(v)
		return
	}
	switch t := v.(type) {
	case *value.Object:
		next, _ := t.Get(keys[0])
		lookup(out, next, keys[1:])
	case *value.Array:
		for _, elt := range t.All() {
			lookup(out, elt, keys)
		}
	default:
		out.Append(nil)
	}
}

// kind describes the JSON type of v for error messages.
func kind(v any) string {
	switch v.(type) {
	case *value.Object:
		return "object"
	case *value.Array:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	case nil:
		return "null"
	}
	if value.IsNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"fmt"

	"github.com/creachadair/jbind/jpath"
	"github.com/creachadair/mds/mapset"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/golang/glog"
)

// A PathMatcher observes scalar values as they are parsed.
//
// Whenever the parser assigns a scalar (not an object or array) to a member
// of an object, it computes the path of that member and calls MatchPath. If
// MatchPath reports true, the parser calls OnMatch with the path and value.
//
// A path is "$" followed by ".key" for each enclosing object member and "[n]"
// for each enclosing array element, outermost first. For example, in
//
//	{"a": [{"b": 1}]}
//
// the value 1 is reported at path "$.a[0].b".
type PathMatcher interface {
	MatchPath(path string) bool
	OnMatch(path string, v any)
}

// MatchFunc returns a PathMatcher that calls match to select paths and calls
// on for each selected value.
func MatchFunc(match func(path string) bool, on func(path string, v any)) PathMatcher {
	return funcMatcher{match: match, on: on}
}

type funcMatcher struct {
	match func(string) bool
	on    func(string, any)
}

func (f funcMatcher) MatchPath(path string) bool { return f.match(path) }
func (f funcMatcher) OnMatch(path string, v any) { f.on(path, v) }

// MatchPattern returns a PathMatcher that selects paths matching the JSONPath
// pattern, for example "$.items[*].id" or "$..id", and calls on for each
// selected value. See [jpath.Compile] for the patterns supported.
func MatchPattern(pattern string, on func(path string, v any)) (PathMatcher, error) {
	e, err := jpath.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return funcMatcher{match: e.Match, on: on}, nil
}

// MatchExpr returns a PathMatcher that selects paths for which the boolean
// expression src is true, and calls on for each selected value.
//
// The expression is compiled with github.com/expr-lang/expr and may refer to
// these variables:
//
//	path   string     the complete path, e.g., "$.a[0].b"
//	key    string     the final member key, e.g., "b"
//	depth  int        the number of path segments, e.g., 3
//	keys   []string   the member keys of the path, e.g., ["a", "b"]
//
// For example: `depth == 2 && key startsWith "x_"`.
func MatchExpr(src string, on func(path string, v any)) (PathMatcher, error) {
	prog, err := expr.Compile(src, expr.Env(exprEnv("$")), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	return &exprMatcher{prog: prog, on: on}, nil
}

type exprMatcher struct {
	prog *vm.Program
	on   func(string, any)
}

func (e *exprMatcher) MatchPath(path string) bool {
	out, err := expr.Run(e.prog, exprEnv(path))
	if err != nil {
		glog.Warningf("jbind: evaluating path expression at %s: %v", path, err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (e *exprMatcher) OnMatch(path string, v any) { e.on(path, v) }

func exprEnv(path string) map[string]any {
	segs, _ := jpath.Split(path)
	keys := make([]string, 0, len(segs))
	for _, seg := range segs {
		if !seg.IsIndex {
			keys = append(keys, seg.Key)
		}
	}
	var key string
	if n := len(segs); n != 0 && !segs[n-1].IsIndex {
		key = segs[n-1].Key
	}
	return map[string]any{
		"path":  path,
		"key":   key,
		"depth": len(segs),
		"keys":  keys,
	}
}

// A PathSet is a PathMatcher that records the values observed at a fixed set
// of paths. If a path is observed more than once, the last value is kept.
type PathSet struct {
	paths mapset.Set[string]
	all   bool
	seen  map[string]any
}

// NewPathSet constructs a PathSet that records values at the given paths.
func NewPathSet(paths ...string) *PathSet {
	return &PathSet{paths: mapset.New(paths...), seen: make(map[string]any)}
}

// NewPathRecorder constructs a PathSet that records values at every path.
func NewPathRecorder() *PathSet {
	return &PathSet{all: true, seen: make(map[string]any)}
}

// MatchPath implements part of [PathMatcher].
func (p *PathSet) MatchPath(path string) bool { return p.all || p.paths.Has(path) }

// OnMatch implements part of [PathMatcher].
func (p *PathSet) OnMatch(path string, v any) { p.seen[path] = v }

// Lookup reports the value observed at path, and whether it was observed.
func (p *PathSet) Lookup(path string) (any, bool) {
	v, ok := p.seen[path]
	return v, ok
}

// Len reports the number of distinct paths observed.
func (p *PathSet) Len() int { return len(p.seen) }

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/query"
	"github.com/creachadair/jbind/value"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"
)

func jbindMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// inputs returns the input arguments, defaulting to stdin.
func inputs(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.YAML && (cfg.Pretty || cfg.Canonical) {
		return fmt.Errorf("%w: -y cannot be combined with -p or -c", cli.ErrUsage)
	}
	f := value.Formatter{Pretty: cfg.Pretty, Canonical: cfg.Canonical}
	for _, arg := range inputs(args) {
		v, err := cfg.parseArg(arg)
		if err != nil {
			return err
		}
		if cfg.YAML {
			out, err := yaml.Marshal(toYAML(v))
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			fmt.Fprint(cc.Out, "---\n", string(out))
			continue
		}
		if err := f.Format(cc.Out, v); err != nil {
			return err
		}
		fmt.Fprintln(cc.Out)
	}
	return nil
}

// toYAML converts a value tree into a form that goccy/go-yaml encodes with
// object keys in their original order.
func toYAML(v any) any {
	switch t := v.(type) {
	case *value.Object:
		out := make(yaml.MapSlice, 0, t.Len())
		for key, elt := range t.All() {
			out = append(out, yaml.MapItem{Key: key, Value: toYAML(elt)})
		}
		return out
	case *value.Array:
		out := make([]any, t.Len())
		for i, elt := range t.All() {
			out[i] = toYAML(elt)
		}
		return out
	case *big.Int:
		if t.IsUint64() {
			return t.Uint64()
		}
		return t.String()
	}
	return v
}

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: get requires a path argument", cli.ErrUsage)
	}
	path, files := args[0], inputs(args[1:])
	key := cfg.painter(cc.Out, color.FgCyan)
	emit := func(p string, v any) {
		fmt.Fprintf(cc.Out, "%s\t%s\n", key(p), value.JSON(v))
	}

	// A path in JSONPath or expression form is matched while parsing.
	// Otherwise it is a dotted lookup on the complete tree.
	var pm jbind.PathMatcher
	switch {
	case cfg.Expr:
		pm, err = jbind.MatchExpr(path, emit)
	case strings.HasPrefix(path, "$"):
		pm, err = jbind.MatchPattern(path, emit)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	for _, arg := range files {
		if pm != nil {
			if _, err := cfg.parseArg(arg, pm); err != nil {
				return err
			}
			continue
		}
		v, err := cfg.parseArg(arg)
		if err != nil {
			return err
		}
		for _, elt := range query.Lookup(v, path).All() {
			fmt.Fprintln(cc.Out, value.JSON(elt))
		}
	}
	return nil
}

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires exactly two arguments", cli.ErrUsage)
	}
	var texts [2]string
	for i, arg := range args {
		v, err := cfg.parseArg(arg)
		if err != nil {
			return err
		}
		if cfg.Sorted {
			// Reparsing canonical text yields objects with sorted keys.
			if v, err = jbind.ParseString(value.Canonical(v)); err != nil {
				return err
			}
		}
		texts[i] = value.Pretty(v)
	}
	if texts[0] == texts[1] {
		return nil
	}
	writeDiff(cc.Out, lineDiff(texts[0], texts[1]), cfg.painter(cc.Out, color.FgRed), cfg.painter(cc.Out, color.FgGreen))
	return cli.ExitCodeErr(1)
}

// lineDiff computes a line-oriented diff of a and b.
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func writeDiff(w io.Writer, diffs []diffmatchpatch.Diff, del, ins func(...any) string) {
	for _, d := range diffs {
		prefix, paint := " ", fmt.Sprint
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", del
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", ins
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, paint(prefix+strings.TrimSuffix(line, "\n")), "\n")
		}
	}
}

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	bad := cfg.painter(cc.Out, color.FgRed)
	var nerr int
	for _, arg := range inputs(args) {
		_, err := cfg.parseArg(arg)
		var le *jbind.LexError
		var pe *jbind.ParseError
		switch {
		case err == nil:
			if !cfg.Quiet {
				fmt.Fprintf(cc.Out, "%s: ok\n", arg)
			}
			continue
		case errors.As(err, &le), errors.As(err, &pe):
			fmt.Fprintln(cc.Out, bad(err.Error()))
		default:
			return err
		}
		nerr++
	}
	if nerr != 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}

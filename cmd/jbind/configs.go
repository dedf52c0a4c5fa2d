// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/creachadair/jbind"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Lenient  bool `cli:"name=lenient desc='accept unquoted object keys'"`
	Comments bool `cli:"name=comments desc='accept comments and trailing commas'"`
	Color    bool `cli:"name=color desc='force colored output'"`

	Main *cli.Command
}

func (cfg *MainConfig) validate() error {
	if cfg.Lenient && cfg.Comments {
		return fmt.Errorf("%w: -lenient and -comments cannot be combined", cli.ErrUsage)
	}
	return nil
}

// parse parses a single document from r with the configured options.
func (cfg *MainConfig) parse(r io.Reader, ms ...jbind.PathMatcher) (any, error) {
	p := jbind.NewParser(r)
	p.Lenient(cfg.Lenient)
	p.AllowComments(cfg.Comments)
	p.Match(ms...)
	return p.Parse()
}

// parseArg parses the document named by arg, where "-" means stdin.
func (cfg *MainConfig) parseArg(arg string, ms ...jbind.PathMatcher) (any, error) {
	if arg == "-" {
		return cfg.parse(os.Stdin, ms...)
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v, err := cfg.parse(f, ms...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	return v, nil
}

// colors reports whether output to w should be colored.
func (cfg *MainConfig) colors(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// painter returns a function that renders text in attr, or leaves it plain
// if w is not colored.
func (cfg *MainConfig) painter(w io.Writer, attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if cfg.colors(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

type FmtConfig struct {
	*MainConfig

	Pretty    bool `cli:"name=p aliases=pretty desc='indent the output'"`
	Canonical bool `cli:"name=c aliases=canonical desc='canonical output'"`
	YAML      bool `cli:"name=y aliases=yaml desc='write the output as YAML'"`

	Fmt *cli.Command
}

type GetConfig struct {
	*MainConfig

	Expr bool `cli:"name=e aliases=expr desc='treat the path as a boolean path expression'"`

	Get *cli.Command
}

type DiffConfig struct {
	*MainConfig

	Sorted bool `cli:"name=s aliases=sorted desc='sort object keys before comparing'"`

	Diff *cli.Command
}

type CheckConfig struct {
	*MainConfig

	Quiet bool `cli:"name=q aliases=quiet desc='report errors only'"`

	Check *cli.Command
}

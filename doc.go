// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jbind implements a JSON lexer and parser, with support for
// observing values by path as they are parsed.
//
// # Lexing
//
// The Lexer type splits a JSON input into tokens. Construct a lexer from an
// io.Reader and call its Next method to consume tokens one at a time. At the
// end of input, Next returns a token of kind End:
//
//	lex := jbind.NewLexer(input)
//	for {
//	   tok, err := lex.Next()
//	   if err != nil {
//	      log.Fatalf("Lexing failed: %v", err)
//	   } else if tok.Kind == jbind.End {
//	      break
//	   }
//	   log.Printf("Next token: %v", tok)
//	}
//
// Errors from the lexer have concrete type *jbind.LexError.
//
// # Parsing
//
// The Parser type is a table-driven state machine that builds a value tree
// from the tokens of its input. Objects are represented as *value.Object,
// arrays as *value.Array, and scalars as string, bool, nil, float64, or the
// smallest of int32, int64, and *big.Int that holds an integer:
//
//	v, err := jbind.NewParser(input).Parse()
//	if err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//	fmt.Println(value.Pretty(v))
//
// Syntax errors have concrete type *jbind.ParseError, and report the kinds of
// token that would have been valid at the point of failure.
//
// To parse a single value from the front of the input, call ParseOne. This
// method returns io.EOF when it reaches the end of the enclosing array or
// object, or the end of the input. Together with a Lexer it supports reading
// the elements of a large array one at a time:
//
//	if v, err := p.ParseOne(); err == io.EOF {
//	   log.Print("No more input")
//	} else if err != nil {
//	   log.Printf("ParseOne failed: %v", err)
//	}
//
// The Reader type wraps a parser with a pull-style interface for inputs whose
// structure is known in advance.
//
// # Paths
//
// A PathMatcher observes scalar values as they are assigned to object members
// during a parse. Each value is identified by a path such as "$.a[0].b":
//
//	ps := jbind.NewPathSet("$.config.name")
//	p.Match(ps)
//	if _, err := p.Parse(); err != nil {
//	   log.Fatal(err)
//	}
//	name, ok := ps.Lookup("$.config.name")
//
// See also MatchFunc, MatchPattern, and MatchExpr.
package jbind

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnterminatedString is reported when the input ends inside a string.
	ErrUnterminatedString = errors.New("unterminated string")

	// ErrUnexpectedCharacter is reported for a character or literal that does
	// not begin any valid token.
	ErrUnexpectedCharacter = errors.New("unexpected character")

	// ErrNumberRange is reported for a number literal too large in magnitude
	// to represent as a float64.
	ErrNumberRange = errors.New("number out of range")
)

// LexError is the concrete type of errors reported by the Lexer.
type LexError struct {
	Offset int    // byte offset of the offending input, 0-based
	Line   int    // line number, 1-based
	Char   rune   // the offending character, if known
	Text   string // the offending literal, if any
	Err    error  // the underlying error
}

// Error satisfies the error interface.
func (e *LexError) Error() string {
	var detail string
	if e.Text != "" {
		detail = fmt.Sprintf(" in %q", e.Text)
	} else if e.Char != 0 {
		detail = fmt.Sprintf(" %q", e.Char)
	}
	return fmt.Sprintf("at line %d (offset %d): %v%s", e.Line, e.Offset, e.Err, detail)
}

// Unwrap supports error wrapping.
func (e *LexError) Unwrap() error { return e.Err }

// ParseError is the concrete type of errors reported by the parser when a
// token is not valid in the current parse state.
type ParseError struct {
	Line     int    // line number of the offending token, 1-based
	Expected []Kind // the kinds of token that would have been valid
	Got      Token  // the offending token
	Message  string // additional detail, if any
}

// Error satisfies the error interface.
func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("at line %d: %s, got %v", e.Line, e.Message, e.Got)
	}
	return fmt.Sprintf("at line %d: %s", e.Line, kindLabel(e.Expected, e.Got))
}

// kindLabel makes a human-readable summary string for the given token kinds.
func kindLabel(kinds []Kind, got any) string {
	if len(kinds) == 0 {
		return fmt.Sprintf("unexpected %v", got)
	}
	var exp string
	if len(kinds) == 1 {
		exp = kinds[0].String()
	} else {
		last := len(kinds) - 1
		ss := make([]string, last)
		for i, k := range kinds[:last] {
			ss[i] = k.String()
		}
		exp = strings.Join(ss, ", ") + " or " + kinds[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"fmt"
	"io"
	"math/big"

	"github.com/creachadair/jbind/value"
)

// A Reader reads JSON values from a stream one piece at a time. It is useful
// for processing large inputs without building a tree for the whole input,
// for example to read the elements of a large array one at a time:
//
//	r := jbind.NewReader(input)
//	if err := r.BeginArray(); err != nil {
//	   log.Fatal(err)
//	}
//	for r.HasNext() {
//	   obj, err := r.NextObject()
//	   ...
//	}
//	if err := r.EndArray(); err != nil {
//	   log.Fatal(err)
//	}
//
// Commas and colons between values are skipped automatically.
type Reader struct {
	lex *Lexer
	p   *Parser
	err error
}

// NewReader constructs a new Reader that consumes input from r.
func NewReader(r io.Reader) *Reader {
	lex := NewLexer(r)
	return &Reader{lex: lex, p: NewParserWithLexer(lex)}
}

// Lenient configures the reader to accept (true) or reject (false) unquoted
// object keys.
func (r *Reader) Lenient(ok bool) { r.lex.Lenient(ok) }

// Match adds path matchers that observe values read by NextValue, NextObject,
// and NextArray. Paths are relative to the value being read.
func (r *Reader) Match(ms ...PathMatcher) { r.p.Match(ms...) }

// Err reports the last error encountered by HasNext, if any.
func (r *Reader) Err() error { return r.err }

// next returns the next token that is not a separator.
func (r *Reader) next() (Token, error) {
	for {
		tok, err := r.lex.Next()
		if err != nil || (tok.Kind != Comma && tok.Kind != Colon) {
			return tok, err
		}
	}
}

// peek returns the next token that is not a separator, without consuming it.
func (r *Reader) peek() (Token, error) {
	for {
		tok, err := r.lex.Peek()
		if err != nil || (tok.Kind != Comma && tok.Kind != Colon) {
			return tok, err
		}
		r.lex.Next()
	}
}

func (r *Reader) require(kind Kind) error {
	tok, err := r.next()
	if err != nil {
		return err
	} else if tok.Kind != kind {
		return &ParseError{Line: tok.Line, Expected: []Kind{kind}, Got: tok}
	}
	return nil
}

// BeginObject consumes the "{" that begins an object.
func (r *Reader) BeginObject() error { return r.require(LBrace) }

// EndObject consumes the "}" that ends an object.
func (r *Reader) EndObject() error { return r.require(RBrace) }

// BeginArray consumes the "[" that begins an array.
func (r *Reader) BeginArray() error { return r.require(LSquare) }

// EndArray consumes the "]" that ends an array.
func (r *Reader) EndArray() error { return r.require(RSquare) }

// HasNext reports whether another value or member follows in the current
// object or array. It reports false at the end of the container, at the end
// of input, or if an error occurs; use Err to distinguish errors.
func (r *Reader) HasNext() bool {
	tok, err := r.peek()
	if err != nil {
		r.err = err
		return false
	}
	switch tok.Kind {
	case RBrace, RSquare, End:
		return false
	}
	return true
}

// scalar consumes the next token, which must be a scalar value.
func (r *Reader) scalar(label string) (any, Token, error) {
	tok, err := r.next()
	if err != nil {
		return nil, tok, err
	} else if tok.Kind != Value {
		return nil, tok, wrongType(tok, label)
	}
	return tok.Value, tok, nil
}

func wrongType(tok Token, label string) error {
	return &ParseError{Line: tok.Line, Expected: []Kind{Value}, Got: tok, Message: "expected " + label}
}

// NextName reads the key of an object member, and the colon following it.
func (r *Reader) NextName() (string, error) {
	v, tok, err := r.scalar("member name")
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(tok, "member name")
	}
	if tok, err := r.lex.Peek(); err != nil {
		return "", err
	} else if tok.Kind != Colon {
		return "", &ParseError{Line: tok.Line, Expected: []Kind{Colon}, Got: tok}
	}
	r.lex.Next()
	return s, nil
}

// NextString reads a string value.
func (r *Reader) NextString() (string, error) {
	v, tok, err := r.scalar("string")
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", wrongType(tok, "string")
	}
	return s, nil
}

// NextBool reads a Boolean value.
func (r *Reader) NextBool() (bool, error) {
	v, tok, err := r.scalar("bool")
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, wrongType(tok, "bool")
	}
	return b, nil
}

// NextNull reads a null value.
func (r *Reader) NextNull() error {
	v, tok, err := r.scalar("null")
	if err != nil {
		return err
	} else if v != nil {
		return wrongType(tok, "null")
	}
	return nil
}

// NextInt reads an integer value that fits in an int.
func (r *Reader) NextInt() (int, error) {
	z, err := r.NextInt64()
	if err != nil {
		return 0, err
	} else if int64(int(z)) != z {
		return 0, fmt.Errorf("integer %d out of range for int", z)
	}
	return int(z), nil
}

// NextInt64 reads an integer value that fits in an int64.
func (r *Reader) NextInt64() (int64, error) {
	v, tok, err := r.scalar("integer")
	if err != nil {
		return 0, err
	}
	z, ok := value.Int64Of(v)
	if !ok {
		return 0, wrongType(tok, "64-bit integer")
	}
	return z, nil
}

// NextBigInt reads an integer value of any size.
func (r *Reader) NextBigInt() (*big.Int, error) {
	v, tok, err := r.scalar("integer")
	if err != nil {
		return nil, err
	}
	z, ok := value.BigIntOf(v)
	if !ok {
		return nil, wrongType(tok, "integer")
	}
	return z, nil
}

// NextFloat reads a number value as a float64.
func (r *Reader) NextFloat() (float64, error) {
	v, tok, err := r.scalar("number")
	if err != nil {
		return 0, err
	}
	f, ok := value.Float64Of(v)
	if !ok {
		return 0, wrongType(tok, "number")
	}
	return f, nil
}

// NextValue reads a complete value of any type. It returns io.EOF if the
// current container or the input has ended.
func (r *Reader) NextValue() (any, error) {
	if _, err := r.peek(); err != nil {
		return nil, err
	}
	return r.p.ParseOne()
}

// NextObject reads a complete object.
func (r *Reader) NextObject() (*value.Object, error) {
	tok, err := r.peek()
	if err != nil {
		return nil, err
	} else if tok.Kind != LBrace {
		return nil, &ParseError{Line: tok.Line, Expected: []Kind{LBrace}, Got: tok}
	}
	v, err := r.p.ParseOne()
	if err != nil {
		return nil, err
	}
	return v.(*value.Object), nil
}

// NextArray reads a complete array.
func (r *Reader) NextArray() (*value.Array, error) {
	tok, err := r.peek()
	if err != nil {
		return nil, err
	} else if tok.Kind != LSquare {
		return nil, &ParseError{Line: tok.Line, Expected: []Kind{LSquare}, Got: tok}
	}
	v, err := r.p.ParseOne()
	if err != nil {
		return nil, err
	}
	return v.(*value.Array), nil
}

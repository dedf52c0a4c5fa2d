// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/creachadair/jbind/internal/escape"
	"github.com/valyala/fastjson/fastfloat"
	"go4.org/mem"
)

// Kind is the type of a lexical token in the JSON grammar.
type Kind byte

// Constants defining the valid Kind values.
const (
	Invalid Kind = iota // invalid token
	LBrace              // left brace "{"
	RBrace              // right brace "}"
	LSquare             // left square bracket "["
	RSquare             // right square bracket "]"
	Comma               // comma ","
	Colon               // colon ":"
	Value               // scalar value: string, number, true, false, null
	End                 // end of input

	// Do not modify the order of these constants without updating the
	// self-delimiting token check below.

	numKinds
)

var kindStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Value:   "value",
	End:     "end of input",
}

func (k Kind) String() string {
	v := int(k)
	if v >= len(kindStr) {
		return kindStr[Invalid]
	}
	return kindStr[v]
}

// A Token is a single lexical token. For a token of kind Value, the Value
// field holds the decoded scalar: a string, a bool, an int32, an int64, a
// *big.Int, a float64, or nil for null.
type Token struct {
	Kind  Kind
	Value any
	Pos   int // byte offset of the start of the token, 0-based
	Line  int // line number of the start of the token, 1-based
}

func (t Token) String() string {
	if t.Kind != Value {
		return t.Kind.String()
	}
	switch v := t.Value.(type) {
	case nil:
		return "null"
	case string:
		return Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

// A Lexer reads lexical tokens from an input stream. Each call to Next
// consumes and returns the next token. At the end of input, Next returns a
// token of kind End, and continues to do so on subsequent calls.
type Lexer struct {
	r       *bufio.Reader
	lenient bool         // allow unquoted object keys
	buf     bytes.Buffer // current token text

	peeked  bool
	peekTok Token
	peekErr error

	nest       []byte // open brackets, innermost last
	expectName bool   // the next token is an object key

	end  int // offset of the next unread byte
	last int // size in bytes of last-read input rune
	line int // current line, 1-based
}

// NewLexer constructs a new lexer that consumes input from r.
func NewLexer(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Lexer{r: br, line: 1}
}

// Lenient configures the lexer to accept (true) or reject (false) object keys
// that are bare identifiers rather than quoted strings. An identifier is a
// sequence of letters, digits, underscores, and dollar signs.
func (x *Lexer) Lenient(ok bool) { x.lenient = ok }

// Line reports the current line number of the lexer, 1-based.
func (x *Lexer) Line() int { return x.line }

// Next consumes and returns the next token of the input.
func (x *Lexer) Next() (Token, error) {
	if x.peeked {
		x.peeked = false
		return x.peekTok, x.peekErr
	}
	return x.scan()
}

// Peek returns the next token of the input without consuming it. Repeated
// calls to Peek without an intervening Next return the same token.
func (x *Lexer) Peek() (Token, error) {
	if !x.peeked {
		x.peekTok, x.peekErr = x.scan()
		x.peeked = true
	}
	return x.peekTok, x.peekErr
}

func (x *Lexer) scan() (Token, error) {
	x.buf.Reset()
	for {
		tok := Token{Pos: x.end, Line: x.line}
		ch, err := x.rune()
		if err == io.EOF {
			tok.Kind = End
			return tok, nil
		} else if err != nil {
			return tok, x.fail(tok, 0, err)
		}

		// Discard whitespace.
		if isSpace(ch) {
			if ch == '\n' {
				x.line++
			}
			continue
		}

		// Handle punctuation.
		if k, ok := selfDelim(ch); ok {
			x.punct(k)
			tok.Kind = k
			return tok, nil
		}

		expectName := x.expectName
		x.expectName = false

		// Handle string values.
		if ch == '"' {
			s, err := x.scanString(tok)
			if err != nil {
				return tok, err
			}
			tok.Kind, tok.Value = Value, s
			return tok, nil
		}

		// Handle unquoted keys, if enabled.
		if x.lenient && expectName && isIdentStart(ch) {
			x.buf.WriteRune(ch)
			if err := x.readWhile(isIdentRune); err != nil {
				return tok, x.fail(tok, 0, err)
			}
			tok.Kind, tok.Value = Value, x.buf.String()
			return tok, nil
		}

		// Handle numbers and constants.
		if isLiteralRune(ch) {
			x.buf.WriteRune(ch)
			if err := x.readWhile(isLiteralRune); err != nil {
				return tok, x.fail(tok, 0, err)
			}
			v, err := classify(x.buf.Bytes())
			if err != nil {
				return tok, x.failText(tok, ch, err)
			}
			tok.Kind, tok.Value = Value, v
			return tok, nil
		}
		return tok, x.fail(tok, ch, ErrUnexpectedCharacter)
	}
}

// punct updates the bracket nesting for the punctuation token k.
func (x *Lexer) punct(k Kind) {
	switch k {
	case LBrace:
		x.nest = append(x.nest, '{')
		x.expectName = true
	case LSquare:
		x.nest = append(x.nest, '[')
		x.expectName = false
	case RBrace, RSquare:
		if n := len(x.nest); n > 0 {
			x.nest = x.nest[:n-1]
		}
		x.expectName = false
	case Comma:
		n := len(x.nest)
		x.expectName = n > 0 && x.nest[n-1] == '{'
	default:
		x.expectName = false
	}
}

// scanString scans a quoted string whose open quote has been consumed, and
// returns its decoded value.
func (x *Lexer) scanString(start Token) (string, error) {
	var esc bool
	for {
		ch, err := x.rune()
		if err == io.EOF {
			return "", x.fail(start, '"', ErrUnterminatedString)
		} else if err != nil {
			return "", x.fail(start, 0, err)
		} else if ch == '"' && !esc {
			break
		}
		at := Token{Pos: x.end - x.last, Line: x.line}
		if esc {
			// We are awaiting the completion of a \-escape.
			switch ch {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				x.buf.WriteByte(byte(ch))
			case 'u':
				x.buf.WriteByte(byte(ch))
				if err := x.readHex4(); err != nil {
					return "", x.fail(at, ch, fmt.Errorf("%w: invalid Unicode escape", ErrUnexpectedCharacter))
				}
			default:
				return "", x.fail(at, ch, fmt.Errorf("%w: invalid escape", ErrUnexpectedCharacter))
			}
			esc = false
		} else if ch < ' ' {
			return "", x.fail(at, ch, fmt.Errorf("%w: unescaped control", ErrUnexpectedCharacter))
		} else if ch > unicode.MaxRune {
			return "", x.fail(at, ch, fmt.Errorf("%w: invalid Unicode rune", ErrUnexpectedCharacter))
		} else {
			x.buf.WriteRune(ch)
			esc = ch == '\\'
		}
	}
	dec, err := escape.Unquote(mem.B(x.buf.Bytes()))
	if err != nil {
		return "", x.fail(start, '"', err)
	}
	return string(dec), nil
}

var (
	intRE   = regexp.MustCompile(`^-?[0-9]+$`)
	floatRE = regexp.MustCompile(`^-?[0-9]+((\.[0-9]+)?([eE][-+]?[0-9]+)?)$`)
)

// classify reports the value of a literal token.  Integers are represented by
// the smallest of int32, int64, and *big.Int that holds them. A float literal
// whose magnitude exceeds the range of float64 is reported as ErrNumberRange.
func classify(text []byte) (any, error) {
	s := mem.B(text)
	switch {
	case intRE.Match(text):
		str := s.StringCopy()
		if z, err := fastfloat.ParseInt64(str); err == nil {
			if z >= math.MinInt32 && z <= math.MaxInt32 {
				return int32(z), nil
			}
			return z, nil
		}
		if z, ok := new(big.Int).SetString(str, 10); ok {
			return z, nil
		}
	case floatRE.Match(text):
		f, err := fastfloat.Parse(s.StringCopy())
		if err != nil || math.IsInf(f, 0) {
			return nil, ErrNumberRange
		}
		return f, nil
	case mem.EqualFold(s, mem.S("true")):
		return true, nil
	case mem.EqualFold(s, mem.S("false")):
		return false, nil
	case s.EqualString("null"):
		return nil, nil
	}
	return nil, ErrUnexpectedCharacter
}

func (x *Lexer) rune() (rune, error) {
	ch, nb, err := x.r.ReadRune()
	x.last = nb
	x.end += nb
	return ch, err
}

func (x *Lexer) unrune() {
	x.end -= x.last
	x.last = 0
	x.r.UnreadRune()
}

// readWhile consumes runes matching f from the input into the buffer until
// EOF or until a rune not matching f is found, which is unread.
func (x *Lexer) readWhile(f func(rune) bool) error {
	for {
		ch, err := x.rune()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		} else if !f(ch) {
			x.unrune()
			return nil
		}
		x.buf.WriteRune(ch)
	}
}

// readHex4 reads exactly 4 hexadecimal digits from the input.
func (x *Lexer) readHex4() error {
	for range 4 {
		ch, err := x.rune()
		if err != nil {
			return err
		} else if !isHexDigit(ch) {
			return fmt.Errorf("not a hex digit: %q", ch)
		}
		x.buf.WriteRune(ch)
	}
	return nil
}

func (x *Lexer) fail(at Token, ch rune, err error) error {
	return &LexError{Offset: at.Pos, Line: at.Line, Char: ch, Err: err}
}

func (x *Lexer) failText(at Token, ch rune, err error) error {
	return &LexError{Offset: at.Pos, Line: at.Line, Char: ch, Text: x.buf.String(), Err: err}
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func isLetter(ch rune) bool { return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') }

func isLiteralRune(ch rune) bool {
	return isDigit(ch) || isLetter(ch) || ch == '-' || ch == '+' || ch == '.'
}

func isIdentStart(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' || ch == '$' }

func isIdentRune(ch rune) bool { return isIdentStart(ch) || unicode.IsDigit(ch) }

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

var self = [...]Kind{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch rune) (Kind, bool) {
	i := strings.IndexRune("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}

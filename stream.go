// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/creachadair/jbind/value"
	"github.com/golang/glog"
	"github.com/tailscale/hujson"
)

// State is a state of the parsing state machine.
type State byte

// Constants defining the parser states.
const (
	Init            State = iota // before the first token
	InObject                     // inside an object, awaiting a key or "}"
	InArray                      // inside an array, awaiting an element or "]"
	PassedKey                    // after an object key, awaiting ":" and a value
	InFinishedValue              // a complete top-level value has been read
	Done                         // end of input after a complete value

	numStates
)

var stateStr = [...]string{
	Init:            "init",
	InObject:        "in object",
	InArray:         "in array",
	PassedKey:       "passed key",
	InFinishedValue: "finished value",
	Done:            "done",
}

func (s State) String() string {
	if int(s) >= len(stateStr) {
		return "invalid state"
	}
	return stateStr[s]
}

// A transition applies a token in a given state.
type transition func(*machine, Token) error

// transitions is the parser's transition table, indexed by state and token
// kind. A nil entry means the token is not valid in that state.
var transitions [numStates][numKinds]transition

func init() {
	transitions[Init][Value] = (*machine).initScalar
	transitions[Init][LBrace] = (*machine).openContainer
	transitions[Init][LSquare] = (*machine).openContainer

	transitions[InObject][Value] = (*machine).objectKey
	transitions[InObject][Comma] = (*machine).comma
	transitions[InObject][RBrace] = (*machine).closeContainer

	transitions[PassedKey][Colon] = (*machine).colon
	transitions[PassedKey][Value] = (*machine).memberScalar
	transitions[PassedKey][LBrace] = (*machine).openContainer
	transitions[PassedKey][LSquare] = (*machine).openContainer

	transitions[InArray][Value] = (*machine).elementScalar
	transitions[InArray][Comma] = (*machine).comma
	transitions[InArray][LBrace] = (*machine).openContainer
	transitions[InArray][LSquare] = (*machine).openContainer
	transitions[InArray][RSquare] = (*machine).closeContainer

	transitions[InFinishedValue][End] = (*machine).finish
}

// validKinds reports the token kinds that have transitions from state s.
func validKinds(s State) []Kind {
	var out []Kind
	for k, t := range transitions[s] {
		if t != nil {
			out = append(out, Kind(k))
		}
	}
	return out
}

// A frame records the state of one open container.
type frame struct {
	state State
	obj   *value.Object // set for an object frame
	arr   *value.Array  // set for an array frame

	key   string // the key currently being assigned (object)
	colon bool   // a colon has been seen after key (object)
	sep   bool   // a member has been read, so "," or a close is required
	comma bool   // a comma has been read, so a member is required
}

// A machine holds the state of a single parse.
type machine struct {
	stack    []*frame
	state    State // valid when the stack is empty
	result   any
	matchers []PathMatcher
}

func (m *machine) top() *frame { return m.stack[len(m.stack)-1] }

// current reports the state of the machine.
func (m *machine) current() State {
	if len(m.stack) != 0 {
		return m.top().state
	}
	return m.state
}

// step applies tok to the machine.
func (m *machine) step(tok Token) error {
	cur := m.current()
	t := transitions[cur][tok.Kind]
	if t == nil {
		return &ParseError{Line: tok.Line, Expected: validKinds(cur), Got: tok}
	}
	return t(m, tok)
}

func (m *machine) initScalar(tok Token) error {
	m.result = tok.Value
	m.state = InFinishedValue
	return nil
}

func (m *machine) finish(Token) error {
	m.state = Done
	return nil
}

// openContainer handles "{" or "[" at the top level, as an object member, or
// as an array element.
func (m *machine) openContainer(tok Token) error {
	child := &frame{state: InObject}
	var v any
	if tok.Kind == LBrace {
		child.obj = value.NewObject()
		v = child.obj
	} else {
		child.state = InArray
		child.arr = value.NewArray()
		v = child.arr
	}
	if len(m.stack) != 0 {
		if err := m.addValue(tok, v); err != nil {
			return err
		}
	}
	m.stack = append(m.stack, child)
	return nil
}

// closeContainer handles "}" or "]".
func (m *machine) closeContainer(tok Token) error {
	f := m.top()
	if f.comma {
		return m.expect(tok, "expected value after comma")
	}
	m.stack = m.stack[:len(m.stack)-1]
	if len(m.stack) == 0 {
		if f.obj != nil {
			m.result = f.obj
		} else {
			m.result = f.arr
		}
		m.state = InFinishedValue
	}
	return nil
}

func (m *machine) comma(tok Token) error {
	f := m.top()
	if !f.sep {
		return m.expect(tok, "unexpected comma")
	}
	f.sep, f.comma = false, true
	return nil
}

func (m *machine) objectKey(tok Token) error {
	f := m.top()
	if f.sep {
		return &ParseError{Line: tok.Line, Expected: []Kind{Comma, RBrace}, Got: tok}
	}
	key, ok := tok.Value.(string)
	if !ok {
		return m.expect(tok, "object keys must be strings")
	}
	f.key, f.colon, f.comma = key, false, false
	f.state = PassedKey
	return nil
}

func (m *machine) colon(tok Token) error {
	f := m.top()
	if f.colon {
		return &ParseError{Line: tok.Line, Expected: []Kind{Value, LBrace, LSquare}, Got: tok}
	}
	f.colon = true
	return nil
}

func (m *machine) memberScalar(tok Token) error {
	if err := m.addValue(tok, tok.Value); err != nil {
		return err
	}
	m.observe(tok.Value)
	return nil
}

func (m *machine) elementScalar(tok Token) error { return m.addValue(tok, tok.Value) }

// addValue adds v to the container on top of the stack, as the value of the
// pending key of an object or as the next element of an array.
func (m *machine) addValue(tok Token, v any) error {
	f := m.top()
	switch f.state {
	case PassedKey:
		if !f.colon {
			return &ParseError{Line: tok.Line, Expected: []Kind{Colon}, Got: tok}
		}
		f.obj.Set(f.key, v)
		f.state = InObject
	case InArray:
		if f.sep {
			return &ParseError{Line: tok.Line, Expected: []Kind{Comma, RSquare}, Got: tok}
		}
		f.arr.Append(v)
	}
	f.sep, f.comma = true, false
	return nil
}

func (m *machine) expect(tok Token, msg string) error {
	return &ParseError{Line: tok.Line, Expected: validKinds(m.current()), Got: tok, Message: msg}
}

// path returns the path of the value being assigned in the innermost frame.
func (m *machine) path() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, f := range m.stack {
		if f.obj != nil {
			sb.WriteByte('.')
			sb.WriteString(f.key)
		} else {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(f.arr.Len() - 1))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// observe offers a scalar just assigned to an object member to the matchers.
func (m *machine) observe(v any) {
	if len(m.matchers) == 0 {
		return
	}
	path := m.path()
	for _, pm := range m.matchers {
		if pm.MatchPath(path) {
			if glog.V(3) {
				glog.Infof("jbind: path %s matched %v", path, v)
			}
			pm.OnMatch(path, v)
		}
	}
}

// A Parser parses JSON text into a value tree. See the package documentation
// for a description of the values produced.
type Parser struct {
	src      io.Reader
	lex      *Lexer
	lenient  bool
	comments bool
	matchers []PathMatcher
}

// NewParser constructs a new Parser that consumes input from r.
func NewParser(r io.Reader) *Parser { return &Parser{src: r} }

// NewParserWithLexer constructs a new Parser that consumes tokens from lex.
func NewParserWithLexer(lex *Lexer) *Parser { return &Parser{lex: lex} }

// Lenient configures the parser to accept (true) or reject (false) unquoted
// object keys. It must be set before parsing begins.
func (p *Parser) Lenient(ok bool) { p.lenient = ok }

// AllowComments configures the parser to accept (true) or reject (false)
// comments and trailing commas, in the form accepted by hujson. When enabled,
// the whole input is read and standardized before parsing begins. It must be
// set before parsing begins.
func (p *Parser) AllowComments(ok bool) { p.comments = ok }

// Match adds path matchers to p. Each matcher is consulted whenever a scalar
// value is assigned to an object member.
func (p *Parser) Match(ms ...PathMatcher) { p.matchers = append(p.matchers, ms...) }

func (p *Parser) lexer() (*Lexer, error) {
	if p.lex != nil {
		return p.lex, nil
	}
	src := p.src
	if p.comments {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("standardize input: %w", err)
		}
		src = bytes.NewReader(std)
	}
	p.lex = NewLexer(src)
	p.lex.Lenient(p.lenient)
	return p.lex, nil
}

// Parse parses the input, which must contain exactly one value followed by
// the end of input, and returns the resulting value. Errors from the lexer
// have concrete type [*LexError], and errors from the parser have concrete
// type [*ParseError].
func (p *Parser) Parse() (any, error) {
	lex, err := p.lexer()
	if err != nil {
		return nil, err
	}
	m := &machine{matchers: p.matchers}
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if err := m.step(tok); err != nil {
			return nil, err
		}
		if m.current() == Done {
			if glog.V(2) {
				glog.Infof("jbind: parsed %T ending at line %d", m.result, tok.Line)
			}
			return m.result, nil
		}
	}
}

// ParseOne parses a single value from the input and returns it. A comma
// preceding the value is skipped. ParseOne stops as soon as the value is
// complete, leaving the following token unconsumed.
//
// If the next token is "]", "}", or the end of input, ParseOne returns io.EOF
// without consuming it. This allows a caller to read the elements of an array
// one at a time after consuming its "[".
func (p *Parser) ParseOne() (any, error) {
	lex, err := p.lexer()
	if err != nil {
		return nil, err
	}
	tok, err := lex.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == Comma {
		lex.Next()
		if tok, err = lex.Peek(); err != nil {
			return nil, err
		}
	}
	switch tok.Kind {
	case End, RBrace, RSquare:
		return nil, io.EOF
	}

	m := &machine{matchers: p.matchers}
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if err := m.step(tok); err != nil {
			return nil, err
		}
		if m.current() == InFinishedValue {
			if glog.V(2) {
				glog.Infof("jbind: streamed %T ending at line %d", m.result, tok.Line)
			}
			return m.result, nil
		}
	}
}

// Parse parses a single JSON value from r.
func Parse(r io.Reader) (any, error) { return NewParser(r).Parse() }

// ParseString parses a single JSON value from s.
func ParseString(s string) (any, error) { return Parse(strings.NewReader(s)) }

// ParseBytes parses a single JSON value from data.
func ParseBytes(data []byte) (any, error) { return Parse(bytes.NewReader(data)) }

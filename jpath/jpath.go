// Package jpath implements a minimal JSONPath expression parser, and matching
// of expressions against the concrete paths reported while parsing.
//
// A concrete path is a root marker "$" followed by ".key" for each object
// member and "[n]" for each array element, for example "$.items[2].id".
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
Grammar:

  expr = root steps
  root = "$"
 steps = step [steps]
  step = "." name
  step = ".." name
  step = "[" value "]"
  step = "[" slice "]"
  name = WORD
  name = "'" QTEXT "'"
  name = "*"
 value = name
 value = INDEX
 value = script
 value = filter
 slice = INDEX ":" INDEX
script = "(" TEXT ")"
filter = "?(" TEXT ")"

  WORD = RE `\w+`
 QTEXT = RE `([^']|\\')*`
 INDEX = RE `-?\d+`
  TEXT = { all text with nested parentheses }

Source:
  https://www.ietf.org/archive/id/draft-goessner-dispatch-jsonpath-00.html
*/

// An Expr is a parsed JSONPath expression.
type Expr []Step

// Parse parses s as a JSONPath expression.
func Parse(s string) (Expr, error) {
	st, _, err := parseExpr(s)
	if err != nil {
		return Expr{}, err
	}
	return st, nil
}

// Compile parses s as a JSONPath expression that can be matched against
// concrete paths. Filter and script steps are not supported, nor are negative
// indices, since their meaning depends on the content of the document.
func Compile(s string) (Expr, error) {
	e, err := Parse(s)
	if err != nil {
		return nil, err
	}
	for _, step := range e {
		switch step.Op {
		case Filter, Script:
			return nil, fmt.Errorf("step %v cannot be matched against a path", step.Op)
		case Index, Slice:
			if strings.Contains(step.Arg1, "-") || strings.Contains(step.Arg2, "-") {
				return nil, fmt.Errorf("negative index %q cannot be matched against a path", step.Arg1+step.Arg2)
			}
		}
	}
	return e, nil
}

// Match reports whether e matches the concrete path. A path that is not well
// formed does not match any expression.
func (e Expr) Match(path string) bool {
	segs, err := Split(path)
	if err != nil {
		return false
	}
	return matchSteps(e, segs)
}

func matchSteps(steps []Step, segs []Segment) bool {
	if len(steps) == 0 {
		return len(segs) == 0
	}
	step := steps[0]
	if step.Op == Recur {
		// A recursive step matches its name at any depth at or below here.
		member := Step{Op: Member, Arg1: step.Arg1, Arg2: step.Arg2}
		for i, seg := range segs {
			if member.matches(seg) && matchSteps(steps[1:], segs[i+1:]) {
				return true
			}
		}
		return false
	}
	return len(segs) != 0 && step.matches(segs[0]) && matchSteps(steps[1:], segs[1:])
}

// matches reports whether a single non-recursive step matches seg.
func (s Step) matches(seg Segment) bool {
	switch s.Op {
	case Wildcard:
		return true
	case Member:
		return s.Arg2 == Wildcard.String() || (!seg.IsIndex && seg.Key == s.Arg1)
	case Name, QName:
		return !seg.IsIndex && seg.Key == s.Arg1
	case Index:
		if !seg.IsIndex {
			return false
		}
		for _, arg := range strings.Split(s.Arg1, ",") {
			if n, err := strconv.Atoi(arg); err == nil && n == seg.Index {
				return true
			}
		}
	case Slice:
		if !seg.IsIndex {
			return false
		}
		lo, hi := 0, -1
		if s.Arg1 != "" {
			lo, _ = strconv.Atoi(s.Arg1)
		}
		if s.Arg2 != "" {
			hi, _ = strconv.Atoi(s.Arg2)
		}
		return seg.Index >= lo && (hi < 0 || seg.Index < hi)
	}
	return false
}

// A Segment is one element of a concrete path.
type Segment struct {
	Key     string // object key, if !IsIndex
	Index   int    // array offset, if IsIndex
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "." + s.Key
}

// Split splits a concrete path into its segments. Keys end at the next "." or
// "[", so a key containing either character cannot be recovered exactly.
func Split(path string) ([]Segment, error) {
	t, ok := strings.CutPrefix(path, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var segs []Segment
	for t != "" {
		switch t[0] {
		case '.':
			t = t[1:]
			i := strings.IndexAny(t, ".[")
			if i < 0 {
				i = len(t)
			}
			segs = append(segs, Segment{Key: t[:i]})
			t = t[i:]
		case '[':
			j := strings.IndexByte(t, ']')
			if j < 0 {
				return nil, errors.New("missing close bracket")
			}
			n, err := strconv.Atoi(t[1:j])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid index %q", t[1:j])
			}
			segs = append(segs, Segment{Index: n, IsIndex: true})
			t = t[j+1:]
		default:
			return nil, fmt.Errorf("invalid path step at %q", t)
		}
	}
	return segs, nil
}

func (e Expr) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range e {
		switch s.Op {
		case Member, Recur:
			if s.Arg2 == "qname" {
				fmt.Fprintf(&buf, "%s'%s'", s.Op, s.Arg1)
			} else {
				fmt.Fprint(&buf, s.Op, s.Arg1)
			}

		case Slice:
			fmt.Fprintf(&buf, "[%s:%s]", s.Arg1, s.Arg2)

		case Script:
			fmt.Fprintf(&buf, "[(%s)]", s.Arg1)

		case Filter:
			fmt.Fprintf(&buf, "[?(%s)]", s.Arg1)

		default:
			if s.Op == QName {
				fmt.Fprintf(&buf, "['%s']", s.Arg1)
			} else {
				fmt.Fprintf(&buf, "[%s]", s.Arg1)
			}
		}
	}
	return buf.String()
}

func parseExpr(s string) ([]Step, string, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, s, errors.New("missing root marker")
	}
	return parseSteps(t)
}

func parseSteps(s string) (steps []Step, rest string, _ error) {
	for s != "" {
		step, rest, err := parseStep(s)
		if err != nil {
			return nil, s, err
		}
		steps = append(steps, step)
		s = rest
	}
	return steps, s, nil
}

func parseStep(s string) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, ".."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid ..name: %w", err)
		}
		return Step{Op: Recur, Arg1: name, Arg2: kind.String()}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid .name: %w", err)
		}
		return Step{Op: Member, Arg1: name, Arg2: kind.String()}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		kind, val, u, err := parseValue(t)
		if err != nil {
			return Step{}, t, err
		}
		out := Step{Op: kind, Arg1: val}
		if out.Op == Slice {
			arg2, rest, err := parseIndex(u)
			if err == nil {
				out.Arg2 = arg2
				u = rest
			} else if out.Arg1 == "" {
				return Step{}, u, errors.New("invalid slice")
			}
		}
		u, ok := strings.CutPrefix(u, "]")
		if !ok {
			return Step{}, u, errors.New("missing close bracket")
		}
		return out, u, nil
	}
	return Step{}, s, errors.New("invalid path step")
}

func parseName(s string) (kind Op, name, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "*"); ok {
		return Wildcard, "*", t, nil
	}
	if m := wordRE.FindStringSubmatch(s); m != nil {
		return Name, m[1], s[len(m[0]):], nil
	}
	if m := quoteRE.FindStringSubmatch(s); m != nil {
		return QName, m[1], s[len(m[0]):], nil
	}
	return Invalid, "", s, errors.New("invalid name")
}

func parseIndex(s string) (text, rest string, _ error) {
	if m := indexRE.FindStringSubmatch(s); m != nil {
		return m[1], s[len(m[0]):], nil
	}
	return "", "", errors.New("invalid index")
}

func parseValue(s string) (kind Op, value, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "?("); ok {
		text, rest, err := parseScript(t)
		return Filter, text, rest, err
	}
	if t, ok := strings.CutPrefix(s, "("); ok {
		text, rest, err := parseScript(t)
		return Script, text, rest, err
	}
	if text, rest, err := parseIndex(s); err == nil {
		if u, ok := strings.CutPrefix(rest, ":"); ok {
			return Slice, text, u, nil
		}
		return Index, text, rest, nil
	}
	if u, ok := strings.CutPrefix(s, ":"); ok {
		return Slice, "", u, nil
	}
	if kind, text, rest, err := parseName(s); err == nil {
		return kind, text, rest, nil
	}
	return Invalid, "", s, fmt.Errorf("invalid value: %q", s)
}

func parseScript(s string) (text, rest string, _ error) {
	i, np := 0, 1
	for i < len(s) {
		if s[i] == ')' {
			np--
			if np == 0 {
				break
			}
		} else if s[i] == '(' {
			np++
		}
		i++
	}
	if np > 0 {
		return "", s, errors.New("unbalanced parentheses")
	}
	return s[:i], s[i+1:], nil
}

var (
	wordRE  = regexp.MustCompile(`^(\w+)`)
	indexRE = regexp.MustCompile(`^(-?\d+(?:,-?\d+)*)`)
	quoteRE = regexp.MustCompile(`^'([^\']*)'`)
)

// An Op is a path operator.
type Op byte

const (
	Invalid  Op = iota // invalid operator
	Member             // member lookup (.)
	Index              // array index lookup
	Slice              // array slice
	Wildcard           // wildcard expansion (*)
	Name               // unquoted name expansion
	QName              // quoted name expansion
	Recur              // recur operator
	Filter             // filter operator
	Script             // script operator
)

var opText = map[Op]string{
	Invalid:  "invalid",
	Member:   ".",
	Index:    "index",
	Slice:    "slice",
	Wildcard: "*",
	Name:     "name",
	QName:    "qname",
	Recur:    "..",
	Filter:   "?(...)",
	Script:   "(...)",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return opText[Invalid]
}

// A Step is a single step of a JSONPath expression.
type Step struct {
	Op   Op
	Arg1 string
	Arg2 string
}

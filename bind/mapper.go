// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package bind maps JSON values to and from Go values.
//
// A Mapper converts between the value trees produced by the jbind parser and
// Go values of arbitrary types, guided by struct tags, registered converters,
// constructors and type adapters:
//
//	type User struct {
//	   Name  string   `jbind:"name"`
//	   Email string   `jbind:"email,omitnull"`
//	   Tags  []string `jbind:"tags,index=1"`
//	   City  string   `jbind:",path=$.address.city"`
//	}
//
//	m := bind.New()
//	u, err := bind.ParseString[User](m, input)
//
// Struct fields are converted by name. The member name of a field is its tag
// name if it has one, otherwise its Go name, in either case passed through
// the mapper's field renamer if one is set. When reading, a member whose name
// matches no field exactly is matched case-insensitively. See [TagKey] for
// the options that may appear in a tag.
//
// # Converters
//
// Each value is converted by the first [Converter] that claims its type; see
// [Mapper.Converter] for the order of precedence. The default converter
// handles Go types by kind: booleans, strings and numbers map to scalars,
// slices and arrays to arrays, maps and structs to objects. Pointers are
// allocated as needed, and a null produces the zero value. The empty
// interface receives native values (map[string]any, []any and scalars).
//
// # Polymorphism
//
// A field of interface type can be resolved from a discriminator member,
// either per field with the typefor and adapter tag options, or for every use
// of the interface with [Mapper.RegisterSubtypes].
package bind

import (
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/value"
	"github.com/golang/glog"
	"github.com/valyala/bytebufferpool"
)

// DefaultSerializeNull is whether nil fields are written when neither the
// field tag nor the Mapper says otherwise.
var DefaultSerializeNull = true

// A TypeAdapter chooses a concrete type from the value of a discriminator.
//
// Fields of a subtype may be bound to paths with the path tag option. If the
// adapter also has a method
//
//	Types() []reflect.Type
//
// reporting every type it can choose, only the paths bound by those types are
// recorded while parsing. Otherwise the value at every member path is
// recorded, which costs more for large inputs.
type TypeAdapter interface {
	SubtypeFor(discriminant any) (reflect.Type, bool)
}

// typeLister is implemented by type adapters that can enumerate their types.
type typeLister interface {
	Types() []reflect.Type
}

// AdapterFunc is a TypeAdapter implemented by a function.
type AdapterFunc func(discriminant any) (reflect.Type, bool)

// SubtypeFor implements [TypeAdapter].
func (f AdapterFunc) SubtypeFor(d any) (reflect.Type, bool) { return f(d) }

// Subtypes is a TypeAdapter that maps string discriminators to types.
type Subtypes map[string]reflect.Type

// SubtypeFor implements [TypeAdapter].
func (s Subtypes) SubtypeFor(d any) (reflect.Type, bool) {
	key, ok := d.(string)
	if !ok {
		return nil, false
	}
	t, ok := s[key]
	return t, ok
}

// Types returns the types of s, ordered by discriminator.
func (s Subtypes) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(s))
	for _, key := range slices.Sorted(maps.Keys(s)) {
		out = append(out, s[key])
	}
	return out
}

type subtypeBinding struct {
	field   string
	adapter TypeAdapter
}

// A Mapper converts between JSON and Go values. The zero value is ready for
// use with default settings. A Mapper should be fully configured before it is
// used; after that it is safe for concurrent use by multiple goroutines.
type Mapper struct {
	converters []Converter
	fieldConv  map[string]Converter
	adapters   map[string]TypeAdapter
	subtypes   map[reflect.Type]subtypeBinding
	ctors      map[reflect.Type][]Constructor
	matchers   []jbind.PathMatcher
	strategies []func(Property) bool
	renamer    Renamer
	null       *bool
	lenient    bool
	comments   bool

	types sync.Map // reflect.Type → *typeInfo
	paths sync.Map // reflect.Type → boundPaths
}

// New constructs a new Mapper with default settings.
func New() *Mapper { return new(Mapper) }

// RegisterConverter adds converters to m. Converters added later take
// precedence over those added earlier.
func (m *Mapper) RegisterConverter(cs ...Converter) { m.converters = append(m.converters, cs...) }

// RegisterFieldConverter associates a converter with a name. A field whose
// tag has conv=name is converted by c regardless of its type.
func (m *Mapper) RegisterFieldConverter(name string, c Converter) {
	if m.fieldConv == nil {
		m.fieldConv = make(map[string]Converter)
	}
	m.fieldConv[name] = c
}

// RegisterAdapter associates a type adapter with a name, for use by fields
// whose tag has adapter=name.
func (m *Mapper) RegisterAdapter(name string, a TypeAdapter) {
	if m.adapters == nil {
		m.adapters = make(map[string]TypeAdapter)
	}
	m.adapters[name] = a
}

// RegisterSubtypes arranges for values of interface type iface to be
// constructed as the type a chooses from the value of the discriminator
// member field in the object being converted.
func (m *Mapper) RegisterSubtypes(iface reflect.Type, field string, a TypeAdapter) {
	if m.subtypes == nil {
		m.subtypes = make(map[reflect.Type]subtypeBinding)
	}
	m.subtypes[iface] = subtypeBinding{field: field, adapter: a}
}

// RegisterConstructor adds constructors for struct type t. They are tried in
// the order given.
func (m *Mapper) RegisterConstructor(t reflect.Type, cs ...Constructor) {
	if m.ctors == nil {
		m.ctors = make(map[reflect.Type][]Constructor)
	}
	m.ctors[t] = append(m.ctors[t], cs...)
}

// Match adds path matchers that observe every input parsed by m.
func (m *Mapper) Match(ms ...jbind.PathMatcher) { m.matchers = append(m.matchers, ms...) }

// PropertyStrategy adds a predicate that selects which fields are converted.
// A field is converted only if every predicate accepts it.
func (m *Mapper) PropertyStrategy(f func(Property) bool) { m.strategies = append(m.strategies, f) }

// FieldRenamer sets a function to map field names to member names.
func (m *Mapper) FieldRenamer(r Renamer) { m.renamer = r }

// SerializeNull sets whether nil fields are written by default.
func (m *Mapper) SerializeNull(ok bool) { m.null = &ok }

// Lenient sets whether parsing accepts unquoted object keys.
func (m *Mapper) Lenient(ok bool) { m.lenient = ok }

// AllowComments sets whether parsing accepts comments and trailing commas.
func (m *Mapper) AllowComments(ok bool) { m.comments = ok }

func (m *Mapper) serializeNull(p *Property) bool {
	if p != nil && p.Null != nil {
		return *p.Null
	} else if m.null != nil {
		return *m.null
	}
	return DefaultSerializeNull
}

// Decode parses a single JSON value from r and stores its conversion in the
// value pointed to by dst, which must be a non-nil pointer.
func (m *Mapper) Decode(r io.Reader, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &ConversionError{Type: reflect.TypeOf(dst), Message: "destination must be a non-nil pointer"}
	}
	t := rv.Type().Elem()
	p := jbind.NewParser(r)
	p.Lenient(m.lenient)
	p.AllowComments(m.comments)
	p.Match(m.matchers...)

	s := new(session)
	bp, err := m.pathsFor(t)
	if err != nil {
		return &ConversionError{Type: t, Err: err}
	}
	if bp.all {
		s.captures = jbind.NewPathRecorder()
		p.Match(s.captures)
	} else if len(bp.paths) != 0 {
		s.captures = jbind.NewPathSet(bp.paths...)
		p.Match(s.captures)
	}
	tree, err := p.Parse()
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("jbind: decoding %T into %v", tree, t)
	}
	v, err := m.decode(s, tree, t, nil, "$")
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

// DecodeTree stores the conversion of a value tree in the value pointed to
// by dst, which must be a non-nil pointer. No input is parsed, so fields
// bound to paths report a *MissingPathError.
func (m *Mapper) DecodeTree(tree, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &ConversionError{Type: reflect.TypeOf(dst), Message: "destination must be a non-nil pointer"}
	}
	v, err := m.decode(new(session), tree, rv.Type().Elem(), nil, "$")
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

// ToJSON renders v as compact JSON text.
func (m *Mapper) ToJSON(v any) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := m.encode(buf, reflect.ValueOf(v), nil, "$"); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render renders v as JSON text in the format selected by f.
func (m *Mapper) Render(v any, f value.Formatter) (string, error) {
	text, err := m.ToJSON(v)
	if err != nil {
		return "", err
	}
	tree, err := jbind.ParseString(text)
	if err != nil {
		return "", err
	}
	return f.String(tree), nil
}

// Parse parses a single JSON value from r and converts it to a T.
func Parse[T any](m *Mapper, r io.Reader) (T, error) {
	var out T
	err := m.Decode(r, &out)
	return out, err
}

// ParseString parses a single JSON value from s and converts it to a T.
func ParseString[T any](m *Mapper, s string) (T, error) {
	return Parse[T](m, strings.NewReader(s))
}

// ParseList parses a JSON array from r and converts each element to a T.
func ParseList[T any](m *Mapper, r io.Reader) ([]T, error) {
	return Parse[[]T](m, r)
}

// ParseTree converts a value tree to a T.
func ParseTree[T any](m *Mapper, tree any) (T, error) {
	var out T
	err := m.DecodeTree(tree, &out)
	return out, err
}

// Next reads the next value from rd and converts it to a T. It returns io.EOF
// at the end of the enclosing array or object, or at the end of input.
//
// For example, to read the elements of a large array one at a time:
//
//	rd := jbind.NewReader(input)
//	if err := rd.BeginArray(); err != nil {
//	   return err
//	}
//	for {
//	   u, err := bind.Next[User](m, rd)
//	   if err == io.EOF {
//	      break
//	   } else if err != nil {
//	      return err
//	   }
//	   process(u)
//	}
func Next[T any](m *Mapper, rd *jbind.Reader) (T, error) {
	var out T
	tree, err := rd.NextValue()
	if err != nil {
		return out, err
	}
	err = m.DecodeTree(tree, &out)
	return out, err
}

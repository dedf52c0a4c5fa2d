// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"

	"github.com/creachadair/jbind"
)

// A Converter converts values of the Go types it claims to and from JSON.
//
// ToJSON receives a value of a claimed type and returns its JSON text.
// FromJSON receives a node of the value tree and returns a value of the
// node's target type, or a value assignable or convertible to it.
type Converter interface {
	CanConvert(t reflect.Type) bool
	ToJSON(v any) (string, error)
	FromJSON(n Node) (any, error)
}

// A Node is a value of the tree being converted to a Go type.
type Node struct {
	Value    any          // a scalar, a *value.Object, a *value.Array, or nil
	Type     reflect.Type // the target type
	Property *Property    // the property being converted, or nil
	Path     string       // the location of Value, e.g., "$.a[0]"
	Mapper   *Mapper      // the mapper performing the conversion

	sess *session
}

// Decode converts v, a value nested inside n at the path suffix step (for
// example ".name" or "[2]"), to type t using the mapper that produced n.
func (n Node) Decode(v any, t reflect.Type, step string) (any, error) {
	rv, err := n.Mapper.decode(n.sess, v, t, nil, n.Path+step)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// Funcs returns a Converter that claims exactly type T, using to and from for
// the conversions.
func Funcs[T any](to func(T) (string, error), from func(Node) (T, error)) Converter {
	return funcConverter[T]{to: to, from: from}
}

type funcConverter[T any] struct {
	to   func(T) (string, error)
	from func(Node) (T, error)
}

func (c funcConverter[T]) CanConvert(t reflect.Type) bool { return t == reflect.TypeFor[T]() }

func (c funcConverter[T]) ToJSON(v any) (string, error) { return c.to(v.(T)) }

func (c funcConverter[T]) FromJSON(n Node) (any, error) { return c.from(n) }

// Converter returns the converter for values of type t, as the value of
// property p if p != nil. The candidates are consulted in this order:
//
//  1. The field converter named by the property's tag.
//  2. Converters added by RegisterConverter, most recent first.
//  3. The converter for encoding.TextMarshaler and TextUnmarshaler types.
//  4. The default converter, which claims every type.
func (m *Mapper) Converter(t reflect.Type, p *Property) (Converter, error) {
	if p != nil && p.ConvName != "" {
		c, ok := m.fieldConv[p.ConvName]
		if !ok {
			return nil, fmt.Errorf("no field converter named %q", p.ConvName)
		}
		return c, nil
	}
	for i := len(m.converters) - 1; i >= 0; i-- {
		if c := m.converters[i]; c.CanConvert(t) {
			return c, nil
		}
	}
	if (textConverter{}).CanConvert(t) {
		return textConverter{}, nil
	}
	return defaultConverter{m: m}, nil
}

// convError wraps err as a *ConversionError unless it already is one.
func convError(err error, path string, t reflect.Type, v any) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConversionError{Path: path, Type: t, Value: v, Err: err}
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// textConverter converts types that marshal themselves as text to and from
// JSON strings, for example time.Time and net/netip.Addr.
type textConverter struct{}

func (textConverter) CanConvert(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return false
	}
	return !isBuiltin(t) && t.Implements(textMarshalerType) &&
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func (textConverter) ToJSON(v any) (string, error) {
	text, err := v.(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return "", err
	}
	return jbind.Quote(string(text)), nil
}

func (textConverter) FromJSON(n Node) (any, error) {
	if n.Value == nil {
		return nil, nil
	}
	s, ok := n.Value.(string)
	if !ok {
		return nil, &ConversionError{Path: n.Path, Type: n.Type, Value: n.Value}
	}
	ptr := reflect.New(n.Type)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, &ConversionError{Path: n.Path, Type: n.Type, Value: n.Value, Err: err}
	}
	return ptr.Elem().Interface(), nil
}

// Enum returns a Converter that claims exactly type T, and converts values of
// T to and from the JSON strings given by names. Values without a name are
// not converted.
func Enum[T comparable](names map[T]string) Converter {
	c := enumConverter[T]{names: names, values: make(map[string]T, len(names))}
	for v, name := range names {
		c.values[name] = v
	}
	return c
}

type enumConverter[T comparable] struct {
	names  map[T]string
	values map[string]T
}

func (c enumConverter[T]) CanConvert(t reflect.Type) bool { return t == reflect.TypeFor[T]() }

func (c enumConverter[T]) ToJSON(v any) (string, error) {
	name, ok := c.names[v.(T)]
	if !ok {
		return "", &ConversionError{Type: reflect.TypeFor[T](), Value: v, Message: fmt.Sprintf("no name for value %v", v)}
	}
	return jbind.Quote(name), nil
}

func (c enumConverter[T]) FromJSON(n Node) (any, error) {
	s, ok := n.Value.(string)
	if !ok {
		return nil, &ConversionError{Path: n.Path, Type: n.Type, Value: n.Value}
	}
	v, ok := c.values[s]
	if !ok {
		return nil, &ConversionError{Path: n.Path, Type: n.Type, Value: n.Value, Message: fmt.Sprintf("unknown name %q", s)}
	}
	return v, nil
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/value"
	"github.com/golang/glog"
)

// A Param describes a parameter of a Constructor.
type Param struct {
	Name     string       // the JSON member supplying the argument
	Type     reflect.Type // the type of the argument
	Optional bool         // the member may be absent
	Default  any          // the argument for an absent optional member; nil for zero
}

// Required returns a required parameter of type T for member name.
func Required[T any](name string) Param {
	return Param{Name: name, Type: reflect.TypeFor[T]()}
}

// Optional returns an optional parameter of type T for member name, whose
// argument is def if the member is absent.
func Optional[T any](name string, def T) Param {
	return Param{Name: name, Type: reflect.TypeFor[T](), Optional: true, Default: def}
}

// Args are the arguments passed to a constructor.
type Args struct {
	vals    map[string]any
	present map[string]bool
}

// Has reports whether the argument for name was present in the input.
func (a Args) Has(name string) bool { return a.present[name] }

// Get returns the argument for name, or nil if there is none.
func (a Args) Get(name string) any { return a.vals[name] }

// Arg returns the argument for name as a value of type T, or the zero value
// of T if there is no such argument.
func Arg[T any](a Args, name string) T {
	v, _ := a.vals[name].(T)
	return v
}

// A Constructor builds a value of a type from the members of an object.
//
// The Mapper calls New only if every required parameter is present, passing
// the converted arguments. New returns a value of the constructed type or a
// pointer to one. Properties of the type not supplied as parameters are then
// filled from the object as usual.
type Constructor struct {
	Name   string
	Params []Param
	New    func(Args) (any, error)
}

// session is the state of a single conversion call.
type session struct {
	captures *jbind.PathSet // values observed at bound paths, or nil
}

func (s *session) lookup(path string) (any, bool) {
	if s == nil || s.captures == nil {
		return nil, false
	}
	return s.captures.Lookup(path)
}

// construct converts obj to struct type t. If constructors are registered for
// t they are tried in order, and the first to succeed is used; otherwise the
// zero value is the starting point. Any property not consumed by the
// constructor is then filled from obj.
func (m *Mapper) construct(s *session, obj *value.Object, t reflect.Type, path string) (reflect.Value, error) {
	ti, err := m.typeInfo(t)
	if err != nil {
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Err: err}
	}
	out := reflect.New(t).Elem()
	var used map[string]bool
	if cs := m.ctors[t]; len(cs) != 0 {
		var attempts []Attempt
		for _, c := range cs {
			rv, u, err := m.tryConstructor(s, obj, ti, t, c, path)
			if err != nil {
				if glog.V(3) {
					glog.Infof("jbind: constructor %s for %v at %s: %v", c.Name, t, path, err)
				}
				attempts = append(attempts, Attempt{Constructor: c.Name, Err: err})
				continue
			}
			out.Set(rv)
			used = u
			break
		}
		if used == nil {
			return reflect.Value{}, &NoSuitableConstructorError{Path: path, Type: t, Attempts: attempts}
		}
	}

	for _, p := range ti.props {
		if used[p.Name] {
			continue
		}
		ppath := path + "." + p.Name
		var raw any
		if p.Path != "" {
			v, ok := s.lookup(p.Path)
			if !ok {
				return reflect.Value{}, &MissingPathError{Path: p.Path, Field: p.Field}
			}
			raw, ppath = v, p.Path
		} else if v, ok := member(obj, p.Name); ok {
			raw = v
		} else {
			continue
		}
		fv, err := m.decodeProperty(s, obj, p, raw, p.Type, ppath)
		if err != nil {
			return reflect.Value{}, err
		}
		out.FieldByIndex(p.Index).Set(fv)
	}
	return out, nil
}

// tryConstructor attempts to construct a value of type t from obj using c.
// It reports the value and the set of member names consumed.
func (m *Mapper) tryConstructor(s *session, obj *value.Object, ti *typeInfo, t reflect.Type, c Constructor, path string) (reflect.Value, map[string]bool, error) {
	for _, p := range c.Params {
		if _, ok := member(obj, p.Name); !p.Optional && !ok {
			return reflect.Value{}, nil, fmt.Errorf("missing required parameter %q", p.Name)
		}
	}
	args := Args{vals: make(map[string]any), present: make(map[string]bool)}
	used := make(map[string]bool)
	for _, p := range c.Params {
		raw, ok := member(obj, p.Name)
		if !ok {
			dv, err := m.coerce(p.Default, p.Type, path+"."+p.Name)
			if err != nil {
				return reflect.Value{}, nil, err
			}
			args.vals[p.Name] = dv.Interface()
			continue
		}
		prop := ti.byName[p.Name]
		if prop != nil && prop.Type != p.Type {
			prop = nil
		}
		rv, err := m.decodeProperty(s, obj, prop, raw, p.Type, path+"."+p.Name)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		args.vals[p.Name] = rv.Interface()
		args.present[p.Name] = true
		used[p.Name] = true
	}
	v, err := c.New(args)
	if err != nil {
		return reflect.Value{}, nil, err
	} else if v == nil {
		return reflect.Value{}, nil, fmt.Errorf("constructor returned nil")
	}
	rv, err := m.coerce(v, t, path)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, used, nil
}

// decodeProperty converts raw to type t as the value of property p, which may
// be nil. If p names a discriminator, its concrete type is chosen by the
// property's adapter from the sibling member of obj.
func (m *Mapper) decodeProperty(s *session, obj *value.Object, p *Property, raw any, t reflect.Type, path string) (reflect.Value, error) {
	if p == nil || p.TypeFor == "" {
		return m.decode(s, raw, t, p, path)
	}
	a, ok := m.adapters[p.Adapter]
	if !ok {
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Message: fmt.Sprintf("no type adapter named %q", p.Adapter)}
	}
	disc, _ := obj.Get(p.TypeFor)
	ct, ok := a.SubtypeFor(disc)
	if !ok {
		return reflect.Value{}, &UnknownDiscriminantError{Path: path, Type: t, Field: p.TypeFor, Value: disc}
	}
	if raw == nil {
		return reflect.Zero(t), nil
	}
	if glog.V(3) {
		glog.Infof("jbind: %s=%v selects %v for %s", p.TypeFor, disc, ct, path)
	}
	cv, err := m.decode(s, raw, ct, nil, path)
	if err != nil {
		return reflect.Value{}, err
	}
	return assignTo(cv, t, path)
}

// member returns the value of key in obj, preferring an exact match and
// falling back to a case-insensitive one.
func member(obj *value.Object, key string) (any, bool) {
	if v, ok := obj.Get(key); ok {
		return v, true
	}
	for k, v := range obj.All() {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"unicode"
)

// A Property describes a struct field as seen by a Mapper.
type Property struct {
	Field    string       // the Go field name
	Name     string       // the JSON member name
	Type     reflect.Type // the declared type of the field
	Index    []int        // the field index sequence, for reflect.Value.FieldByIndex
	Tagged   bool         // the field has a jbind tag
	Ignored  bool         // the field does not participate in conversion
	Null     *bool        // serialize-null override; nil to inherit
	Order    int          // sort order for output
	Path     string       // if set, the field is read from this observed path
	TypeFor  string       // if set, the member naming the field's concrete type
	Adapter  string       // the name of the adapter used with TypeFor
	ConvName string       // if set, the name of the field converter
}

// A Renamer maps a Go field name to a JSON member name.
type Renamer func(name string) string

// SnakeCase is a Renamer that maps "FirstName" to "first_name".
var SnakeCase Renamer = CamelToUnderscores

// CamelToUnderscores converts a camel-case name to lower case words separated
// by underscores, e.g., "userID" becomes "user_i_d" and "FirstName" becomes
// "first_name".
func CamelToUnderscores(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// UnderscoreToCamel converts an underscore-separated name to camel case,
// e.g., "first_name" becomes "firstName".
func UnderscoreToCamel(s string) string {
	var sb strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// typeInfo is the cached descriptor table for a struct type.
type typeInfo struct {
	props  []*Property          // non-ignored properties in output order
	byName map[string]*Property // JSON name to property
}

// typeInfo returns the descriptor table for struct type t, computing and
// caching it on first use.
func (m *Mapper) typeInfo(t reflect.Type) (*typeInfo, error) {
	if v, ok := m.types.Load(t); ok {
		return v.(*typeInfo), nil
	}
	props, err := m.properties(t, nil)
	if err != nil {
		return nil, err
	}
	// Output order is by index then declaration; SortStableFunc keeps the
	// declaration order among equal indices.
	slices.SortStableFunc(props, func(a, b *Property) int {
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		}
		return 0
	})
	ti := &typeInfo{byName: make(map[string]*Property, len(props))}
	for _, p := range props {
		if _, dup := ti.byName[p.Name]; dup {
			return nil, fmt.Errorf("type %v: duplicate property name %q", t, p.Name)
		}
		ti.byName[p.Name] = p
		ti.props = append(ti.props, p)
	}
	v, _ := m.types.LoadOrStore(t, ti)
	return v.(*typeInfo), nil
}

// properties returns the properties of struct type t. Fields of embedded
// structs without a tag name are promoted.
func (m *Mapper) properties(t reflect.Type, index []int) ([]*Property, error) {
	var out []*Property
	for i := range t.NumField() {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup(TagKey)
		ft, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("type %v field %s: %w", t, f.Name, err)
		}
		fi := append(slices.Clip(index), i)
		if f.Anonymous && ft.Name == "" && f.Type.Kind() == reflect.Struct && !ft.Ignored {
			sub, err := m.properties(f.Type, fi)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if !f.IsExported() || ft.Ignored {
			continue
		}
		p := &Property{
			Field:    f.Name,
			Name:     f.Name,
			Type:     f.Type,
			Index:    fi,
			Tagged:   hasTag,
			Null:     ft.Null,
			Order:    math.MaxInt,
			Path:     ft.Path,
			TypeFor:  ft.TypeFor,
			Adapter:  ft.Adapter,
			ConvName: ft.Converter,
		}
		if ft.Name != "" {
			p.Name = ft.Name
		}
		if m.renamer != nil {
			p.Name = m.renamer(p.Name)
		}
		if ft.HasIndex {
			p.Order = ft.Index
		}
		if !m.accept(*p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Mapper) accept(p Property) bool {
	for _, ok := range m.strategies {
		if !ok(p) {
			return false
		}
	}
	return true
}

// boundPaths are the paths whose values a conversion needs.
type boundPaths struct {
	paths []string
	all   bool // a subtype could not be enumerated, so record every path
}

// pathsFor returns the bound paths of all properties reachable from t,
// including those of the subtypes chosen by registered type adapters.
func (m *Mapper) pathsFor(t reflect.Type) (boundPaths, error) {
	if v, ok := m.paths.Load(t); ok {
		return v.(boundPaths), nil
	}
	var out boundPaths
	seen := make(map[reflect.Type]bool)
	var walk func(reflect.Type) error
	walkAdapter := func(a TypeAdapter) error {
		tl, ok := a.(typeLister)
		if !ok {
			out.all = true
			return nil
		}
		for _, st := range tl.Types() {
			if err := walk(st); err != nil {
				return err
			}
		}
		return nil
	}
	walk = func(t reflect.Type) error {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice ||
			t.Kind() == reflect.Array || t.Kind() == reflect.Map {
			t = t.Elem()
		}
		if seen[t] {
			return nil
		}
		seen[t] = true
		if t.Kind() == reflect.Interface {
			if b, ok := m.subtypes[t]; ok {
				return walkAdapter(b.adapter)
			}
			return nil
		}
		if t.Kind() != reflect.Struct || isBuiltin(t) {
			return nil
		}
		ti, err := m.typeInfo(t)
		if err != nil {
			return err
		}
		for _, p := range ti.props {
			if p.Path != "" {
				out.paths = append(out.paths, p.Path)
			}
			if a, ok := m.adapters[p.Adapter]; ok && p.TypeFor != "" {
				if err := walkAdapter(a); err != nil {
					return err
				}
			}
			if err := walk(p.Type); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t); err != nil {
		return boundPaths{}, err
	}
	v, _ := m.paths.LoadOrStore(t, out)
	return v.(boundPaths), nil
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package value defines the generic value tree produced by parsing JSON text,
// and a renderer that converts values back to text.
//
// A value is one of
//
//	*Object    an ordered mapping from string keys to values
//	*Array     an ordered sequence of values
//	string     a string
//	bool       true or false
//	int32      an integer that fits in 32 bits
//	int64      an integer that fits in 64 bits but not 32
//	*big.Int   an integer too large for int64
//	float64    a number with a fraction or exponent
//	nil        null
//
// The renderer also accepts native Go maps, slices and numbers, treating them
// as if they were the corresponding tree values.
package value

import (
	"iter"
	"math/big"
	"slices"
)

// An Object is an ordered mapping from string keys to values. Keys are kept in
// order of first insertion. Setting an existing key replaces its value without
// changing its position. The zero value is not ready for use; call NewObject.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject constructs a new empty object.
func NewObject() *Object { return &Object{vals: make(map[string]any)} }

// Len reports the number of members of o.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Set sets the value of key in o to v.
func (o *Object) Set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get reports the value of key in o, and whether key is present.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present in o.
func (o *Object) Has(key string) bool { _, ok := o.Get(key); return ok }

// IsNull reports whether key is present in o with a null value.
func (o *Object) IsNull(key string) bool {
	v, ok := o.Get(key)
	return ok && v == nil
}

// Delete removes key from o, and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.vals[key]; !ok {
		return false
	}
	delete(o.vals, key)
	o.keys = slices.DeleteFunc(o.keys, func(s string) bool { return s == key })
	return true
}

// Keys returns a copy of the keys of o in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// All is a range function over the members of o in order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}
		for _, key := range o.keys {
			if !yield(key, o.vals[key]) {
				return
			}
		}
	}
}

// String reports the value of key if it is a string.
func (o *Object) String(key string) (string, bool) {
	v, _ := o.Get(key)
	s, ok := v.(string)
	return s, ok
}

// Bool reports the value of key if it is a bool.
func (o *Object) Bool(key string) (bool, bool) {
	v, _ := o.Get(key)
	b, ok := v.(bool)
	return b, ok
}

// Int reports the value of key if it is an integer that fits in an int.
func (o *Object) Int(key string) (int, bool) {
	v, _ := o.Get(key)
	z, ok := Int64Of(v)
	if !ok || int64(int(z)) != z {
		return 0, false
	}
	return int(z), true
}

// Int64 reports the value of key if it is an integer that fits in an int64.
func (o *Object) Int64(key string) (int64, bool) {
	v, _ := o.Get(key)
	return Int64Of(v)
}

// BigInt reports the value of key as a *big.Int if it is any integer.
func (o *Object) BigInt(key string) (*big.Int, bool) {
	v, _ := o.Get(key)
	return BigIntOf(v)
}

// Float reports the value of key as a float64 if it is any number.
func (o *Object) Float(key string) (float64, bool) {
	v, _ := o.Get(key)
	return Float64Of(v)
}

// Obj reports the value of key if it is an object.
func (o *Object) Obj(key string) (*Object, bool) {
	v, _ := o.Get(key)
	obj, ok := v.(*Object)
	return obj, ok
}

// Array reports the value of key if it is an array.
func (o *Object) Array(key string) (*Array, bool) {
	v, _ := o.Get(key)
	arr, ok := v.(*Array)
	return arr, ok
}

// An Array is an ordered sequence of values. Elements may be nil.
type Array struct {
	vals []any
}

// NewArray constructs a new array containing the specified values.
func NewArray(vs ...any) *Array { return &Array{vals: vs} }

// Len reports the number of elements of a.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.vals)
}

// At returns the element of a at offset i. It panics if i is out of range.
func (a *Array) At(i int) any { return a.vals[i] }

// Append adds vs to the end of a.
func (a *Array) Append(vs ...any) { a.vals = append(a.vals, vs...) }

// Values returns a copy of the elements of a.
func (a *Array) Values() []any {
	if a == nil {
		return nil
	}
	return slices.Clone(a.vals)
}

// All is a range function over the elements of a in order.
func (a *Array) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		if a == nil {
			return
		}
		for i, v := range a.vals {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Field returns an array with the value of key from each element of a.
// Elements that are not objects or that lack key contribute nil.
func (a *Array) Field(key string) *Array {
	out := &Array{vals: make([]any, a.Len())}
	for i, v := range a.All() {
		if obj, ok := v.(*Object); ok {
			out.vals[i], _ = obj.Get(key)
		}
	}
	return out
}

// Equal reports whether a and b are equivalent values. Objects are equal if
// they have the same keys with equal values regardless of order. Numbers are
// equal if they have the same numeric value, regardless of representation.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for key, xv := range x.All() {
			yv, ok := y.Get(key)
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, xv := range x.All() {
			if !Equal(xv, y.At(i)) {
				return false
			}
		}
		return true
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	if IsInteger(a) && IsInteger(b) {
		x, _ := BigIntOf(a)
		y, _ := BigIntOf(b)
		return x.Cmp(y) == 0
	}
	x, ok1 := Float64Of(a)
	y, ok2 := Float64Of(b)
	return ok1 && ok2 && x == y
}

// ToNative converts a value tree into native Go values: objects become
// map[string]any and arrays become []any. Scalars are returned unchanged.
func ToNative(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for key, elt := range t.All() {
			m[key] = ToNative(elt)
		}
		return m
	case *Array:
		out := make([]any, t.Len())
		for i, elt := range t.All() {
			out[i] = ToNative(elt)
		}
		return out
	default:
		return v
	}
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"encoding"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strconv"

	"github.com/creachadair/jbind/value"
	"github.com/valyala/bytebufferpool"
)

var (
	bigIntType   = reflect.TypeFor[big.Int]()
	bigFloatType = reflect.TypeFor[big.Float]()
	objectType   = reflect.TypeFor[*value.Object]()
	arrayType    = reflect.TypeFor[*value.Array]()
)

// isBuiltin reports whether t is a struct type the default converter handles
// directly rather than as an object.
func isBuiltin(t reflect.Type) bool {
	return t == bigIntType || t == bigFloatType || t == objectType.Elem() || t == arrayType.Elem()
}

// defaultConverter converts values by their reflected kind.
type defaultConverter struct{ m *Mapper }

func (defaultConverter) CanConvert(reflect.Type) bool { return true }

func (d defaultConverter) ToJSON(v any) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := d.m.encodeDefault(buf, reflect.ValueOf(v), "$"); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (d defaultConverter) FromJSON(n Node) (any, error) {
	rv, err := d.m.decodeDefault(n.sess, n.Value, n.Type, n.Path)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// decode converts the tree value v to type t, as the value of property p if
// p != nil, using the converter selected for t.
func (m *Mapper) decode(s *session, v any, t reflect.Type, p *Property, path string) (reflect.Value, error) {
	c, err := m.Converter(t, p)
	if err != nil {
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Err: err}
	}
	if _, ok := c.(defaultConverter); ok {
		return m.decodeDefault(s, v, t, path)
	}
	out, err := c.FromJSON(Node{Value: v, Type: t, Property: p, Path: path, Mapper: m, sess: s})
	if err != nil {
		return reflect.Value{}, convError(err, path, t, v)
	}
	return m.coerce(out, t, path)
}

// coerce converts x, the result of a converter, to a value of type t.
func (m *Mapper) coerce(x any, t reflect.Type, path string) (reflect.Value, error) {
	if x == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(x)
	rt := rv.Type()
	switch {
	case rt == t:
		return rv, nil
	case rt.AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	case t.Kind() == reflect.Pointer && rt.AssignableTo(t.Elem()):
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	case rt.Kind() == reflect.Pointer && rt.Elem().AssignableTo(t):
		if rv.IsNil() {
			return reflect.Zero(t), nil
		}
		return m.coerce(rv.Elem().Interface(), t, path)
	case value.IsNumber(x) && isNumberKind(t.Kind()):
		return m.decodeDefault(nil, x, t, path)
	case rt.ConvertibleTo(t) && rt.Kind() == t.Kind():
		return rv.Convert(t), nil
	}
	return reflect.Value{}, &ConversionError{
		Path: path, Type: t, Value: x,
		Message: fmt.Sprintf("converter returned %T, not %v", x, t),
	}
}

func isNumberKind(k reflect.Kind) bool {
	return reflect.Int <= k && k <= reflect.Float64
}

// decodeDefault converts the tree value v to type t by the kind of t.
func (m *Mapper) decodeDefault(s *session, v any, t reflect.Type, path string) (reflect.Value, error) {
	mismatch := func() (reflect.Value, error) {
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Value: v}
	}
	overflow := func() (reflect.Value, error) {
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Value: v, Message: fmt.Sprintf("value %v overflows %v", v, t)}
	}
	if v == nil {
		return reflect.Zero(t), nil
	}

	switch t {
	case objectType:
		if _, ok := v.(*value.Object); ok {
			return reflect.ValueOf(v), nil
		}
		return mismatch()
	case arrayType:
		if _, ok := v.(*value.Array); ok {
			return reflect.ValueOf(v), nil
		}
		return mismatch()
	case bigIntType:
		z, ok := value.BigIntOf(v)
		if !ok {
			return mismatch()
		}
		return reflect.ValueOf(z).Elem(), nil
	case bigFloatType:
		if z, ok := value.BigIntOf(v); ok {
			return reflect.ValueOf(new(big.Float).SetInt(z)).Elem(), nil
		} else if f, ok := value.Float64Of(v); ok {
			return reflect.ValueOf(big.NewFloat(f)).Elem(), nil
		}
		return mismatch()
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Pointer:
		ev, err := m.decode(s, v, t.Elem(), nil, path)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(ev)
		return ptr, nil

	case reflect.Interface:
		return m.decodeInterface(s, v, t, path)

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		out.SetBool(b)

	case reflect.String:
		str, ok := v.(string)
		if !ok {
			return mismatch()
		}
		out.SetString(str)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		z, ok := value.Int64Of(v)
		if !ok {
			if value.IsInteger(v) {
				return overflow()
			}
			return mismatch()
		} else if out.OverflowInt(z) {
			return overflow()
		}
		out.SetInt(z)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		z, ok := value.BigIntOf(v)
		if !ok {
			return mismatch()
		} else if z.Sign() < 0 || !z.IsUint64() || out.OverflowUint(z.Uint64()) {
			return overflow()
		}
		out.SetUint(z.Uint64())

	case reflect.Float32, reflect.Float64:
		f, ok := value.Float64Of(v)
		if !ok {
			return mismatch()
		}
		out.SetFloat(f)

	case reflect.Slice:
		arr, ok := v.(*value.Array)
		if !ok {
			return mismatch()
		}
		out = reflect.MakeSlice(t, arr.Len(), arr.Len())
		if err := m.decodeElements(s, arr, out, path); err != nil {
			return reflect.Value{}, err
		}

	case reflect.Array:
		arr, ok := v.(*value.Array)
		if !ok {
			return mismatch()
		} else if arr.Len() > t.Len() {
			return reflect.Value{}, &ConversionError{
				Path: path, Type: t, Value: v,
				Message: fmt.Sprintf("array of length %d does not fit %v", arr.Len(), t),
			}
		}
		if err := m.decodeElements(s, arr, out, path); err != nil {
			return reflect.Value{}, err
		}

	case reflect.Map:
		obj, ok := v.(*value.Object)
		if !ok {
			return mismatch()
		}
		out = reflect.MakeMapWithSize(t, obj.Len())
		for key, ev := range obj.All() {
			kv, err := mapKey(key, t.Key())
			if err != nil {
				return reflect.Value{}, &ConversionError{Path: path, Type: t.Key(), Value: key, Err: err}
			}
			elt, err := m.decode(s, ev, t.Elem(), nil, path+"."+key)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kv, elt)
		}

	case reflect.Struct:
		obj, ok := v.(*value.Object)
		if !ok {
			return mismatch()
		}
		return m.construct(s, obj, t, path)

	default:
		return reflect.Value{}, &ConversionError{Path: path, Type: t, Value: v, Message: fmt.Sprintf("unsupported type %v", t)}
	}
	return out, nil
}

func (m *Mapper) decodeElements(s *session, arr *value.Array, out reflect.Value, path string) error {
	et := out.Type().Elem()
	for i, ev := range arr.All() {
		elt, err := m.decode(s, ev, et, nil, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return err
		}
		out.Index(i).Set(elt)
	}
	return nil
}

// decodeInterface converts v to interface type t. An interface with subtypes
// registered is resolved by its discriminator; the empty interface receives
// the native form of v.
func (m *Mapper) decodeInterface(s *session, v any, t reflect.Type, path string) (reflect.Value, error) {
	if b, ok := m.subtypes[t]; ok {
		obj, ok := v.(*value.Object)
		if !ok {
			return reflect.Value{}, &ConversionError{Path: path, Type: t, Value: v}
		}
		disc, _ := obj.Get(b.field)
		ct, ok := b.adapter.SubtypeFor(disc)
		if !ok {
			return reflect.Value{}, &UnknownDiscriminantError{Path: path, Type: t, Field: b.field, Value: disc}
		}
		cv, err := m.decode(s, v, ct, nil, path)
		if err != nil {
			return reflect.Value{}, err
		}
		return assignTo(cv, t, path)
	}
	if t.NumMethod() != 0 {
		return reflect.Value{}, &ConversionError{
			Path: path, Type: t, Value: v,
			Message: fmt.Sprintf("no subtypes registered for %v", t),
		}
	}
	out := reflect.New(t).Elem()
	out.Set(reflect.ValueOf(value.ToNative(v)))
	return out, nil
}

// assignTo returns cv as a value of type t, taking its address if that is
// what implements t.
func assignTo(cv reflect.Value, t reflect.Type, path string) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if cv.Type().AssignableTo(t) {
		out.Set(cv)
		return out, nil
	} else if reflect.PointerTo(cv.Type()).AssignableTo(t) {
		ptr := reflect.New(cv.Type())
		ptr.Elem().Set(cv)
		out.Set(ptr)
		return out, nil
	}
	return reflect.Value{}, &ConversionError{
		Path: path, Type: t, Value: cv.Interface(),
		Message: fmt.Sprintf("%v is not assignable to %v", cv.Type(), t),
	}
}

// mapKey converts an object key to a map key of type kt.
func mapKey(key string, kt reflect.Type) (reflect.Value, error) {
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) {
		ptr := reflect.New(kt)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(key)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}
	out := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.String:
		out.SetString(key)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		z, err := strconv.ParseInt(key, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(z)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		z, err := strconv.ParseUint(key, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(z)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported map key type %v", kt)
	}
	return out, nil
}

// mapKeyString converts a map key to an object key.
func mapKeyString(k reflect.Value) (string, error) {
	if k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		return string(text), err
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("unsupported map key type %v", k.Type())
}

// encode writes the JSON text of v, as the value of property p if p != nil,
// using the converter selected for the dynamic type of v.
func (m *Mapper) encode(buf *bytebufferpool.ByteBuffer, v reflect.Value, p *Property, path string) error {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() == reflect.Interface {
		buf.WriteString("null")
		return nil
	}
	c, err := m.Converter(v.Type(), p)
	if err != nil {
		return &ConversionError{Path: path, Type: v.Type(), Err: err}
	}
	if _, ok := c.(defaultConverter); ok {
		return m.encodeDefault(buf, v, path)
	}
	text, err := c.ToJSON(v.Interface())
	if err != nil {
		if ce, ok := err.(*ConversionError); ok {
			if ce.Path == "" {
				ce.Path = path
			}
			return ce
		}
		return &ConversionError{Path: path, Type: v.Type(), Value: v.Interface(), Err: err}
	}
	buf.WriteString(text)
	return nil
}

// encodeDefault writes the JSON text of v by its kind.
func (m *Mapper) encodeDefault(buf *bytebufferpool.ByteBuffer, v reflect.Value, path string) error {
	if !v.IsValid() {
		buf.WriteString("null")
		return nil
	}
	switch v.Type() {
	case objectType, arrayType:
		buf.WriteString(value.JSON(v.Interface()))
		return nil
	case bigIntType:
		z := v.Interface().(big.Int)
		buf.B = z.Append(buf.B, 10)
		return nil
	case bigFloatType:
		f := v.Interface().(big.Float)
		buf.WriteString(value.JSON(&f))
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return m.encode(buf, v.Elem(), nil, path)

	case reflect.String:
		buf.B = value.AppendQuote(buf.B, v.String())

	case reflect.Bool:
		buf.B = strconv.AppendBool(buf.B, v.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.B = strconv.AppendInt(buf.B, v.Int(), 10)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.B = strconv.AppendUint(buf.B, v.Uint(), 10)

	case reflect.Float32:
		buf.WriteString(value.JSON(float32(v.Float())))

	case reflect.Float64:
		buf.WriteString(value.JSON(v.Float()))

	case reflect.Slice:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		fallthrough
	case reflect.Array:
		buf.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := m.encode(buf, v.Index(i), nil, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case reflect.Map:
		if v.IsNil() {
			buf.WriteString("null")
			return nil
		}
		type member struct {
			key string
			val reflect.Value
		}
		mem := make([]member, 0, v.Len())
		for it := v.MapRange(); it.Next(); {
			key, err := mapKeyString(it.Key())
			if err != nil {
				return &ConversionError{Path: path, Type: v.Type().Key(), Value: it.Key().Interface(), Err: err}
			}
			mem = append(mem, member{key, it.Value()})
		}
		slices.SortFunc(mem, func(a, b member) int {
			switch {
			case a.key < b.key:
				return -1
			case a.key > b.key:
				return 1
			}
			return 0
		})
		buf.WriteByte('{')
		for i, e := range mem {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.B = value.AppendQuote(buf.B, e.key)
			buf.WriteByte(':')
			if err := m.encode(buf, e.val, nil, path+"."+e.key); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	case reflect.Struct:
		return m.encodeStruct(buf, v, path)

	default:
		return &ConversionError{Path: path, Type: v.Type(), Message: fmt.Sprintf("unsupported type %v", v.Type())}
	}
	return nil
}

func (m *Mapper) encodeStruct(buf *bytebufferpool.ByteBuffer, v reflect.Value, path string) error {
	ti, err := m.typeInfo(v.Type())
	if err != nil {
		return &ConversionError{Path: path, Type: v.Type(), Err: err}
	}
	buf.WriteByte('{')
	first := true
	for _, p := range ti.props {
		fv := v.FieldByIndex(p.Index)
		if isNil(fv) && !m.serializeNull(p) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.B = value.AppendQuote(buf.B, p.Name)
		buf.WriteByte(':')
		if err := m.encode(buf, fv, p, path+"."+p.Name); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package value

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/jbind/internal/escape"
	"github.com/valyala/bytebufferpool"
	"go4.org/mem"
)

// A Formatter renders values as JSON text. The zero value renders compact
// text with no whitespace.
type Formatter struct {
	// Pretty puts each object member on its own line, indented by two spaces
	// per level of nesting. Array elements are separated by ", ".
	Pretty bool

	// Canonical sorts object keys, renders floating-point values in a fixed
	// mantissa and exponent form, and disables Pretty.
	Canonical bool
}

// JSON renders v as compact JSON text.
func JSON(v any) string { return Formatter{}.String(v) }

// Pretty renders v as indented JSON text.
func Pretty(v any) string { return Formatter{Pretty: true}.String(v) }

// Canonical renders v as canonical JSON text.
func Canonical(v any) string { return Formatter{Canonical: true}.String(v) }

// String renders v as JSON text.
func (f Formatter) String(v any) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	f.render(buf, v, 0)
	return buf.String()
}

// Format writes the JSON rendering of v to w.
func (f Formatter) Format(w io.Writer, v any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	f.render(buf, v, 0)
	_, err := w.Write(buf.B)
	return err
}

// AppendQuote appends the quoted and escaped form of s to buf.
func AppendQuote(buf []byte, s string) []byte {
	buf = append(buf, '"')
	buf = escape.AppendQuote(buf, mem.S(s))
	return append(buf, '"')
}

func (f Formatter) pretty() bool { return f.Pretty && !f.Canonical }

func (f Formatter) render(buf *bytebufferpool.ByteBuffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Object:
		if t == nil {
			buf.WriteString("null")
			return
		}
		keys := t.keys
		if f.Canonical {
			keys = slices.Clone(keys)
			slices.Sort(keys)
		}
		f.renderObject(buf, keys, func(key string) any { return t.vals[key] }, level)
	case *Array:
		if t == nil {
			buf.WriteString("null")
			return
		}
		f.renderArray(buf, len(t.vals), t.At, level)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		f.renderObject(buf, keys, func(key string) any { return t[key] }, level)
	case []any:
		f.renderArray(buf, len(t), func(i int) any { return t[i] }, level)
	case string:
		buf.B = AppendQuote(buf.B, t)
	case bool:
		buf.B = strconv.AppendBool(buf.B, t)
	case float64:
		buf.B = f.appendFloat(buf.B, t, 64)
	case float32:
		buf.B = f.appendFloat(buf.B, float64(t), 32)
	case *big.Int:
		if t == nil {
			buf.WriteString("null")
		} else {
			buf.B = t.Append(buf.B, 10)
		}
	case big.Int:
		buf.B = t.Append(buf.B, 10)
	case *big.Float:
		if t == nil {
			buf.WriteString("null")
		} else if f.Canonical || t.IsInt() {
			x, _ := t.Float64()
			buf.B = f.appendFloat(buf.B, x, 64)
		} else {
			buf.B = t.Append(buf.B, 'g', -1)
		}
	default:
		if z, ok := Int64Of(v); ok {
			buf.B = strconv.AppendInt(buf.B, z, 10)
		} else if z, ok := BigIntOf(v); ok {
			buf.B = z.Append(buf.B, 10)
		} else {
			f.renderReflect(buf, reflect.ValueOf(v), level)
		}
	}
}

// renderReflect renders native maps, slices and arrays of any element type.
// Any other value is rendered as a string of its default format.
func (f Formatter) renderReflect(buf *bytebufferpool.ByteBuffer, rv reflect.Value, level int) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return
		}
		f.render(buf, rv.Elem().Interface(), level)
	case reflect.Map:
		if rv.IsNil() {
			buf.WriteString("null")
			return
		}
		index := make(map[string]reflect.Value, rv.Len())
		keys := make([]string, 0, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			key := fmt.Sprint(it.Key().Interface())
			index[key] = it.Value()
			keys = append(keys, key)
		}
		slices.Sort(keys)
		f.renderObject(buf, keys, func(key string) any { return index[key].Interface() }, level)
	case reflect.Slice:
		if rv.IsNil() {
			buf.WriteString("null")
			return
		}
		fallthrough
	case reflect.Array:
		f.renderArray(buf, rv.Len(), func(i int) any { return rv.Index(i).Interface() }, level)
	case reflect.String:
		buf.B = AppendQuote(buf.B, rv.String())
	case reflect.Bool:
		buf.B = strconv.AppendBool(buf.B, rv.Bool())
	case reflect.Float32, reflect.Float64:
		buf.B = f.appendFloat(buf.B, rv.Float(), rv.Type().Bits())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.B = strconv.AppendInt(buf.B, rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.B = strconv.AppendUint(buf.B, rv.Uint(), 10)
	default:
		if !rv.IsValid() {
			buf.WriteString("null")
			return
		}
		buf.B = AppendQuote(buf.B, fmt.Sprint(rv.Interface()))
	}
}

func (f Formatter) renderObject(buf *bytebufferpool.ByteBuffer, keys []string, get func(string) any, level int) {
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if f.pretty() {
			buf.WriteByte('\n')
			indent(buf, level+1)
		}
		buf.B = AppendQuote(buf.B, key)
		buf.WriteByte(':')
		if f.pretty() {
			buf.WriteByte(' ')
		}
		f.render(buf, get(key), level+1)
	}
	if f.pretty() && len(keys) != 0 {
		buf.WriteByte('\n')
		indent(buf, level)
	}
	buf.WriteByte('}')
}

func (f Formatter) renderArray(buf *bytebufferpool.ByteBuffer, n int, at func(int) any, level int) {
	buf.WriteByte('[')
	for i := range n {
		if i > 0 {
			buf.WriteByte(',')
			if f.pretty() {
				buf.WriteByte(' ')
			}
		}
		f.render(buf, at(i), level)
	}
	buf.WriteByte(']')
}

func indent(buf *bytebufferpool.ByteBuffer, level int) {
	for range level {
		buf.WriteString("  ")
	}
}

func (f Formatter) appendFloat(buf []byte, x float64, bits int) []byte {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return append(buf, "null"...)
	}
	if f.Canonical {
		return appendCanonicalFloat(buf, x)
	}
	abs := math.Abs(x)
	format := byte('f')
	if abs != 0 && (bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21)) {
		format = 'e'
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, x, format, -1, bits)
	if format == 'e' {
		// Clean up e-09 to e-9.
		n := len(buf)
		if n-start >= 4 && buf[n-4] == 'e' && buf[n-3] == '-' && buf[n-2] == '0' {
			buf[n-2] = buf[n-1]
			buf = buf[:n-1]
		}
		return buf
	}
	if !strings.ContainsAny(string(buf[start:]), ".e") {
		buf = append(buf, ".0"...)
	}
	return buf
}

// appendCanonicalFloat renders x with one integer digit, one to five
// fraction digits, and a decimal exponent, for example 1.5E3 or 2.0E-4.
func appendCanonicalFloat(buf []byte, x float64) []byte {
	s := strconv.FormatFloat(x, 'e', 5, 64)
	mant, exp, _ := strings.Cut(s, "e")
	mant = strings.TrimRight(mant, "0")
	if strings.HasSuffix(mant, ".") {
		mant += "0"
	}
	e, _ := strconv.Atoi(exp)
	buf = append(buf, mant...)
	buf = append(buf, 'E')
	return strconv.AppendInt(buf, int64(e), 10)
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote encodes a string to escape characters for inclusion in a JSON string.
// The result does not include the enclosing quotation marks.
//
// Besides the quotation mark and backslash, Quote escapes the C0 and C1
// control ranges and the general punctuation block (U+2000 to U+20FF) as
// \uXXXX, using the short forms \b \f \n \r \t where they exist.
func Quote(src mem.RO) []byte { return AppendQuote(nil, src) }

// AppendQuote appends the escaped encoding of src to buf and returns the
// extended slice.
func AppendQuote(buf []byte, src mem.RO) []byte {
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n = 1
		}
		switch {
		case r < ' ':
			if b := controlEsc[r]; b != 0 {
				buf = append(buf, '\\', b)
			} else {
				buf = appendUnicode(buf, r)
			}
		case r == '\\' || r == '"':
			buf = append(buf, '\\', byte(r))
		case r < utf8.RuneSelf && r != 0x7f:
			buf = append(buf, byte(r))
		case NeedsUnicode(r):
			buf = appendUnicode(buf, r)
		default:
			buf = utf8.AppendRune(buf, r)
		}
		src = src.SliceFrom(n)
	}
	return buf
}

// NeedsUnicode reports whether r is rendered as a \uXXXX escape.
func NeedsUnicode(r rune) bool {
	return r <= 0x1f || (r >= 0x7f && r <= 0x9f) || (r >= 0x2000 && r <= 0x20ff)
}

func appendUnicode(buf []byte, r rune) []byte {
	return append(buf, '\\', 'u',
		hexDigit[(r>>12)&15], hexDigit[(r>>8)&15], hexDigit[(r>>4)&15], hexDigit[r&15])
}

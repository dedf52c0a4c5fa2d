// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package bind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/jbind/value"
)

// ConversionError is reported when a value cannot be converted to or from
// its Go type.
type ConversionError struct {
	Path    string       // location of the value, e.g., "$.a[0]"
	Type    reflect.Type // the Go type involved
	Value   any          // the offending value, if any
	Message string       // description of the failure, if any
	Err     error        // underlying error, if any
}

func (e *ConversionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if msg == "" {
		msg = fmt.Sprintf("cannot convert %s to %v", describe(e.Value), e.Type)
	}
	if e.Path != "" {
		return fmt.Sprintf("conversion error at %s: %s", e.Path, msg)
	}
	return "conversion error: " + msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// An Attempt records a constructor that could not be used, and why.
type Attempt struct {
	Constructor string
	Err         error
}

// NoSuitableConstructorError is reported when none of the constructors
// registered for a type could be used to construct a value.
type NoSuitableConstructorError struct {
	Path     string
	Type     reflect.Type
	Attempts []Attempt
}

func (e *NoSuitableConstructorError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no suitable constructor for %v", e.Type)
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %s", e.Path)
	}
	for i, a := range e.Attempts {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %v", a.Constructor, a.Err)
	}
	return sb.String()
}

// Unwrap supports error wrapping, reporting the errors of all attempts.
func (e *NoSuitableConstructorError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// UnknownDiscriminantError is reported when a type adapter does not map a
// discriminator value to a concrete type.
type UnknownDiscriminantError struct {
	Path  string
	Type  reflect.Type // the declared type being resolved
	Field string       // the discriminator field
	Value any          // the discriminator value
}

func (e *UnknownDiscriminantError) Error() string {
	msg := fmt.Sprintf("unknown discriminant %s=%s for %v", e.Field, describe(e.Value), e.Type)
	if e.Path != "" {
		return fmt.Sprintf("at %s: %s", e.Path, msg)
	}
	return msg
}

// MissingPathError is reported when a property bound to a path has no value
// because the path was not observed while parsing.
type MissingPathError struct {
	Path  string // the bound path, e.g., "$.a.b"
	Field string // the Go field name
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("field %s: path %s was not found", e.Field, e.Path)
}

// describe returns a short description of a tree value for error messages.
func describe(v any) string {
	switch t := v.(type) {
	case *value.Object:
		return "object"
	case *value.Array:
		return "array"
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprintf("%T %v", v, v)
	}
}

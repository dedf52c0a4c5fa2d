// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package value

import (
	"math"
	"math/big"
)

// IsInteger reports whether v is a Go integer of any width, or a *big.Int.
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr, *big.Int:
		return true
	}
	return false
}

// IsNumber reports whether v is an integer or a floating-point number.
func IsNumber(v any) bool {
	switch v.(type) {
	case float32, float64, *big.Float:
		return true
	}
	return IsInteger(v)
}

// Int64Of reports the value of v as an int64, if v is an integer in range.
func Int64Of(v any) (int64, bool) {
	switch t := v.(type) {
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		return int64(t), uint64(t) <= math.MaxInt64
	case uint64:
		return int64(t), t <= math.MaxInt64
	case uintptr:
		return int64(t), uint64(t) <= math.MaxInt64
	case *big.Int:
		if t != nil && t.IsInt64() {
			return t.Int64(), true
		}
	}
	return 0, false
}

// BigIntOf reports the value of v as a fresh *big.Int, if v is an integer.
func BigIntOf(v any) (*big.Int, bool) {
	switch t := v.(type) {
	case *big.Int:
		if t == nil {
			return nil, false
		}
		return new(big.Int).Set(t), true
	case uint:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint64:
		return new(big.Int).SetUint64(t), true
	case uintptr:
		return new(big.Int).SetUint64(uint64(t)), true
	}
	if z, ok := Int64Of(v); ok {
		return big.NewInt(z), true
	}
	return nil, false
}

// Float64Of reports the value of v as a float64, if v is any number.
// Integers too large to represent exactly are rounded.
func Float64Of(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case *big.Float:
		if t == nil {
			return 0, false
		}
		f, _ := t.Float64()
		return f, true
	case *big.Int:
		if t == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f, true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	if z, ok := Int64Of(v); ok {
		return float64(z), true
	}
	return 0, false
}

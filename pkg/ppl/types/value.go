/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota

	Boolean
	String
	Int
	Float
	Tuple
	Composite
)

type Value interface {
	Kind() Kind
	String() string
}

type (
	nullVal      struct{}
	booleanVal   bool
	stringVal    string
	intVal       int64
	floatVal     float64
	tupleVal     []Value
	compositeVal map[string]Value
)

func (nullVal) Kind() Kind      { return Null }
func (booleanVal) Kind() Kind   { return Boolean }
func (stringVal) Kind() Kind    { return String }
func (intVal) Kind() Kind       { return Int }
func (floatVal) Kind() Kind     { return Float }
func (tupleVal) Kind() Kind     { return Tuple }
func (compositeVal) Kind() Kind { return Composite }

func (nullVal) String() string      { return "null" }
func (b booleanVal) String() string { return strconv.FormatBool(bool(b)) }
func (s stringVal) String() string  { return string(s) }
func (i intVal) String() string     { return strconv.FormatInt(int64(i), 10) }
func (f floatVal) String() string   { return strconv.FormatFloat(float64(f), 'f', -1, 64) }

func (t tupleVal) String() string {
	elements := make([]string, len(t))
	for i, v := range t {
		elements[i] = v.String()
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

func (c compositeVal) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ": " + c[k].String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func MakeNull() Value                             { return nullVal{} }
func MakeBoolean(b bool) Value                    { return booleanVal(b) }
func MakeString(s string) Value                   { return stringVal(s) }
func MakeInt(i int64) Value                       { return intVal(i) }
func MakeFloat(f float64) Value                   { return floatVal(f) }
func MakeTuple(values []Value) Value              { return tupleVal(values) }
func MakeComposite(values map[string]Value) Value { return compositeVal(values) }

func IsNull(v Value) bool {
	return v == nil || v.Kind() == Null
}

func BooleanVal(v Value) bool {
	switch x := v.(type) {
	case booleanVal:
		return bool(x)
	default:
		return false
	}
}

func StringVal(v Value) string {
	switch x := v.(type) {
	case stringVal:
		return string(x)
	default:
		panic("Not a string")
	}
}

func IntVal(v Value) int64 {
	switch x := v.(type) {
	case intVal:
		return int64(x)
	case floatVal:
		return int64(x)
	default:
		panic("Not an int")
	}
}

// FloatVal returns any numeric value as a float64.
func FloatVal(v Value) float64 {
	switch x := v.(type) {
	case intVal:
		return float64(x)
	case floatVal:
		return float64(x)
	default:
		panic("Not a number")
	}
}

func TupleVal(v Value) []Value {
	switch x := v.(type) {
	case tupleVal:
		return x
	default:
		panic("Not a tuple")
	}
}

func CompositeVal(v Value) map[string]Value {
	switch x := v.(type) {
	case compositeVal:
		return x
	default:
		panic("Not a composite")
	}
}

func IsNumber(v Value) bool {
	return v != nil && (v.Kind() == Int || v.Kind() == Float)
}

// Compare orders two values. ok is false if either value is null or the two
// values cannot be ordered against each other.
func Compare(a, b Value) (result int, ok bool) {
	if IsNull(a) || IsNull(b) {
		return 0, false
	}

	switch {
	case a.Kind() == Int && b.Kind() == Int:
		return compareOrdered(IntVal(a), IntVal(b)), true
	case IsNumber(a) && IsNumber(b):
		return compareOrdered(FloatVal(a), FloatVal(b)), true
	case a.Kind() == String && b.Kind() == String:
		return strings.Compare(StringVal(a), StringVal(b)), true
	case a.Kind() == Boolean && b.Kind() == Boolean:
		x, y := BooleanVal(a), BooleanVal(b)
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case a.Kind() == b.Kind():
		return strings.Compare(a.String(), b.String()), true
	}

	return 0, false
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Key renders a list of values as a string usable as a map key, such that
// two lists have the same key only if their values are equal.
func Key(values []Value) string {
	var b strings.Builder
	for _, v := range values {
		if v == nil {
			v = MakeNull()
		}
		fmt.Fprintf(&b, "%d:%d:%s|", v.Kind(), len(v.String()), v.String())
	}
	return b.String()
}

// Interface converts a value back into a plain Go value, for encoders.
func Interface(v Value) interface{} {
	switch x := v.(type) {
	case booleanVal:
		return bool(x)
	case stringVal:
		return string(x)
	case intVal:
		return int64(x)
	case floatVal:
		return float64(x)
	case tupleVal:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = Interface(e)
		}
		return out
	case compositeVal:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = Interface(e)
		}
		return out
	}
	return nil
}

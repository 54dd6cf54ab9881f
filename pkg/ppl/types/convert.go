/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package types

import (
	"fmt"
	"math"
)

// FromGo converts a decoded document value into a Value of the declared
// type. nil always becomes null.
func FromGo(x interface{}, t ExprType) (Value, error) {
	if x == nil {
		return MakeNull(), nil
	}

	switch t {
	case BOOLEAN:
		if b, ok := x.(bool); ok {
			return MakeBoolean(b), nil
		}
	case INTEGER, LONG:
		switch n := x.(type) {
		case int:
			return MakeInt(int64(n)), nil
		case int32:
			return MakeInt(int64(n)), nil
		case int64:
			return MakeInt(n), nil
		case uint64:
			if n <= math.MaxInt64 {
				return MakeInt(int64(n)), nil
			}
		case float64:
			if n == math.Trunc(n) {
				return MakeInt(int64(n)), nil
			}
		}
	case FLOAT, DOUBLE:
		switch n := x.(type) {
		case int:
			return MakeFloat(float64(n)), nil
		case int64:
			return MakeFloat(float64(n)), nil
		case float32:
			return MakeFloat(float64(n)), nil
		case float64:
			return MakeFloat(n), nil
		}
	case STRING:
		if s, ok := x.(string); ok {
			return MakeString(s), nil
		}
	case ARRAY:
		if list, ok := x.([]interface{}); ok {
			return infer(list), nil
		}
	case STRUCT:
		if m, ok := x.(map[string]interface{}); ok {
			return infer(m), nil
		}
	}

	return nil, fmt.Errorf("value %v (%T) is not a valid %s", x, x, t)
}

// infer converts nested document values whose types are not declared.
func infer(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return MakeNull()
	case bool:
		return MakeBoolean(v)
	case int:
		return MakeInt(int64(v))
	case int64:
		return MakeInt(v)
	case float64:
		return MakeFloat(v)
	case string:
		return MakeString(v)
	case []interface{}:
		values := make([]Value, len(v))
		for i, e := range v {
			values[i] = infer(e)
		}
		return MakeTuple(values)
	case map[string]interface{}:
		values := make(map[string]Value, len(v))
		for k, e := range v {
			values[k] = infer(e)
		}
		return MakeComposite(values)
	}
	return MakeString(fmt.Sprint(x))
}

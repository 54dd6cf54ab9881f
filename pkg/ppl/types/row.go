/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package types

// Row is a single result row, keyed by column name.
type Row map[string]Value

// Get returns the value of a column, or null if the row does not carry it.
func (r Row) Get(name string) Value {
	v, ok := r[name]
	if !ok || v == nil {
		return MakeNull()
	}
	return v
}

// Values returns the row's values in the order of columns.
func (r Row) Values(columns []Column) []Value {
	values := make([]Value, len(columns))
	for i, c := range columns {
		values[i] = r.Get(c.Name)
	}
	return values
}

// Copy returns a shallow copy of the row.
func (r Row) Copy() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

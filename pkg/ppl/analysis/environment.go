/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import "github.com/dburkart/ppl/pkg/ppl/types"

// environment is the ordered set of columns visible to the next command.
type environment struct {
	columns []types.Column
}

func newEnvironment(columns []types.Column) *environment {
	return &environment{columns: append([]types.Column(nil), columns...)}
}

func (e *environment) lookup(name string) (types.Column, bool) {
	for _, c := range e.columns {
		if c.Name == name {
			return c, true
		}
	}
	return types.Column{}, false
}

// put replaces the column with the same name, or appends it.
func (e *environment) put(c types.Column) {
	for i := range e.columns {
		if e.columns[i].Name == c.Name {
			e.columns[i] = c
			return
		}
	}
	e.columns = append(e.columns, c)
}

func (e *environment) rename(from, to string) {
	for i := range e.columns {
		if e.columns[i].Name == from {
			e.columns[i].Name = to
			return
		}
	}
}

func (e *environment) reset(columns []types.Column) {
	e.columns = append(e.columns[:0:0], columns...)
}

func (e *environment) snapshot() []types.Column {
	return append([]types.Column(nil), e.columns...)
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// MapStage rewrites every row it is handed, one at a time.
type MapStage struct {
	stage
	name string
	fn   func(types.Row) types.Row
}

func makeMapStage(name string, fn func(types.Row) types.Row) *MapStage {
	return &MapStage{
		stage: stage{input: make(chan []types.Row)},
		name:  name,
		fn:    fn,
	}
}

func (m *MapStage) Name() string {
	return m.name
}

func (m *MapStage) Execute(ctx context.Context) error {
	return m.each(ctx, func(rows []types.Row) []types.Row {
		out := make([]types.Row, len(rows))
		for i, row := range rows {
			out[i] = m.fn(row)
		}
		return out
	})
}

// MakeProjectStage keeps only columns, in order. Columns missing from a row
// come out as null.
func MakeProjectStage(columns []types.Column) *MapStage {
	names := types.ColumnNames(columns)

	return makeMapStage("project("+strings.Join(names, ", ")+")", func(row types.Row) types.Row {
		projected := make(types.Row, len(names))
		for _, name := range names {
			projected[name] = row.Get(name)
		}
		return projected
	})
}

func MakeRemoveStage(fields []*expr.Reference) *MapStage {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	return makeMapStage("remove("+strings.Join(names, ", ")+")", func(row types.Row) types.Row {
		out := row.Copy()
		for _, name := range names {
			delete(out, name)
		}
		return out
	})
}

func MakeRenameStage(mappings []logical.RenameMapping) *MapStage {
	pairs := make([]string, len(mappings))
	for i, m := range mappings {
		pairs[i] = m.From + " as " + m.To
	}

	return makeMapStage("rename("+strings.Join(pairs, ", ")+")", func(row types.Row) types.Row {
		out := row.Copy()
		for _, m := range mappings {
			if m.From == m.To {
				continue
			}
			v, ok := out[m.From]
			delete(out, m.From)
			if ok {
				out[m.To] = v
			}
		}
		return out
	})
}

// MakeEvalStage computes assignments in order, so later ones see the
// results of earlier ones.
func MakeEvalStage(assignments []logical.Assignment) *MapStage {
	names := make([]string, len(assignments))
	for i, a := range assignments {
		names[i] = a.Name
	}

	return makeMapStage("eval("+strings.Join(names, ", ")+")", func(row types.Row) types.Row {
		out := row.Copy()
		for _, a := range assignments {
			out[a.Name] = a.Expression.Evaluate(out)
		}
		return out
	})
}

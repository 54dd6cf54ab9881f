/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/physical"
	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/storage"
)

type Table struct {
	Name string

	schema   types.Schema
	rows     []types.Row
	rowsLock sync.RWMutex
	log      zerolog.Logger
}

// FieldTypes returns a copy of the table's schema.
func (t *Table) FieldTypes() types.Schema {
	fields := make(types.Schema, len(t.schema))
	for name, ft := range t.schema {
		fields[name] = ft
	}
	return fields
}

// Append converts a decoded document into a row and adds it to the table.
// Every field of the document must be declared by the schema.
func (t *Table) Append(document map[string]interface{}) error {
	row := make(types.Row, len(document))
	for field, x := range document {
		ft, ok := t.schema[field]
		if !ok {
			return errors.Errorf("table '%s' has no field '%s'", t.Name, field)
		}

		v, err := types.FromGo(x, ft)
		if err != nil {
			return errors.Wrapf(err, "field '%s'", field)
		}
		row[field] = v
	}

	t.AppendRow(row)
	return nil
}

func (t *Table) AppendRow(row types.Row) {
	t.rowsLock.Lock()
	defer t.rowsLock.Unlock()

	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	t.rowsLock.RLock()
	defer t.rowsLock.RUnlock()

	return len(t.rows)
}

// Implement builds a pipeline over this table's rows. The rows are captured
// when the pipeline executes, not when it is built.
func (t *Table) Implement(plan logical.Plan) (storage.PhysicalPlan, error) {
	relations := logical.Relations(plan)
	if len(relations) != 1 || relations[0].Name != t.Name {
		return nil, errors.Errorf("plan does not read from table '%s'", t.Name)
	}

	p, err := physical.Build(plan, t.scan)
	if err != nil {
		return nil, err
	}
	t.log.Trace().Str("pipeline", p.String()).Msg("implemented plan")

	return p, nil
}

func (t *Table) scan(ctx context.Context) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.rowsLock.RLock()
	defer t.rowsLock.RUnlock()

	// Rows are never modified in place, so a copy of the slice suffices.
	return append([]types.Row(nil), t.rows...), nil
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"
	"fmt"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// DedupStage keeps at most allowed rows for each combination of field
// values. Rows with a null in any field are dropped unless keepEmpty is set.
// With consecutive set, only runs of adjacent duplicates are collapsed.
type DedupStage struct {
	stage
	fields      []*expr.Reference
	allowed     int
	keepEmpty   bool
	consecutive bool

	seen    map[string]int
	lastKey string
	run     int
}

func MakeDedupStage(d *logical.Dedup) *DedupStage {
	return &DedupStage{
		stage:       stage{input: make(chan []types.Row)},
		fields:      d.Fields,
		allowed:     d.Allowed,
		keepEmpty:   d.KeepEmpty,
		consecutive: d.Consecutive,
		seen:        make(map[string]int),
	}
}

func (d *DedupStage) Name() string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return fmt.Sprintf("dedup(%d %s)", d.allowed, strings.Join(names, ", "))
}

func (d *DedupStage) Execute(ctx context.Context) error {
	return d.each(ctx, func(rows []types.Row) []types.Row {
		var kept []types.Row
		for _, row := range rows {
			if d.keep(row) {
				kept = append(kept, row)
			}
		}
		return kept
	})
}

func (d *DedupStage) keep(row types.Row) bool {
	values := make([]types.Value, len(d.fields))
	for i, f := range d.fields {
		values[i] = f.Evaluate(row)
		if types.IsNull(values[i]) {
			return d.keepEmpty
		}
	}
	key := types.Key(values)

	if d.consecutive {
		if key != d.lastKey || d.run == 0 {
			d.lastKey, d.run = key, 0
		}
		d.run++
		return d.run <= d.allowed
	}

	d.seen[key]++
	return d.seen[key] <= d.allowed
}

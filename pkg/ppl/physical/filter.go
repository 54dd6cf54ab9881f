/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"

	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

type FilterStage struct {
	stage
	condition expr.Expression
}

func MakeFilterStage(condition expr.Expression) *FilterStage {
	return &FilterStage{
		stage:     stage{input: make(chan []types.Row)},
		condition: condition,
	}
}

func (f *FilterStage) Name() string {
	return "filter(" + f.condition.String() + ")"
}

func (f *FilterStage) Execute(ctx context.Context) error {
	return f.each(ctx, func(rows []types.Row) []types.Row {
		var allowed []types.Row
		for _, row := range rows {
			if types.BooleanVal(f.condition.Evaluate(row)) {
				allowed = append(allowed, row)
			}
		}
		return allowed
	})
}

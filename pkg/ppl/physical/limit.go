/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"
	"fmt"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

type LimitStage struct {
	stage
	count int
	seen  int
}

func MakeLimitStage(count int) *LimitStage {
	return &LimitStage{
		stage: stage{input: make(chan []types.Row)},
		count: count,
	}
}

func (l *LimitStage) Name() string {
	return fmt.Sprintf("limit(%d)", l.count)
}

func (l *LimitStage) Execute(ctx context.Context) error {
	return l.each(ctx, func(rows []types.Row) []types.Row {
		remaining := l.count - l.seen
		if remaining <= 0 {
			return nil
		}
		if len(rows) > remaining {
			rows = rows[:remaining]
		}
		l.seen += len(rows)
		return rows
	})
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// SortStage orders every row it sees once its input is finished. Nulls sort
// before any other value.
type SortStage struct {
	stage
	items []logical.SortItem
	count int
	rows  []types.Row
}

func MakeSortStage(items []logical.SortItem, count int) *SortStage {
	return &SortStage{
		stage: stage{input: make(chan []types.Row)},
		items: items,
		count: count,
	}
}

func (s *SortStage) Name() string {
	fields := make([]string, len(s.items))
	for i, item := range s.items {
		fields[i] = "+" + item.Field.Name
		if item.Descending {
			fields[i] = "-" + item.Field.Name
		}
	}
	return fmt.Sprintf("sort(%d %s)", s.count, strings.Join(fields, ", "))
}

func (s *SortStage) Execute(ctx context.Context) error {
	return s.drain(ctx, func(rows []types.Row) {
		s.rows = append(s.rows, rows...)
	}, s.sorted)
}

func (s *SortStage) sorted() []types.Row {
	sort.SliceStable(s.rows, func(i, j int) bool {
		for _, item := range s.items {
			c := compareValues(item.Field.Evaluate(s.rows[i]), item.Field.Evaluate(s.rows[j]))
			if c == 0 {
				continue
			}
			if item.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if s.count > 0 && len(s.rows) > s.count {
		return s.rows[:s.count]
	}
	return s.rows
}

func compareValues(a, b types.Value) int {
	an, bn := types.IsNull(a), types.IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}

	if c, ok := types.Compare(a, b); ok {
		return c
	}
	return strings.Compare(a.String(), b.String())
}

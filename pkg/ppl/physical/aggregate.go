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
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// AggregateStage groups every row it sees and emits one row per group once
// its input is finished. Groups come out in the order they were first seen.
type AggregateStage struct {
	stage
	aggregators []*expr.Aggregator
	groupBy     []*expr.Reference
	groups      map[string]*group
	order       []string
}

type group struct {
	keys   []types.Value
	states []expr.AggregationState
}

func MakeAggregateStage(aggregators []*expr.Aggregator, groupBy []*expr.Reference) *AggregateStage {
	return &AggregateStage{
		stage:       stage{input: make(chan []types.Row)},
		aggregators: aggregators,
		groupBy:     groupBy,
		groups:      make(map[string]*group),
	}
}

func (a *AggregateStage) Name() string {
	aggs := make([]string, len(a.aggregators))
	for i, agg := range a.aggregators {
		aggs[i] = agg.Name
	}

	name := "aggregate(" + strings.Join(aggs, ", ")
	if len(a.groupBy) > 0 {
		by := make([]string, len(a.groupBy))
		for i, ref := range a.groupBy {
			by[i] = ref.Name
		}
		name += " by " + strings.Join(by, ", ")
	}
	return name + ")"
}

func (a *AggregateStage) Execute(ctx context.Context) error {
	return a.drain(ctx, a.iterate, a.results)
}

func (a *AggregateStage) iterate(rows []types.Row) {
	for _, row := range rows {
		keys := make([]types.Value, len(a.groupBy))
		for i, ref := range a.groupBy {
			keys[i] = ref.Evaluate(row)
		}

		g := a.group(keys)
		for _, state := range g.states {
			state.Iterate(row)
		}
	}
}

func (a *AggregateStage) group(keys []types.Value) *group {
	key := types.Key(keys)

	g, ok := a.groups[key]
	if !ok {
		g = &group{keys: keys, states: make([]expr.AggregationState, len(a.aggregators))}
		for i, agg := range a.aggregators {
			g.states[i] = agg.NewState()
		}
		a.groups[key] = g
		a.order = append(a.order, key)
	}
	return g
}

func (a *AggregateStage) results() []types.Row {
	// Without a group-by there is always exactly one result, even over no rows.
	if len(a.groupBy) == 0 && len(a.order) == 0 {
		a.group(nil)
	}

	rows := make([]types.Row, 0, len(a.order))
	for _, key := range a.order {
		g := a.groups[key]

		row := make(types.Row, len(a.aggregators)+len(a.groupBy))
		for i, agg := range a.aggregators {
			row[agg.Name] = g.states[i].Result()
		}
		for i, ref := range a.groupBy {
			row[ref.Name] = g.keys[i]
		}
		rows = append(rows, row)
	}
	return rows
}

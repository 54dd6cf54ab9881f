/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package physical runs logical plans over rows held in memory. Each
// operator is a stage running in its own goroutine, passing batches of rows
// to the next stage over a channel.
package physical

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

const batchSize = 64

// ScanFunc produces the rows of the relation a pipeline reads from.
type ScanFunc func(ctx context.Context) ([]types.Row, error)

type Stage interface {
	Chain(Stage)
	Next() Stage
	Add(ctx context.Context, rows []types.Row)
	Finish()
	Execute(ctx context.Context) error
	Name() string
}

type Pipeline struct {
	// nodes between the relation and the output, in the order rows visit
	// them.
	nodes   []logical.Plan
	columns []types.Column
	scan    ScanFunc
}

// Build turns plan into a pipeline reading its relation through scan.
func Build(plan logical.Plan, scan ScanFunc) (p *Pipeline, err error) {
	output, ok := plan.(*logical.Output)
	if !ok {
		return nil, errors.Errorf("plan must be rooted at an output, found %T", plan)
	}
	if scan == nil {
		return nil, errors.New("no source to scan")
	}

	var nodes []logical.Plan
	for node := output.Child; node != nil; {
		children := node.Children()
		switch len(children) {
		case 0:
			if _, ok := node.(*logical.Relation); !ok {
				return nil, errors.Errorf("plan must read from a relation, found %T", node)
			}
			node = nil
		case 1:
			nodes = append([]logical.Plan{node}, nodes...)
			node = children[0]
		default:
			return nil, errors.Errorf("%T has %d inputs, only one is supported", node, len(children))
		}
	}

	p = &Pipeline{nodes: nodes, columns: output.Columns, scan: scan}

	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errors.Errorf("%v", r)
		}
	}()
	p.stages()

	return p, nil
}

// MakeStage returns the stage implementing a single logical node.
func MakeStage(node logical.Plan) Stage {
	switch n := node.(type) {
	case *logical.Filter:
		return MakeFilterStage(n.Condition)
	case *logical.Project:
		return MakeProjectStage(n.Schema())
	case *logical.Remove:
		return MakeRemoveStage(n.Fields)
	case *logical.Rename:
		return MakeRenameStage(n.Mappings)
	case *logical.Eval:
		return MakeEvalStage(n.Assignments)
	case *logical.Aggregation:
		return MakeAggregateStage(n.Aggregators, n.GroupBy)
	case *logical.Dedup:
		return MakeDedupStage(n)
	case *logical.Sort:
		return MakeSortStage(n.Items, n.Count)
	case *logical.Limit:
		return MakeLimitStage(n.Count)
	}

	panic(fmt.Sprintf("Unsupported plan node: %T", node))
}

type stageList []Stage

func (l *stageList) Add(s Stage) {
	if len(*l) > 0 {
		(*l)[len(*l)-1].Chain(s)
	}
	*l = append(*l, s)
}

func (l *stageList) Finalize() {
	l.Add(MakeCollectStage())
}

// stages builds a fresh set of connected stages. Channels cannot be reused
// once closed, so every execution gets its own.
func (p *Pipeline) stages() []Stage {
	var l stageList
	for _, node := range p.nodes {
		l.Add(MakeStage(node))
	}
	l.Add(MakeProjectStage(p.columns))
	l.Finalize()
	return l
}

func (p *Pipeline) Schema() []types.Column {
	return p.columns
}

// String lists the stages in the order rows flow through them.
func (p *Pipeline) String() string {
	names := []string{"scan"}
	for _, s := range p.stages() {
		names = append(names, s.Name())
	}
	return strings.Join(names, " -> ")
}

// Execute runs every stage and returns the collected rows. A pipeline may be
// executed more than once.
func (p *Pipeline) Execute(ctx context.Context) ([]types.Row, error) {
	rows, err := p.scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "scanning source")
	}

	g, gctx := errgroup.WithContext(ctx)
	stages := p.stages()
	collect := stages[len(stages)-1].(*CollectStage)

	for _, stage := range stages {
		stage := stage
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("%s: %v", stage.Name(), r)
				}
			}()
			return stage.Execute(gctx)
		})
	}

	g.Go(func() error {
		first := stages[0]
		defer first.Finish()

		for start := 0; start < len(rows); start += batchSize {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			end := start + batchSize
			if end > len(rows) {
				end = len(rows)
			}
			first.Add(gctx, rows[start:end])
		}
		return nil
	})

	results := make([]types.Row, 0)
	for batch := range collect.Output {
		results = append(results, batch...)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// stage holds what every pipeline stage needs: its input channel and the
// stage it feeds.
type stage struct {
	next  Stage
	input chan []types.Row
	once  sync.Once
}

func (s *stage) Chain(next Stage) {
	s.next = next
}

func (s *stage) Next() Stage {
	return s.next
}

func (s *stage) Add(ctx context.Context, rows []types.Row) {
	select {
	case s.input <- rows:
	case <-ctx.Done():
	}
}

func (s *stage) Finish() {
	s.once.Do(func() {
		close(s.input)
	})
}

// each calls fn for every batch until the input is finished, forwarding
// whatever fn returns.
func (s *stage) each(ctx context.Context, fn func([]types.Row) []types.Row) error {
	defer s.next.Finish()

	for {
		select {
		case rows, ok := <-s.input:
			if !ok {
				return nil
			}
			if out := fn(rows); len(out) > 0 {
				s.next.Add(ctx, out)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain calls fn for every batch, then flush once the input is finished.
func (s *stage) drain(ctx context.Context, fn func([]types.Row), flush func() []types.Row) error {
	defer s.next.Finish()

	for {
		select {
		case rows, ok := <-s.input:
			if !ok {
				if out := flush(); len(out) > 0 {
					for start := 0; start < len(out); start += batchSize {
						end := start + batchSize
						if end > len(out) {
							end = len(out)
						}
						s.next.Add(ctx, out[start:end])
					}
				}
				return ctx.Err()
			}
			fn(rows)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type CollectStage struct {
	Output chan []types.Row
	once   sync.Once
}

func MakeCollectStage() *CollectStage {
	return &CollectStage{
		Output: make(chan []types.Row),
	}
}

func (c *CollectStage) Chain(Stage)                   {}
func (c *CollectStage) Next() Stage                   { return nil }
func (c *CollectStage) Execute(context.Context) error { return nil }
func (c *CollectStage) Name() string                  { return "collect" }

func (c *CollectStage) Finish() {
	c.once.Do(func() {
		close(c.Output)
	})
}

func (c *CollectStage) Add(ctx context.Context, rows []types.Row) {
	select {
	case c.Output <- rows:
	case <-ctx.Done():
	}
}

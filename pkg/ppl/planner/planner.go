/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package planner hands a bound logical plan to the table it reads from and
// gets back something the execution engine can run.
package planner

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/storage"
)

// CompilationError reports that a valid logical plan could not be turned into
// a physical plan.
type CompilationError struct {
	Source string
	Err    error
}

func (c *CompilationError) Error() string {
	if c.Source == "" {
		return fmt.Sprintf("unable to compile plan: %s", c.Err)
	}
	return fmt.Sprintf("unable to compile plan for '%s': %s", c.Source, c.Err)
}

func (c *CompilationError) Unwrap() error {
	return c.Err
}

type Planner struct {
	engine storage.StorageEngine
}

func New(engine storage.StorageEngine) *Planner {
	return &Planner{engine: engine}
}

// Plan asks the table read by plan to implement it.
func (p *Planner) Plan(plan logical.Plan) (physical storage.PhysicalPlan, err error) {
	if plan == nil {
		return nil, &CompilationError{Err: errors.New("no logical plan")}
	}

	relations := logical.Relations(plan)
	if len(relations) != 1 {
		return nil, &CompilationError{Err: errors.Errorf("expected exactly one source, found %d", len(relations))}
	}
	source := relations[0].Name

	defer func() {
		if r := recover(); r != nil {
			physical, err = nil, &CompilationError{Source: source, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	table, err := p.engine.GetTable(source)
	if err != nil {
		return nil, &CompilationError{Source: source, Err: errors.Wrap(err, "resolving source")}
	}
	if table == nil {
		return nil, &CompilationError{Source: source, Err: storage.ErrTableNotFound}
	}

	physical, err = table.Implement(plan)
	if err != nil {
		return nil, &CompilationError{Source: source, Err: err}
	}
	if physical == nil {
		return nil, &CompilationError{Source: source, Err: errors.New("table produced no physical plan")}
	}

	return physical, nil
}

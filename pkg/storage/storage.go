/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package storage defines the provider of queryable tables. Implementations
// must be safe for concurrent readers.
package storage

import (
	"context"
	"errors"

	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

var ErrTableNotFound = errors.New("table not found")

type StorageEngine interface {
	// GetTable returns the table called name, or an error wrapping
	// ErrTableNotFound.
	GetTable(name string) (Table, error)
}

type Table interface {
	FieldTypes() types.Schema
	// Implement turns a bound logical plan reading from this table into
	// something that can be executed.
	Implement(plan logical.Plan) (PhysicalPlan, error)
}

type PhysicalPlan interface {
	Schema() []types.Column
	Execute(ctx context.Context) ([]types.Row, error)
}

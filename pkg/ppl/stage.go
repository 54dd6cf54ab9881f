/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import "github.com/dburkart/ppl/pkg/common/failure"

// Stage is how far a query has progressed.
type Stage int

const (
	Received Stage = iota
	Parsed
	Bound
	Compiled
	Submitted
	Completed
	Failed
)

func (s Stage) String() string {
	switch s {
	case Received:
		return "received"
	case Parsed:
		return "parsed"
	case Bound:
		return "bound"
	case Compiled:
		return "compiled"
	case Submitted:
		return "submitted"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// failureKind returns the kind of failure raised by the work done after
// reaching s.
func (s Stage) failureKind() failure.Kind {
	switch s {
	case Received:
		return failure.Syntax
	case Parsed:
		return failure.Binding
	case Bound:
		return failure.Compilation
	}
	return failure.Execution
}

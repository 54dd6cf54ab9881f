/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package failure holds the taxonomy of errors a query can end with. Every
// error delivered to a caller's listener is a *Failure.
package failure

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota

	// Syntax means the query text does not conform to the grammar.
	Syntax
	// Binding means a source or field could not be resolved, or a field was
	// used with an operation its type does not support.
	Binding
	// Compilation means the source could not produce a physical plan.
	Compilation
	// Execution means the execution engine reported an error after the plan
	// was submitted.
	Execution
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case Binding:
		return "binding"
	case Compilation:
		return "compilation"
	case Execution:
		return "execution"
	}
	return "unknown"
}

type Failure struct {
	Kind Kind
	// Fragment is the offending token, field or source name, when known.
	Fragment string
	Err      error
}

func New(kind Kind, fragment string, err error) *Failure {
	return &Failure{Kind: kind, Fragment: fragment, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s error", f.Kind)
	}
	return fmt.Sprintf("%s error: %s", f.Kind, f.Err.Error())
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the Kind of the first *Failure in err's chain, or Unknown.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

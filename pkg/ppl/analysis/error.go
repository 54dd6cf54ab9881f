/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"
	"strings"

	"github.com/dburkart/ppl/pkg/common/parse"
)

// BindingError reports a query that parsed, but references a source or
// field that does not exist, or uses a field in a way its type forbids.
type BindingError struct {
	parse.Location
	Fragment string
	Message  string
	Input    string
	// Cause is set when the storage engine itself failed.
	Cause error
}

func newBindingError(t parse.Token, format string, args ...interface{}) *BindingError {
	return &BindingError{
		Location: t.Location,
		Fragment: t.Lexeme,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (b *BindingError) Error() string {
	if b.Input == "" || b.Fragment == "" {
		return b.Message
	}

	start := b.Location.Start
	if start > len(b.Input) {
		start = len(b.Input)
	}

	var s strings.Builder
	s.WriteString(b.Message)
	s.WriteString("\n    ")
	s.WriteString(b.Input)
	s.WriteString("\n    ")
	s.WriteString(strings.Repeat(" ", start))
	s.WriteString("^")
	if width := len(b.Fragment) - 1; width > 0 {
		s.WriteString(strings.Repeat("~", width))
	}
	return s.String()
}

func (b *BindingError) Unwrap() error {
	return b.Cause
}

/*
 * Copyright (c) 2022, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package parse

import (
	"fmt"
	"strings"
)

// SyntaxError points at the fragment of the query which could not be parsed.
// Input is filled in by the parser once the error escapes, so that Error()
// can render the query with a caret under the offending fragment.
type SyntaxError struct {
	Location Location
	Fragment string
	Message  string
	Input    string
}

func NewSyntaxError(t Token, m string) SyntaxError {
	return SyntaxError{Location: t.Location, Fragment: t.Lexeme, Message: m}
}

func (s *SyntaxError) Error() string {
	if s.Input == "" {
		return s.Message
	}
	return s.FormatError(s.Input)
}

func (s *SyntaxError) FormatError(input string) string {
	repeat := s.Location.End - s.Location.Start - 1
	if repeat < 0 {
		repeat = 0
	}

	errorString := "Syntax error found in query:\n"
	errorString += input
	errorString += fmt.Sprintf("\n%s^%s ", strings.Repeat(" ", s.Location.Start), strings.Repeat("~", repeat))
	errorString += fmt.Sprintf("%s\n", s.Message)
	return errorString
}

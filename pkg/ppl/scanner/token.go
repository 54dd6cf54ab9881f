/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package scanner

import "strings"

type TokenType int

const (
	TOK_INVALID TokenType = iota
	TOK_EOF

	TOK_IDENTIFIER
	TOK_KEYWORD
	TOK_INTEGER
	TOK_FLOAT
	TOK_STRING
	TOK_COMMA
	TOK_PIPE

	// Expressions
	TOK_EQ
	TOK_NOT_EQ
	TOK_LESS
	TOK_LESS_EQ
	TOK_GREATER
	TOK_GREATER_EQ
	TOK_PLUS
	TOK_MINUS
	TOK_SLASH
	TOK_STAR
	TOK_PERCENT

	TOK_PAREN_L
	TOK_PAREN_R
)

func (t TokenType) ToString() string {
	switch t {
	case TOK_INVALID:
		return "TOK_INVALID"
	case TOK_EOF:
		return "TOK_EOF"
	case TOK_IDENTIFIER:
		return "TOK_IDENTIFIER"
	case TOK_KEYWORD:
		return "TOK_KEYWORD"
	case TOK_INTEGER:
		return "TOK_INTEGER"
	case TOK_FLOAT:
		return "TOK_FLOAT"
	case TOK_STRING:
		return "TOK_STRING"
	case TOK_COMMA:
		return "TOK_COMMA"
	case TOK_PIPE:
		return "TOK_PIPE"
	case TOK_EQ:
		return "TOK_EQ"
	case TOK_NOT_EQ:
		return "TOK_NOT_EQ"
	case TOK_LESS:
		return "TOK_LESS"
	case TOK_LESS_EQ:
		return "TOK_LESS_EQ"
	case TOK_GREATER:
		return "TOK_GREATER"
	case TOK_GREATER_EQ:
		return "TOK_GREATER_EQ"
	case TOK_PLUS:
		return "TOK_PLUS"
	case TOK_MINUS:
		return "TOK_MINUS"
	case TOK_SLASH:
		return "TOK_SLASH"
	case TOK_STAR:
		return "TOK_STAR"
	case TOK_PERCENT:
		return "TOK_PERCENT"
	case TOK_PAREN_L:
		return "TOK_PAREN_L"
	case TOK_PAREN_R:
		return "TOK_PAREN_R"
	}
	return "TOK_UNKNOWN"
}

// keywords are matched case-insensitively. A keyword can still be used as a
// field name by quoting it with backticks.
var keywords = map[string]bool{
	"search":      true,
	"source":      true,
	"where":       true,
	"fields":      true,
	"rename":      true,
	"as":          true,
	"stats":       true,
	"by":          true,
	"dedup":       true,
	"sort":        true,
	"head":        true,
	"eval":        true,
	"and":         true,
	"or":          true,
	"not":         true,
	"true":        true,
	"false":       true,
	"keepempty":   true,
	"consecutive": true,
}

// IsKeyword reports whether word is a reserved keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

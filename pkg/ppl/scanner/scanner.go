/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dburkart/ppl/pkg/common/parse"
)

type Scanner struct {
	Input     string
	Start     int
	Pos       int
	LastWidth int
}

// MatchIdentifier returns the length of the next token, assuming it is an
// identifier.
//
// Grammar:
//
//	identifier      = ( ALPHA / "_" / "@" ) *( ALPHA / DIGIT / "_" / "@" / "." )
func (s *Scanner) MatchIdentifier() int {
	i := s.Pos
	r, width := utf8.DecodeRuneInString(s.Input[i:])
	size := 0

	if !isIdentifierStart(r) {
		return 0
	}

	for isIdentifierStart(r) || unicode.IsDigit(r) || r == '.' {
		size += width
		i += width
		r, width = utf8.DecodeRuneInString(s.Input[i:])
	}

	return size
}

// MatchQuotedIdentifier returns the length of the next token, assuming it is
// a back-quoted identifier
//
// Grammar:
//
//	quoted-identifier = "`" 1*( %x00-5F / %x61-10FFFF ) "`"
func (s *Scanner) MatchQuotedIdentifier() int {
	end := strings.IndexRune(s.Input[s.Pos+1:], '`')
	if end <= 0 {
		return 0
	}

	// Include quote runes
	return end + 2
}

// MatchInteger returns the length of the next token, assuming it is a
// number
//
// Grammar:
//
//	integer          = 1*DIGIT
func (s *Scanner) MatchInteger() int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	size := 0

	for i := s.Pos; unicode.IsDigit(r); {
		size += width
		i += width
		r, width = utf8.DecodeRuneInString(s.Input[i:])
	}

	return size
}

// MatchFloat returns the length of the next token, assuming it is a
// floating point number
//
// Grammar:
//
//	float           = *DIGIT "." 1*DIGIT
func (s *Scanner) MatchFloat() int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	lsize := 0
	rsize := 0

	for i := s.Pos; unicode.IsDigit(r); {
		lsize += width
		i += width
		r, width = utf8.DecodeRuneInString(s.Input[i:])
	}

	if r != '.' {
		return 0
	}

	r, width = utf8.DecodeRuneInString(s.Input[s.Pos+lsize+1:])

	for i := s.Pos + lsize + 1; unicode.IsDigit(r); {
		rsize += width
		i += width
		r, width = utf8.DecodeRuneInString(s.Input[i:])
	}

	if rsize == 0 {
		return 0
	}

	return lsize + rsize + 1
}

// MatchString returns the length of the next token, assuming it is a
// string. A backslash escapes the following rune.
//
// Grammar:
//
//	string          = DQUOTE *CHAR DQUOTE / SQUOTE *CHAR SQUOTE
func (s *Scanner) MatchString() int {
	quote, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	i := s.Pos + width

	for i < len(s.Input) {
		r, w := utf8.DecodeRuneInString(s.Input[i:])
		switch r {
		case '\\':
			_, escaped := utf8.DecodeRuneInString(s.Input[i+w:])
			i += w + escaped
			continue
		case quote:
			return i + w - s.Pos
		}
		i += w
	}

	return 0
}

// Emit the next Token found on Scanner.Input
func (s *Scanner) Emit() parse.Token {
	var t parse.Token

	oldStart := s.Start

	for {
		s.Start = s.Pos
		if s.Pos >= len(s.Input) {
			t.Type = TOK_EOF
			break
		}

		r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
		found := true
		skip := 0

		switch {
		case unicode.IsSpace(r):
			skip = width
			found = false
		case r == '|':
			t.Type = TOK_PIPE
			skip = width
		case r == ',':
			t.Type = TOK_COMMA
			skip = width
		case r == '(':
			t.Type = TOK_PAREN_L
			skip = width
		case r == ')':
			t.Type = TOK_PAREN_R
			skip = width
		case r == '=':
			t.Type = TOK_EQ
			skip = width
			if strings.HasPrefix(s.Input[s.Pos:], "==") {
				skip = len("==")
			}
		case r == '!':
			if strings.HasPrefix(s.Input[s.Pos:], "!=") {
				t.Type = TOK_NOT_EQ
				skip = len("!=")
				break
			}
			t.Type = TOK_INVALID
			skip = s.SkipToBoundary(isDelimiter)
		case r == '<':
			if strings.HasPrefix(s.Input[s.Pos:], "<=") {
				t.Type = TOK_LESS_EQ
				skip = len("<=")
				break
			}
			t.Type = TOK_LESS
			skip = width
		case r == '>':
			if strings.HasPrefix(s.Input[s.Pos:], ">=") {
				t.Type = TOK_GREATER_EQ
				skip = len(">=")
				break
			}
			t.Type = TOK_GREATER
			skip = width
		case r == '+':
			t.Type = TOK_PLUS
			skip = width
		case r == '-':
			t.Type = TOK_MINUS
			skip = width
		case r == '*':
			t.Type = TOK_STAR
			skip = width
		case r == '/':
			t.Type = TOK_SLASH
			skip = width
		case r == '%':
			t.Type = TOK_PERCENT
			skip = width
		case r == '\'' || r == '"':
			skip = s.MatchString()
			if skip > 0 {
				t.Type = TOK_STRING
			} else {
				t.Type = TOK_INVALID
				skip = len(s.Input) - s.Pos
			}
		case r == '`':
			skip = s.MatchQuotedIdentifier()
			if skip > 0 {
				t.Type = TOK_IDENTIFIER
			} else {
				t.Type = TOK_INVALID
				skip = s.SkipToBoundary(isDelimiter)
			}
		case r == '.':
			skip = s.MatchFloat()
			if skip > 0 {
				t.Type = TOK_FLOAT
			} else {
				t.Type = TOK_INVALID
				skip = s.SkipToBoundary(isDelimiter)
			}
		case unicode.IsDigit(r):
			skip = s.MatchFloat()
			if skip > 0 {
				t.Type = TOK_FLOAT
			} else {
				skip = s.MatchInteger()
				t.Type = TOK_INTEGER
			}
		case isIdentifierStart(r):
			skip = s.MatchIdentifier()
			t.Type = TOK_IDENTIFIER
			if IsKeyword(s.Input[s.Pos : s.Pos+skip]) {
				t.Type = TOK_KEYWORD
			}
		default:
			t.Type = TOK_INVALID
			skip = s.SkipToBoundary(isDelimiter)
		}

		if skip == 0 {
			skip = width
		}

		s.Pos = s.Start + skip
		if found {
			break
		}
	}

	t.Lexeme = s.Input[s.Start:s.Pos]
	t.Location = parse.Location{Start: s.Start, End: s.Pos}
	s.Start = s.Pos

	s.LastWidth = s.Start - oldStart

	return t
}

// Rewind the last read token
func (s *Scanner) Rewind() {
	s.Start -= s.LastWidth
	s.Pos = s.Start
	s.LastWidth = 0
}

// Peek returns the next token without consuming it
func (s *Scanner) Peek() parse.Token {
	t := s.Emit()
	s.Rewind()
	return t
}

type boundaryFunc func(rune) bool

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '@'
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == ',' || r == '|' ||
		r == '=' || r == '<' || r == '>'
}

// SkipToBoundary returns the number of bytes until the next delimiter.
// This is useful for skipping over invalid tokens.
func (s *Scanner) SkipToBoundary(boundary boundaryFunc) int {
	r, width := utf8.DecodeRuneInString(s.Input[s.Pos:])
	size := 0

	for !boundary(r) && s.Pos+size < len(s.Input) {
		size += width
		r, width = utf8.DecodeRuneInString(s.Input[s.Pos+size:])
	}

	return size
}

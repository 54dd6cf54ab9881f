/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ast

import (
	"strconv"
	"strings"

	"github.com/dburkart/ppl/pkg/common/parse"
	"github.com/dburkart/ppl/pkg/ppl/scanner"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

type ASTNode interface {
	Value() string
}

type Visitor interface {
	Visit(ASTNode) Visitor
}

type (
	BaseNode struct {
		Token parse.Token
	}

	// QueryNode is the root of every parsed query. The first command is
	// always a *SearchNode.
	QueryNode struct {
		BaseNode
		Input    string
		Commands []ASTNode
	}

	SearchNode struct {
		BaseNode
		Source    IdentifierNode
		Condition ASTNode
	}

	WhereNode struct {
		BaseNode
		Condition ASTNode
	}

	FieldsNode struct {
		BaseNode
		Exclude bool
		Fields  []IdentifierNode
	}

	RenameNode struct {
		BaseNode
		Renames []RenamePairNode
	}

	RenamePairNode struct {
		BaseNode
		From IdentifierNode
		To   IdentifierNode
	}

	StatsNode struct {
		BaseNode
		Aggregates []AggregateNode
		GroupBy    []IdentifierNode
	}

	AggregateNode struct {
		BaseNode
		Function parse.Token
		Argument *IdentifierNode
		Alias    *IdentifierNode
	}

	DedupNode struct {
		BaseNode
		Count       *NumberNode
		Fields      []IdentifierNode
		KeepEmpty   bool
		Consecutive bool
	}

	SortNode struct {
		BaseNode
		Count  *NumberNode
		Fields []SortFieldNode
	}

	SortFieldNode struct {
		BaseNode
		Descending bool
		Field      IdentifierNode
	}

	HeadNode struct {
		BaseNode
		Count *NumberNode
	}

	EvalNode struct {
		BaseNode
		Assignments []AssignmentNode
	}

	AssignmentNode struct {
		BaseNode
		Field      IdentifierNode
		Expression ASTNode
	}

	BinaryOpNode struct {
		BaseNode
		Left  ASTNode
		Op    parse.Token
		Right ASTNode
	}

	UnaryOpNode struct {
		BaseNode
		Operator parse.Token
		Operand  ASTNode
	}

	IdentifierNode struct {
		BaseNode
	}

	NumberNode struct {
		BaseNode
		Val types.Value
	}

	StringNode struct {
		BaseNode
		Val types.Value
	}

	BooleanNode struct {
		BaseNode
		Val types.Value
	}
)

// -- BaseNode

func (b *BaseNode) Value() string {
	return b.Token.Lexeme
}

//-- QueryNode

func (q *QueryNode) Value() string {
	return q.Input
}

// Search returns the leading search command of the query.
func (q *QueryNode) Search() *SearchNode {
	if len(q.Commands) == 0 {
		return nil
	}
	s, _ := q.Commands[0].(*SearchNode)
	return s
}

//-- SearchNode

func (s *SearchNode) Value() string {
	return s.Source.Name()
}

//-- IdentifierNode

// Name returns the identifier with any back-quotes removed.
func (i *IdentifierNode) Name() string {
	name := i.Token.Lexeme
	if len(name) >= 2 && name[0] == '`' && name[len(name)-1] == '`' {
		return name[1 : len(name)-1]
	}
	return name
}

func MakeIdentifierNode(tok parse.Token) IdentifierNode {
	return IdentifierNode{BaseNode: BaseNode{Token: tok}}
}

//-- AggregateNode

// Name returns the output name of the aggregate: the alias if one was given,
// otherwise the call as written, e.g. "count()" or "avg(age)".
func (a *AggregateNode) Name() string {
	if a.Alias != nil {
		return a.Alias.Name()
	}

	arg := ""
	if a.Argument != nil {
		arg = a.Argument.Name()
	}
	return strings.ToLower(a.Function.Lexeme) + "(" + arg + ")"
}

//-- NumberNode

// MakeNumberNode converts an integer or float token into a NumberNode.
func MakeNumberNode(tok parse.Token) (*NumberNode, error) {
	n := NumberNode{BaseNode: BaseNode{Token: tok}}

	if tok.Type == scanner.TOK_FLOAT {
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, err
		}
		n.Val = types.MakeFloat(f)
		return &n, nil
	}

	i, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		return nil, err
	}
	n.Val = types.MakeInt(i)
	return &n, nil
}

// IntValue returns the value of an integral NumberNode, or def if n is nil.
func (n *NumberNode) IntValue(def int64) int64 {
	if n == nil {
		return def
	}
	return types.IntVal(n.Val)
}

//-- StringNode

func MakeStringNode(tok parse.Token) *StringNode {
	return &StringNode{BaseNode: BaseNode{Token: tok}, Val: types.MakeString(unquote(tok.Lexeme))}
}

//-- BooleanNode

func MakeBooleanNode(tok parse.Token) *BooleanNode {
	return &BooleanNode{BaseNode: BaseNode{Token: tok}, Val: types.MakeBoolean(strings.EqualFold(tok.Lexeme, "true"))}
}

// unquote strips the surrounding quotes of a string literal and resolves
// backslash escapes.
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}

	inner := lexeme[1 : len(lexeme)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}

	var b strings.Builder
	escaped := false
	for _, r := range inner {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

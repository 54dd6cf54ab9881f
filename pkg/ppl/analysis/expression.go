/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"math"
	"strings"

	"github.com/dburkart/ppl/pkg/common/parse"
	"github.com/dburkart/ppl/pkg/ppl/ast"
	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/scanner"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

// bindCondition binds a filter condition, which must be boolean.
func bindCondition(env *environment, node ast.ASTNode) expr.Expression {
	e := bindExpression(env, node)
	if e.Type() != types.BOOLEAN {
		panic(newBindingError(tokenOf(node), "Condition must be %s, found %s", types.BOOLEAN, e.Type()))
	}
	return e
}

func bindExpression(env *environment, node ast.ASTNode) expr.Expression {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return reference(env, n)
	case *ast.NumberNode:
		if n.Val.Kind() == types.Float {
			return &expr.Literal{Val: n.Val, ExprType: types.DOUBLE}
		}
		if i := types.IntVal(n.Val); i > math.MaxInt32 || i < math.MinInt32 {
			return &expr.Literal{Val: n.Val, ExprType: types.LONG}
		}
		return &expr.Literal{Val: n.Val, ExprType: types.INTEGER}
	case *ast.StringNode:
		return &expr.Literal{Val: n.Val, ExprType: types.STRING}
	case *ast.BooleanNode:
		return &expr.Literal{Val: n.Val, ExprType: types.BOOLEAN}
	case *ast.UnaryOpNode:
		return bindUnary(env, n)
	case *ast.BinaryOpNode:
		return bindBinary(env, n)
	}

	panic(newBindingError(tokenOf(node), "Unexpected expression '%s'", node.Value()))
}

func bindUnary(env *environment, n *ast.UnaryOpNode) expr.Expression {
	operand := bindExpression(env, n.Operand)

	switch {
	case n.Operator.Type == scanner.TOK_KEYWORD && strings.EqualFold(n.Operator.Lexeme, "not"):
		if operand.Type() != types.BOOLEAN {
			panic(newBindingError(n.Operator, "Operator 'not' requires a %s operand, found %s", types.BOOLEAN, operand.Type()))
		}
		return &expr.Not{Operand: operand}
	case n.Operator.Type == scanner.TOK_MINUS, n.Operator.Type == scanner.TOK_PLUS:
		if !operand.Type().IsNumeric() {
			panic(newBindingError(n.Operator, "Operator '%s' requires a numeric operand, found %s", n.Operator.Lexeme, operand.Type()))
		}
		if n.Operator.Type == scanner.TOK_PLUS {
			return operand
		}
		return &expr.Negate{Operand: operand}
	}

	panic(newBindingError(n.Operator, "Unknown unary operator '%s'", n.Operator.Lexeme))
}

func bindBinary(env *environment, n *ast.BinaryOpNode) expr.Expression {
	left := bindExpression(env, n.Left)
	right := bindExpression(env, n.Right)
	lt, rt := left.Type(), right.Type()

	switch n.Op.Type {
	case scanner.TOK_KEYWORD:
		op := expr.Operator(strings.ToLower(n.Op.Lexeme))
		if op != expr.OpAnd && op != expr.OpOr {
			break
		}
		if lt != types.BOOLEAN || rt != types.BOOLEAN {
			panic(newBindingError(n.Op, "Operator '%s' requires %s operands, found %s and %s", op, types.BOOLEAN, lt, rt))
		}
		return &expr.Logical{Op: op, Left: left, Right: right}

	case scanner.TOK_EQ, scanner.TOK_NOT_EQ, scanner.TOK_LESS, scanner.TOK_LESS_EQ,
		scanner.TOK_GREATER, scanner.TOK_GREATER_EQ:
		op := comparisonOperators[n.Op.Type.(scanner.TokenType)]
		if !canCompare(op, lt, rt) {
			panic(newBindingError(n.Op, "Cannot compare %s to %s with '%s'", lt, rt, op))
		}
		return &expr.Compare{Op: op, Left: left, Right: right}

	case scanner.TOK_PLUS, scanner.TOK_MINUS, scanner.TOK_STAR, scanner.TOK_SLASH, scanner.TOK_PERCENT:
		op := arithmeticOperators[n.Op.Type.(scanner.TokenType)]
		if !lt.IsNumeric() || !rt.IsNumeric() {
			panic(newBindingError(n.Op, "Operator '%s' requires numeric operands, found %s and %s", op, lt, rt))
		}

		result := types.Widest(lt, rt)
		if op == expr.OpDiv {
			result = types.DOUBLE
		}
		return &expr.Arithmetic{Op: op, Left: left, Right: right, ExprType: result}
	}

	panic(newBindingError(n.Op, "Unknown operator '%s'", n.Op.Lexeme))
}

var comparisonOperators = map[scanner.TokenType]expr.Operator{
	scanner.TOK_EQ:         expr.OpEq,
	scanner.TOK_NOT_EQ:     expr.OpNotEq,
	scanner.TOK_LESS:       expr.OpLess,
	scanner.TOK_LESS_EQ:    expr.OpLessEq,
	scanner.TOK_GREATER:    expr.OpGreater,
	scanner.TOK_GREATER_EQ: expr.OpGreatEq,
}

var arithmeticOperators = map[scanner.TokenType]expr.Operator{
	scanner.TOK_PLUS:    expr.OpAdd,
	scanner.TOK_MINUS:   expr.OpSub,
	scanner.TOK_STAR:    expr.OpMul,
	scanner.TOK_SLASH:   expr.OpDiv,
	scanner.TOK_PERCENT: expr.OpMod,
}

// canCompare reports whether values of types l and r may be compared with
// op: numbers compare with numbers, anything else only with its own type,
// and only numbers and strings are ordered.
func canCompare(op expr.Operator, l, r types.ExprType) bool {
	if l == types.UNKNOWN || r == types.UNKNOWN {
		return false
	}

	sameKind := (l.IsNumeric() && r.IsNumeric()) || (!l.IsNumeric() && l == r)
	if !sameKind {
		return false
	}
	if op.IsOrdering() {
		return l.IsNumeric() || l == types.STRING
	}
	return true
}

func tokenOf(node ast.ASTNode) parse.Token {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return n.Token
	case *ast.NumberNode:
		return n.Token
	case *ast.StringNode:
		return n.Token
	case *ast.BooleanNode:
		return n.Token
	case *ast.UnaryOpNode:
		return n.Token
	case *ast.BinaryOpNode:
		return n.Token
	}
	return parse.Token{Lexeme: node.Value()}
}

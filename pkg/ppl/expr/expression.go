/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package expr holds bound expressions. Every expression carries the type it
// was resolved to, and can be evaluated against a row.
package expr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

type Operator string

const (
	OpEq      Operator = "="
	OpNotEq   Operator = "!="
	OpLess    Operator = "<"
	OpLessEq  Operator = "<="
	OpGreater Operator = ">"
	OpGreatEq Operator = ">="

	OpAnd Operator = "and"
	OpOr  Operator = "or"

	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
)

// IsOrdering reports whether op orders its operands rather than testing
// equality.
func (op Operator) IsOrdering() bool {
	return op == OpLess || op == OpLessEq || op == OpGreater || op == OpGreatEq
}

type Expression interface {
	Type() types.ExprType
	Evaluate(row types.Row) types.Value
	String() string

	expression()
}

type (
	Literal struct {
		Val      types.Value
		ExprType types.ExprType
	}

	Reference struct {
		Name     string
		ExprType types.ExprType
	}

	Compare struct {
		Op    Operator
		Left  Expression
		Right Expression
	}

	Logical struct {
		Op    Operator
		Left  Expression
		Right Expression
	}

	Not struct {
		Operand Expression
	}

	Arithmetic struct {
		Op       Operator
		Left     Expression
		Right    Expression
		ExprType types.ExprType
	}

	Negate struct {
		Operand Expression
	}
)

func (*Literal) expression()    {}
func (*Reference) expression()  {}
func (*Compare) expression()    {}
func (*Logical) expression()    {}
func (*Not) expression()        {}
func (*Arithmetic) expression() {}
func (*Negate) expression()     {}

//-- Literal

func (l *Literal) Type() types.ExprType { return l.ExprType }

func (l *Literal) Evaluate(types.Row) types.Value { return l.Val }

func (l *Literal) String() string {
	if l.ExprType == types.STRING {
		return strconv.Quote(l.Val.String())
	}
	return l.Val.String()
}

//-- Reference

func (r *Reference) Type() types.ExprType { return r.ExprType }

func (r *Reference) Evaluate(row types.Row) types.Value { return row.Get(r.Name) }

func (r *Reference) String() string { return r.Name }

//-- Compare

func (c *Compare) Type() types.ExprType { return types.BOOLEAN }

func (c *Compare) Evaluate(row types.Row) types.Value {
	result, ok := types.Compare(c.Left.Evaluate(row), c.Right.Evaluate(row))
	if !ok {
		return types.MakeBoolean(false)
	}

	switch c.Op {
	case OpEq:
		return types.MakeBoolean(result == 0)
	case OpNotEq:
		return types.MakeBoolean(result != 0)
	case OpLess:
		return types.MakeBoolean(result < 0)
	case OpLessEq:
		return types.MakeBoolean(result <= 0)
	case OpGreater:
		return types.MakeBoolean(result > 0)
	case OpGreatEq:
		return types.MakeBoolean(result >= 0)
	}

	panic(fmt.Sprintf("Unknown comparison operator '%s'", c.Op))
}

func (c *Compare) String() string { return binaryString(c.Left, c.Op, c.Right) }

//-- Logical

func (l *Logical) Type() types.ExprType { return types.BOOLEAN }

func (l *Logical) Evaluate(row types.Row) types.Value {
	left := types.BooleanVal(l.Left.Evaluate(row))

	switch l.Op {
	case OpAnd:
		return types.MakeBoolean(left && types.BooleanVal(l.Right.Evaluate(row)))
	case OpOr:
		return types.MakeBoolean(left || types.BooleanVal(l.Right.Evaluate(row)))
	}

	panic(fmt.Sprintf("Unknown logical operator '%s'", l.Op))
}

func (l *Logical) String() string { return binaryString(l.Left, l.Op, l.Right) }

//-- Not

func (n *Not) Type() types.ExprType { return types.BOOLEAN }

func (n *Not) Evaluate(row types.Row) types.Value {
	v := n.Operand.Evaluate(row)
	if types.IsNull(v) {
		return v
	}
	return types.MakeBoolean(!types.BooleanVal(v))
}

func (n *Not) String() string { return "not " + wrap(n.Operand) }

//-- Arithmetic

func (a *Arithmetic) Type() types.ExprType { return a.ExprType }

func (a *Arithmetic) Evaluate(row types.Row) types.Value {
	lv, rv := a.Left.Evaluate(row), a.Right.Evaluate(row)
	if !types.IsNumber(lv) || !types.IsNumber(rv) {
		return types.MakeNull()
	}

	if a.ExprType.IsIntegral() {
		x, y := types.IntVal(lv), types.IntVal(rv)
		switch a.Op {
		case OpAdd:
			return types.MakeInt(x + y)
		case OpSub:
			return types.MakeInt(x - y)
		case OpMul:
			return types.MakeInt(x * y)
		case OpMod:
			if y == 0 {
				return types.MakeNull()
			}
			return types.MakeInt(x % y)
		}
	}

	x, y := types.FloatVal(lv), types.FloatVal(rv)
	switch a.Op {
	case OpAdd:
		return types.MakeFloat(x + y)
	case OpSub:
		return types.MakeFloat(x - y)
	case OpMul:
		return types.MakeFloat(x * y)
	case OpDiv:
		if y == 0 {
			return types.MakeNull()
		}
		return types.MakeFloat(x / y)
	case OpMod:
		if y == 0 {
			return types.MakeNull()
		}
		return types.MakeFloat(math.Mod(x, y))
	}

	panic(fmt.Sprintf("Unknown arithmetic operator '%s'", a.Op))
}

func (a *Arithmetic) String() string { return binaryString(a.Left, a.Op, a.Right) }

//-- Negate

func (n *Negate) Type() types.ExprType { return n.Operand.Type() }

func (n *Negate) Evaluate(row types.Row) types.Value {
	v := n.Operand.Evaluate(row)
	switch {
	case types.IsNull(v):
		return v
	case v.Kind() == types.Int:
		return types.MakeInt(-types.IntVal(v))
	case v.Kind() == types.Float:
		return types.MakeFloat(-types.FloatVal(v))
	}
	return types.MakeNull()
}

func (n *Negate) String() string { return "-" + wrap(n.Operand) }

func binaryString(left Expression, op Operator, right Expression) string {
	return fmt.Sprintf("%s %s %s", wrap(left), op, wrap(right))
}

func wrap(e Expression) string {
	switch e.(type) {
	case *Compare, *Logical, *Arithmetic:
		return "(" + e.String() + ")"
	}
	return e.String()
}

// References returns the names of every field e reads, in order of
// appearance.
func References(e Expression) []string {
	switch x := e.(type) {
	case *Reference:
		return []string{x.Name}
	case *Compare:
		return append(References(x.Left), References(x.Right)...)
	case *Logical:
		return append(References(x.Left), References(x.Right)...)
	case *Arithmetic:
		return append(References(x.Left), References(x.Right)...)
	case *Not:
		return References(x.Operand)
	case *Negate:
		return References(x.Operand)
	}
	return nil
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package expr

import (
	"fmt"
	"strings"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

type AggregateFunc string

const (
	Count AggregateFunc = "count"
	Sum   AggregateFunc = "sum"
	Avg   AggregateFunc = "avg"
	Min   AggregateFunc = "min"
	Max   AggregateFunc = "max"
)

// LookupAggregate returns the aggregate function called name, ignoring case.
func LookupAggregate(name string) (AggregateFunc, bool) {
	switch f := AggregateFunc(strings.ToLower(name)); f {
	case Count, Sum, Avg, Min, Max:
		return f, true
	}
	return "", false
}

// Aggregator is a bound aggregate call. Argument is nil for count().
type Aggregator struct {
	Function AggregateFunc
	Argument Expression
	Name     string
	ExprType types.ExprType
}

func (a *Aggregator) String() string {
	arg := ""
	if a.Argument != nil {
		arg = a.Argument.String()
	}
	return fmt.Sprintf("%s(%s) as %s", a.Function, arg, a.Name)
}

// AggregationState accumulates the rows of one group.
type AggregationState interface {
	Iterate(row types.Row)
	Result() types.Value
}

func (a *Aggregator) NewState() AggregationState {
	switch a.Function {
	case Count:
		return &countState{arg: a.Argument}
	case Sum:
		return &sumState{arg: a.Argument, integral: a.ExprType.IsIntegral()}
	case Avg:
		return &avgState{arg: a.Argument}
	case Min:
		return &extremeState{arg: a.Argument, want: -1}
	case Max:
		return &extremeState{arg: a.Argument, want: 1}
	}
	panic(fmt.Sprintf("Unknown aggregate function '%s'", a.Function))
}

type countState struct {
	arg   Expression
	count int64
}

func (s *countState) Iterate(row types.Row) {
	if s.arg == nil || !types.IsNull(s.arg.Evaluate(row)) {
		s.count++
	}
}

func (s *countState) Result() types.Value { return types.MakeInt(s.count) }

type sumState struct {
	arg      Expression
	integral bool
	seen     bool
	intSum   int64
	floatSum float64
}

func (s *sumState) Iterate(row types.Row) {
	v := s.arg.Evaluate(row)
	if !types.IsNumber(v) {
		return
	}
	s.seen = true
	if s.integral {
		s.intSum += types.IntVal(v)
	} else {
		s.floatSum += types.FloatVal(v)
	}
}

func (s *sumState) Result() types.Value {
	switch {
	case !s.seen:
		return types.MakeNull()
	case s.integral:
		return types.MakeInt(s.intSum)
	}
	return types.MakeFloat(s.floatSum)
}

type avgState struct {
	arg   Expression
	count int64
	sum   float64
}

func (s *avgState) Iterate(row types.Row) {
	v := s.arg.Evaluate(row)
	if !types.IsNumber(v) {
		return
	}
	s.count++
	s.sum += types.FloatVal(v)
}

func (s *avgState) Result() types.Value {
	if s.count == 0 {
		return types.MakeNull()
	}
	return types.MakeFloat(s.sum / float64(s.count))
}

// extremeState keeps the value v for which Compare(v, other) == want holds
// against every other value, i.e. the minimum for -1 and the maximum for 1.
type extremeState struct {
	arg   Expression
	want  int
	value types.Value
}

func (s *extremeState) Iterate(row types.Row) {
	v := s.arg.Evaluate(row)
	if types.IsNull(v) {
		return
	}
	if s.value == nil {
		s.value = v
		return
	}
	if result, ok := types.Compare(v, s.value); ok && result == s.want {
		s.value = v
	}
}

func (s *extremeState) Result() types.Value {
	if s.value == nil {
		return types.MakeNull()
	}
	return s.value
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package analysis binds a parsed query against the tables of a storage
// engine, producing a typed logical plan.
package analysis

import (
	"errors"

	"github.com/dburkart/ppl/pkg/ppl/ast"
	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/storage"
)

const defaultHeadCount = 10

type Analyzer struct {
	engine storage.StorageEngine
}

func NewAnalyzer(engine storage.StorageEngine) *Analyzer {
	return &Analyzer{engine: engine}
}

// Analyze resolves every source and field referenced by q. Only GetTable and
// FieldTypes are ever called on the engine.
func (a *Analyzer) Analyze(q *ast.QueryNode) (plan logical.Plan, err error) {
	if q == nil {
		return nil, &BindingError{Message: "No query to analyze"}
	}

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*BindingError)
			if !ok {
				panic(r)
			}
			be.Input = q.Input
			plan, err = nil, be
		}
	}()

	search := q.Search()
	if search == nil {
		panic(newBindingError(q.Token, "Query does not start with a search command"))
	}

	env, plan := a.relation(search)
	if search.Condition != nil {
		plan = &logical.Filter{Child: plan, Condition: bindCondition(env, search.Condition)}
	}

	for _, command := range q.Commands[1:] {
		plan = bindCommand(env, plan, command)
	}

	return &logical.Output{Child: plan, Columns: env.snapshot()}, nil
}

func (a *Analyzer) relation(search *ast.SearchNode) (*environment, logical.Plan) {
	name := search.Source.Name()

	table, err := a.engine.GetTable(name)
	if err != nil {
		be := newBindingError(search.Source.Token, "Unknown source '%s'", name)
		if !errors.Is(err, storage.ErrTableNotFound) {
			be.Message = "Unable to resolve source '" + name + "': " + err.Error()
		}
		be.Cause = err
		panic(be)
	}
	if table == nil {
		panic(newBindingError(search.Source.Token, "Unknown source '%s'", name))
	}

	columns := table.FieldTypes().Columns()
	return newEnvironment(columns), &logical.Relation{Name: name, Columns: columns}
}

func bindCommand(env *environment, child logical.Plan, command ast.ASTNode) logical.Plan {
	switch n := command.(type) {
	case *ast.WhereNode:
		return &logical.Filter{Child: child, Condition: bindCondition(env, n.Condition)}
	case *ast.FieldsNode:
		return bindFields(env, child, n)
	case *ast.RenameNode:
		return bindRename(env, child, n)
	case *ast.StatsNode:
		return bindStats(env, child, n)
	case *ast.DedupNode:
		return bindDedup(env, child, n)
	case *ast.SortNode:
		return bindSort(env, child, n)
	case *ast.HeadNode:
		count := n.Count.IntValue(defaultHeadCount)
		return &logical.Limit{Child: child, Count: int(count)}
	case *ast.EvalNode:
		return bindEval(env, child, n)
	case *ast.SearchNode:
		panic(newBindingError(n.Token, "A search command may only start a query"))
	}

	panic(&BindingError{Message: "Unsupported command '" + command.Value() + "'"})
}

func bindFields(env *environment, child logical.Plan, n *ast.FieldsNode) logical.Plan {
	refs := references(env, n.Fields)

	if n.Exclude {
		plan := &logical.Remove{Child: child, Fields: refs}
		env.reset(plan.Schema())
		return plan
	}

	plan := &logical.Project{Child: child, Fields: refs}
	env.reset(plan.Schema())
	return plan
}

func bindRename(env *environment, child logical.Plan, n *ast.RenameNode) logical.Plan {
	plan := &logical.Rename{Child: child}

	for _, pair := range n.Renames {
		from, to := pair.From.Name(), pair.To.Name()
		if _, ok := env.lookup(from); !ok {
			panic(newBindingError(pair.From.Token, "Unknown field '%s'", from))
		}
		if _, ok := env.lookup(to); ok && to != from {
			panic(newBindingError(pair.To.Token, "Cannot rename '%s' to '%s', a field with that name already exists", from, to))
		}

		env.rename(from, to)
		plan.Mappings = append(plan.Mappings, logical.RenameMapping{From: from, To: to})
	}

	return plan
}

func bindStats(env *environment, child logical.Plan, n *ast.StatsNode) logical.Plan {
	plan := &logical.Aggregation{Child: child}
	seen := make(map[string]bool)

	for i := range n.Aggregates {
		agg := bindAggregate(env, &n.Aggregates[i])
		if seen[agg.Name] {
			panic(newBindingError(n.Aggregates[i].Token, "Duplicate output field '%s'", agg.Name))
		}
		seen[agg.Name] = true
		plan.Aggregators = append(plan.Aggregators, agg)
	}

	plan.GroupBy = references(env, n.GroupBy)
	for i, ref := range plan.GroupBy {
		if seen[ref.Name] {
			panic(newBindingError(n.GroupBy[i].Token, "Duplicate output field '%s'", ref.Name))
		}
		seen[ref.Name] = true
	}

	env.reset(plan.Schema())
	return plan
}

func bindAggregate(env *environment, n *ast.AggregateNode) *expr.Aggregator {
	function, ok := expr.LookupAggregate(n.Function.Lexeme)
	if !ok {
		panic(newBindingError(n.Function, "Unknown aggregate function '%s'", n.Function.Lexeme))
	}

	agg := &expr.Aggregator{Function: function, Name: n.Name()}

	var argType types.ExprType
	if n.Argument != nil {
		ref := reference(env, n.Argument)
		agg.Argument, argType = ref, ref.ExprType
	} else if function != expr.Count {
		panic(newBindingError(n.Function, "Aggregate function '%s' requires a field", function))
	}

	switch function {
	case expr.Count:
		agg.ExprType = types.LONG
	case expr.Sum, expr.Avg:
		if !argType.IsNumeric() {
			panic(newBindingError(n.Argument.Token, "Aggregate function '%s' requires a numeric field, '%s' is %s", function, n.Argument.Name(), argType))
		}
		agg.ExprType = types.DOUBLE
		if function == expr.Sum && argType.IsIntegral() {
			agg.ExprType = types.LONG
		}
	case expr.Min, expr.Max:
		if !argType.IsNumeric() && argType != types.STRING {
			panic(newBindingError(n.Argument.Token, "Aggregate function '%s' requires a numeric or string field, '%s' is %s", function, n.Argument.Name(), argType))
		}
		agg.ExprType = argType
	}

	return agg
}

func bindDedup(env *environment, child logical.Plan, n *ast.DedupNode) logical.Plan {
	allowed := n.Count.IntValue(1)
	if allowed <= 0 {
		panic(newBindingError(n.Count.Token, "Number of duplicates to keep must be greater than 0"))
	}

	return &logical.Dedup{
		Child:       child,
		Fields:      references(env, n.Fields),
		Allowed:     int(allowed),
		KeepEmpty:   n.KeepEmpty,
		Consecutive: n.Consecutive,
	}
}

func bindSort(env *environment, child logical.Plan, n *ast.SortNode) logical.Plan {
	count := n.Count.IntValue(0)
	if count < 0 {
		panic(newBindingError(n.Count.Token, "Sort count must not be negative"))
	}

	plan := &logical.Sort{Child: child, Count: int(count)}
	for i := range n.Fields {
		plan.Items = append(plan.Items, logical.SortItem{
			Field:      reference(env, &n.Fields[i].Field),
			Descending: n.Fields[i].Descending,
		})
	}
	return plan
}

func bindEval(env *environment, child logical.Plan, n *ast.EvalNode) logical.Plan {
	plan := &logical.Eval{Child: child}

	for _, assignment := range n.Assignments {
		e := bindExpression(env, assignment.Expression)
		name := assignment.Field.Name()

		env.put(types.Column{Name: name, Type: e.Type()})
		plan.Assignments = append(plan.Assignments, logical.Assignment{Name: name, Expression: e})
	}

	return plan
}

func references(env *environment, identifiers []ast.IdentifierNode) []*expr.Reference {
	seen := make(map[string]bool, len(identifiers))
	refs := make([]*expr.Reference, 0, len(identifiers))

	for i := range identifiers {
		ref := reference(env, &identifiers[i])
		if seen[ref.Name] {
			panic(newBindingError(identifiers[i].Token, "Field '%s' listed more than once", ref.Name))
		}
		seen[ref.Name] = true
		refs = append(refs, ref)
	}
	return refs
}

func reference(env *environment, n *ast.IdentifierNode) *expr.Reference {
	c, ok := env.lookup(n.Name())
	if !ok {
		panic(newBindingError(n.Token, "Unknown field '%s'", n.Name()))
	}
	return &expr.Reference{Name: c.Name, ExprType: c.Type}
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package physical

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dburkart/ppl/pkg/ppl/expr"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	name   = &expr.Reference{Name: "name", ExprType: types.STRING}
	age    = &expr.Reference{Name: "age", ExprType: types.INTEGER}
	city   = &expr.Reference{Name: "city", ExprType: types.STRING}
	source = &logical.Relation{Name: "people", Columns: []types.Column{
		{Name: "age", Type: types.INTEGER},
		{Name: "city", Type: types.STRING},
		{Name: "name", Type: types.STRING},
	}}
)

func person(n string, a int64, c interface{}) types.Row {
	row := types.Row{"name": types.MakeString(n), "age": types.MakeInt(a)}
	if c != nil {
		row["city"] = types.MakeString(c.(string))
	}
	return row
}

func rows() []types.Row {
	return []types.Row{
		person("ann", 34, "paris"),
		person("bob", 27, "oslo"),
		person("cy", 41, "paris"),
		person("di", 27, nil),
		person("ed", 19, "oslo"),
	}
}

func scan(r []types.Row) ScanFunc {
	return func(context.Context) ([]types.Row, error) { return r, nil }
}

func output(child logical.Plan) *logical.Output {
	return &logical.Output{Child: child, Columns: child.Schema()}
}

func run(t *testing.T, plan logical.Plan) []types.Row {
	t.Helper()

	p, err := Build(plan, scan(rows()))
	require.NoError(t, err)

	result, err := p.Execute(context.Background())
	require.NoError(t, err)
	return result
}

func column(result []types.Row, field string) []string {
	values := make([]string, len(result))
	for i, row := range result {
		values[i] = row.Get(field).String()
	}
	return values
}

func TestScanOnly(t *testing.T) {
	result := run(t, output(source))

	assert.Len(t, result, 5)
	assert.Equal(t, "null", result[3].Get("city").String())
}

func TestFilter(t *testing.T) {
	plan := output(&logical.Filter{Child: source, Condition: &expr.Compare{
		Op:    expr.OpGreater,
		Left:  age,
		Right: &expr.Literal{Val: types.MakeInt(26), ExprType: types.INTEGER},
	}})

	assert.Equal(t, []string{"ann", "bob", "cy", "di"}, column(run(t, plan), "name"))
}

func TestFilterNullNeverMatches(t *testing.T) {
	plan := output(&logical.Filter{Child: source, Condition: &expr.Compare{
		Op:    expr.OpNotEq,
		Left:  city,
		Right: &expr.Literal{Val: types.MakeString("paris"), ExprType: types.STRING},
	}})

	assert.Equal(t, []string{"bob", "ed"}, column(run(t, plan), "name"))
}

func TestProjectRemoveRename(t *testing.T) {
	plan := output(&logical.Project{Child: source, Fields: []*expr.Reference{name}})
	result := run(t, plan)
	assert.Equal(t, types.Row{"name": types.MakeString("ann")}, result[0])

	plan = output(&logical.Remove{Child: source, Fields: []*expr.Reference{age, city}})
	result = run(t, plan)
	assert.Equal(t, types.Row{"name": types.MakeString("bob")}, result[1])

	plan = output(&logical.Rename{Child: source, Mappings: []logical.RenameMapping{{From: "name", To: "who"}}})
	result = run(t, plan)
	assert.Equal(t, "cy", result[2].Get("who").String())
	assert.NotContains(t, result[2], "name")
}

func TestEval(t *testing.T) {
	plan := output(&logical.Eval{Child: source, Assignments: []logical.Assignment{
		{Name: "next", Expression: &expr.Arithmetic{
			Op: expr.OpAdd, Left: age, ExprType: types.INTEGER,
			Right: &expr.Literal{Val: types.MakeInt(1), ExprType: types.INTEGER},
		}},
		{Name: "twice", Expression: &expr.Arithmetic{
			Op: expr.OpMul, ExprType: types.INTEGER,
			Left:  &expr.Reference{Name: "next", ExprType: types.INTEGER},
			Right: &expr.Literal{Val: types.MakeInt(2), ExprType: types.INTEGER},
		}},
	}})

	result := run(t, plan)
	assert.Equal(t, []string{"35", "28", "42", "28", "20"}, column(result, "next"))
	assert.Equal(t, []string{"70", "56", "84", "56", "40"}, column(result, "twice"))
}

func TestEvalDoesNotModifySource(t *testing.T) {
	data := rows()
	plan := output(&logical.Eval{Child: source, Assignments: []logical.Assignment{
		{Name: "age", Expression: &expr.Negate{Operand: age}},
	}})

	p, err := Build(plan, scan(data))
	require.NoError(t, err)
	_, err = p.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(34), types.IntVal(data[0]["age"]))
}

func TestAggregate(t *testing.T) {
	plan := output(&logical.Aggregation{
		Child: source,
		Aggregators: []*expr.Aggregator{
			{Function: expr.Count, Name: "count()", ExprType: types.LONG},
			{Function: expr.Avg, Argument: age, Name: "avg(age)", ExprType: types.DOUBLE},
		},
		GroupBy: []*expr.Reference{city},
	})

	result := run(t, plan)
	assert.Equal(t, []string{"paris", "oslo", "null"}, column(result, "city"))
	assert.Equal(t, []string{"2", "2", "1"}, column(result, "count()"))
	assert.Equal(t, []string{"37.5", "23", "27"}, column(result, "avg(age)"))
}

func TestAggregateWithoutGroupsOverNothing(t *testing.T) {
	plan := output(&logical.Aggregation{
		Child: &logical.Filter{Child: source, Condition: &expr.Literal{Val: types.MakeBoolean(false), ExprType: types.BOOLEAN}},
		Aggregators: []*expr.Aggregator{
			{Function: expr.Count, Name: "count()", ExprType: types.LONG},
		},
	})

	result := run(t, plan)
	require.Len(t, result, 1)
	assert.Equal(t, "0", result[0].Get("count()").String())
}

func TestDedup(t *testing.T) {
	plan := output(&logical.Dedup{Child: source, Fields: []*expr.Reference{city}, Allowed: 1})
	assert.Equal(t, []string{"ann", "bob"}, column(run(t, plan), "name"))

	plan = output(&logical.Dedup{Child: source, Fields: []*expr.Reference{city}, Allowed: 1, KeepEmpty: true})
	assert.Equal(t, []string{"ann", "bob", "di"}, column(run(t, plan), "name"))

	plan = output(&logical.Dedup{Child: source, Fields: []*expr.Reference{age}, Allowed: 1, Consecutive: true})
	assert.Equal(t, []string{"ann", "bob", "cy", "di", "ed"}, column(run(t, plan), "name"))

	plan = output(&logical.Dedup{Child: source, Fields: []*expr.Reference{age}, Allowed: 1})
	assert.Equal(t, []string{"ann", "bob", "cy", "ed"}, column(run(t, plan), "name"))
}

func TestSort(t *testing.T) {
	plan := output(&logical.Sort{Child: source, Items: []logical.SortItem{
		{Field: age, Descending: true},
		{Field: name},
	}})
	assert.Equal(t, []string{"cy", "ann", "bob", "di", "ed"}, column(run(t, plan), "name"))

	plan = output(&logical.Sort{Child: source, Count: 2, Items: []logical.SortItem{{Field: city}}})
	assert.Equal(t, []string{"di", "bob"}, column(run(t, plan), "name"))
}

func TestLimit(t *testing.T) {
	assert.Len(t, run(t, output(&logical.Limit{Child: source, Count: 2})), 2)
	assert.Len(t, run(t, output(&logical.Limit{Child: source, Count: 0})), 0)
	assert.Len(t, run(t, output(&logical.Limit{Child: source, Count: 50})), 5)
}

func TestLargeInputAcrossBatches(t *testing.T) {
	var many []types.Row
	for i := 0; i < batchSize*5+3; i++ {
		many = append(many, person(fmt.Sprint(i), int64(i), "x"))
	}

	plan := output(&logical.Limit{Child: &logical.Sort{Child: source, Items: []logical.SortItem{
		{Field: age, Descending: true},
	}}, Count: 3})

	p, err := Build(plan, scan(many))
	require.NoError(t, err)

	result, err := p.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"322", "321", "320"}, column(result, "name"))
}

func TestExecuteTwice(t *testing.T) {
	p, err := Build(output(&logical.Limit{Child: source, Count: 2}), scan(rows()))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, err := p.Execute(context.Background())
		require.NoError(t, err)
		assert.Len(t, result, 2)
	}
}

func TestCancelledContext(t *testing.T) {
	p, err := Build(output(source), scan(rows()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanFailure(t *testing.T) {
	boom := errors.New("boom")
	p, err := Build(output(source), func(context.Context) ([]types.Row, error) { return nil, boom })
	require.NoError(t, err)

	_, err = p.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBuildRejectsBadPlans(t *testing.T) {
	_, err := Build(source, scan(nil))
	assert.Error(t, err)

	_, err = Build(output(source), nil)
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	p, err := Build(output(&logical.Limit{Child: source, Count: 2}), scan(nil))
	require.NoError(t, err)

	assert.Equal(t, "scan -> limit(2) -> project(age, city, name) -> collect", p.String())
}

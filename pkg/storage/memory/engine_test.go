/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dburkart/ppl/pkg/ppl/analysis"
	"github.com/dburkart/ppl/pkg/ppl/parser"
	"github.com/dburkart/ppl/pkg/ppl/planner"
	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/storage"
)

func loadPeople(t *testing.T) *Engine {
	t.Helper()

	e := NewEngine(zerolog.Nop())
	require.NoError(t, LoadFile(e, "testdata/people.yaml"))
	return e
}

func query(t *testing.T, e *Engine, text string) []types.Row {
	t.Helper()

	q, err := parser.Parse(text)
	require.NoError(t, err)

	plan, err := analysis.NewAnalyzer(e).Analyze(q)
	require.NoError(t, err)

	physical, err := planner.New(e).Plan(plan)
	require.NoError(t, err)

	rows, err := physical.Execute(context.Background())
	require.NoError(t, err)
	return rows
}

func names(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Get("name").String()
	}
	return out
}

func TestLoadDataset(t *testing.T) {
	e := loadPeople(t)

	assert.Equal(t, []string{"people", "t"}, e.TableNames())
	assert.Equal(t, Stats{Tables: 2, Rows: 5}, e.Stats())

	table, err := e.GetTable("people")
	require.NoError(t, err)
	assert.Equal(t, types.DOUBLE, table.FieldTypes()["salary"])
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown type":  "tables: {t: {schema: {a: blob}}}",
		"unknown field": "tables: {t: {schema: {a: integer}, rows: [{b: 1}]}}",
		"wrong type":    "tables: {t: {schema: {a: integer}, rows: [{a: nope}]}}",
		"not yaml":      "tables: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Load(NewEngine(zerolog.Nop()), strings.NewReader(doc)))
		})
	}
}

func TestLoadJSON(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	require.NoError(t, Load(e, strings.NewReader(`{"tables": {"t": {"schema": {"a": "long"}, "rows": [{"a": 1}, {"a": 2}]}}}`)))

	assert.Equal(t, Stats{Tables: 1, Rows: 2}, e.Stats())
}

func TestGetMissingTable(t *testing.T) {
	_, err := loadPeople(t).GetTable("nope")
	assert.ErrorIs(t, err, storage.ErrTableNotFound)
}

func TestAddTableTwice(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	_, err := e.AddTable("t", types.Schema{"a": types.INTEGER})
	require.NoError(t, err)

	_, err = e.AddTable("t", types.Schema{"a": types.INTEGER})
	assert.ErrorIs(t, err, ErrTableExists)
}

func TestEmptyResult(t *testing.T) {
	rows := query(t, loadPeople(t), "search source=t a=1")

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestQueries(t *testing.T) {
	e := loadPeople(t)

	assert.Equal(t, []string{"ann", "cy"}, names(query(t, e, "source=people city=\"paris\"")))
	assert.Equal(t, []string{"cy", "ann"}, names(query(t, e, "source=people active | sort - salary | head 2")))
	assert.Equal(t, []string{"ed", "bob", "di"}, names(query(t, e, "source=people age < 30 | sort age, name")))

	rows := query(t, e, "source=people | stats count() as n, avg(age) by city | sort city")
	require.Len(t, rows, 3)
	assert.Equal(t, "null", rows[0].Get("city").String())
	assert.Equal(t, "2", rows[1].Get("n").String())
	assert.Equal(t, "23", rows[1].Get("avg(age)").String())

	rows = query(t, e, "source=people | where name = \"ann\" | eval half = salary / 2 | fields name, half")
	require.Len(t, rows, 1)
	assert.Equal(t, types.Row{"name": types.MakeString("ann"), "half": types.MakeFloat(2600.25)}, rows[0])

	rows = query(t, e, "source=people | rename name as who | dedup city | fields who")
	assert.Equal(t, []string{"ann", "bob"}, []string{rows[0].Get("who").String(), rows[1].Get("who").String()})
}

func TestImplementRejectsForeignPlans(t *testing.T) {
	e := loadPeople(t)

	q, err := parser.Parse("source=people")
	require.NoError(t, err)
	plan, err := analysis.NewAnalyzer(e).Analyze(q)
	require.NoError(t, err)

	other, err := e.Table("t")
	require.NoError(t, err)

	_, err = other.Implement(plan)
	assert.Error(t, err)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	e := loadPeople(t)
	table, err := e.Table("t")
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			if err := table.Append(map[string]interface{}{"a": i}); err != nil {
				return err
			}

			q, err := parser.Parse(fmt.Sprintf("source=t a >= 0 | head %d", i+1))
			if err != nil {
				return err
			}
			plan, err := analysis.NewAnalyzer(e).Analyze(q)
			if err != nil {
				return err
			}
			physical, err := planner.New(e).Plan(plan)
			if err != nil {
				return err
			}
			_, err = physical.Execute(context.Background())
			return err
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, 8, table.Len())
}

func TestStatsCollector(t *testing.T) {
	c := NewStatsCollector(loadPeople(t))

	expected := `
# HELP ppl_storage_rows Number of rows across every table in the storage engine.
# TYPE ppl_storage_rows gauge
ppl_storage_rows 5
# HELP ppl_storage_tables Number of tables in the storage engine.
# TYPE ppl_storage_tables gauge
ppl_storage_tables 2
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

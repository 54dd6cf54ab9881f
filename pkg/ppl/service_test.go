/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dburkart/ppl/pkg/common/failure"
	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/types"
	"github.com/dburkart/ppl/pkg/storage"
	"github.com/dburkart/ppl/pkg/storage/memory"
)

type physicalPlan struct{}

func (physicalPlan) Schema() []types.Column                       { return nil }
func (physicalPlan) Execute(context.Context) ([]types.Row, error) { return nil, nil }

type table struct {
	implement func(logical.Plan) (storage.PhysicalPlan, error)
}

func (t *table) FieldTypes() types.Schema { return types.Schema{"a": types.INTEGER} }

func (t *table) Implement(plan logical.Plan) (storage.PhysicalPlan, error) {
	if t.implement != nil {
		return t.implement(plan)
	}
	return physicalPlan{}, nil
}

type storageEngine struct {
	table    *table
	getTable func(string)
}

func (s *storageEngine) GetTable(name string) (storage.Table, error) {
	if s.getTable != nil {
		s.getTable(name)
	}
	if name != "t" {
		return nil, storage.ErrTableNotFound
	}
	return s.table, nil
}

// executionEngine answers every plan with an empty response, unless told
// otherwise.
type executionEngine struct {
	calls   atomic.Int32
	execute func(executor.ResponseListener)
}

func (e *executionEngine) Execute(_ context.Context, _ storage.PhysicalPlan, listener executor.ResponseListener) {
	e.calls.Add(1)
	if e.execute != nil {
		e.execute(listener)
		return
	}
	listener.OnResponse(executor.QueryResponse{})
}

func newService(engine storage.StorageEngine, exec executor.ExecutionEngine) *Service {
	return NewService(Config{Logger: zerolog.Nop()}, engine, exec)
}

func run(t *testing.T, s *Service, query string) (executor.QueryResponse, error) {
	t.Helper()

	r := executor.NewResultChannel()
	s.Execute(context.Background(), NewQueryRequest(query, ""), r)
	return r.Wait(context.Background())
}

func TestExecuteRespondsWithEmptyResult(t *testing.T) {
	exec := &executionEngine{}
	s := newService(&storageEngine{table: &table{}}, exec)

	response, err := run(t, s, "search source=t a=1")
	require.NoError(t, err)
	assert.Empty(t, response.Rows)
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestExecuteFailsOnSyntaxError(t *testing.T) {
	exec := &executionEngine{}
	s := newService(&storageEngine{table: &table{}}, exec)

	var responded, failed atomic.Int32
	var received error
	s.Execute(context.Background(), NewQueryRequest("search", ""), executor.ListenerFuncs{
		Response: func(executor.QueryResponse) { responded.Add(1) },
		Failure: func(err error) {
			failed.Add(1)
			received = err
		},
	})

	// Synchronous failures are reported before Execute returns.
	assert.Equal(t, int32(0), responded.Load())
	assert.Equal(t, int32(1), failed.Load())
	assert.True(t, failure.Is(received, failure.Syntax))
	assert.Equal(t, int32(0), exec.calls.Load())
}

func TestExecuteFailureKinds(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name  string
		query string
		table *table
		kind  failure.Kind
	}{
		{"syntax", "source=t | bogus", &table{}, failure.Syntax},
		{"missing source", "search source=missing a=1", &table{}, failure.Binding},
		{"missing field", "search source=t b=1", &table{}, failure.Binding},
		{"type mismatch", "search source=t a=\"x\"", &table{}, failure.Binding},
		{"implement error", "search source=t", &table{implement: func(logical.Plan) (storage.PhysicalPlan, error) { return nil, boom }}, failure.Compilation},
		{"implement panic", "search source=t", &table{implement: func(logical.Plan) (storage.PhysicalPlan, error) { panic("no") }}, failure.Compilation},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			exec := &executionEngine{}
			_, err := run(t, newService(&storageEngine{table: c.table}, exec), c.query)

			assert.Equal(t, c.kind, failure.KindOf(err), err)
			assert.Equal(t, int32(0), exec.calls.Load())
		})
	}
}

func TestMissingSourceIsNeverSyntax(t *testing.T) {
	_, err := run(t, newService(&storageEngine{table: &table{}}, &executionEngine{}), "source=nowhere")

	var f *failure.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, failure.Binding, f.Kind)
	assert.Equal(t, "nowhere", f.Fragment)
}

func TestPanicInStorageEngineIsReported(t *testing.T) {
	engine := &storageEngine{table: &table{}, getTable: func(string) { panic("storage exploded") }}

	_, err := run(t, newService(engine, &executionEngine{}), "source=t")
	assert.True(t, failure.Is(err, failure.Binding), err)
	assert.ErrorContains(t, err, "storage exploded")
}

func TestExecutionFailuresAreWrapped(t *testing.T) {
	boom := errors.New("engine down")
	exec := &executionEngine{execute: func(l executor.ResponseListener) { l.OnFailure(boom) }}

	_, err := run(t, newService(&storageEngine{table: &table{}}, exec), "source=t")
	assert.True(t, failure.Is(err, failure.Execution))
	assert.ErrorIs(t, err, boom)
}

func TestEngineFailuresAlwaysHaveExecutionKind(t *testing.T) {
	cause := errors.New("bad token")
	for _, kind := range []failure.Kind{failure.Syntax, failure.Binding, failure.Compilation, failure.Execution} {
		t.Run(kind.String(), func(t *testing.T) {
			reported := failure.New(kind, "x", cause)
			exec := &executionEngine{execute: func(l executor.ResponseListener) { l.OnFailure(reported) }}

			_, err := run(t, newService(&storageEngine{table: &table{}}, exec), "source=t")
			assert.Equal(t, failure.Execution, failure.KindOf(err))
			assert.ErrorIs(t, err, cause)
			if kind == failure.Execution {
				assert.Same(t, reported, err)
			}
		})
	}
}

func TestExecutionEnginePanicIsReported(t *testing.T) {
	exec := &executionEngine{execute: func(executor.ResponseListener) { panic("oops") }}

	_, err := run(t, newService(&storageEngine{table: &table{}}, exec), "source=t")
	assert.True(t, failure.Is(err, failure.Execution))
}

func TestOnlyOneOutcomeReachesTheCaller(t *testing.T) {
	exec := &executionEngine{execute: func(l executor.ResponseListener) {
		l.OnResponse(executor.QueryResponse{})
		l.OnFailure(errors.New("late"))
		l.OnResponse(executor.QueryResponse{})
	}}

	var outcomes atomic.Int32
	newService(&storageEngine{table: &table{}}, exec).Execute(context.Background(), NewQueryRequest("source=t", ""), executor.ListenerFuncs{
		Response: func(executor.QueryResponse) { outcomes.Add(1) },
		Failure:  func(error) { outcomes.Add(1) },
	})

	assert.Equal(t, int32(1), outcomes.Load())
}

func TestConcurrentQueries(t *testing.T) {
	engine := memory.NewEngine(zerolog.Nop())
	people, err := engine.AddTable("people", types.Schema{"name": types.STRING, "age": types.INTEGER})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, people.Append(map[string]interface{}{"name": fmt.Sprint("p", i), "age": i}))
	}

	exec, err := executor.NewPooledEngine(executor.Config{Workers: 4}, zerolog.Nop())
	require.NoError(t, err)
	defer exec.Close()

	s := newService(engine, exec)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			r := executor.NewResultChannel()
			s.Execute(ctx, NewQueryRequest(fmt.Sprintf("source=people age < %d | fields name", i), ""), r)

			response, err := r.Wait(ctx)
			if err != nil {
				return err
			}
			if len(response.Rows) != i {
				return fmt.Errorf("query %d returned %d rows", i, len(response.Rows))
			}
			return nil
		})
	}

	assert.NoError(t, g.Wait())
}

func TestExplain(t *testing.T) {
	s := newService(&storageEngine{table: &table{}}, &executionEngine{})

	explained, err := s.Explain(NewQueryRequest("source=t a > 1 | head 3", ""))
	require.NoError(t, err)
	assert.Equal(t, "Output[a:INTEGER]\n    Limit[3]\n        Filter[a > 1]\n            Relation[t]\n", explained)

	_, err = s.Explain(NewQueryRequest("source=missing", ""))
	assert.True(t, failure.Is(err, failure.Binding))

	_, err = s.Explain(NewQueryRequest("| head", ""))
	assert.True(t, failure.Is(err, failure.Syntax))
}

func TestMetrics(t *testing.T) {
	metrics := NewMetricsStore()
	s := NewService(Config{Logger: zerolog.Nop(), Metrics: metrics}, &storageEngine{table: &table{}}, &executionEngine{})

	_, err := run(t, s, "source=t")
	require.NoError(t, err)
	_, err = run(t, s, "source=")
	require.Error(t, err)
	_, err = run(t, s, "source=x")
	require.Error(t, err)

	ms := metrics.(*metricsStore)
	assert.Equal(t, 1.0, testutil.ToFloat64(ms.Requests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ms.Requests.WithLabelValues("syntax")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ms.Requests.WithLabelValues("binding")))
	assert.Equal(t, 0.0, testutil.ToFloat64(ms.InFlight))
}

func TestResponseFormat(t *testing.T) {
	assert.Equal(t, FormatTable, NewQueryRequest("q", "").ResponseFormat())
	assert.Equal(t, FormatCSV, NewQueryRequest("q", "CSV").ResponseFormat())
	assert.Equal(t, FormatJSON, NewQueryRequest("q", "json").ResponseFormat())
	assert.Equal(t, FormatTable, NewQueryRequest("q", "yaml").ResponseFormat())
}

/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package ppl is the entry point for running piped processing language
// queries. A Service parses, binds and compiles a query on the caller's
// goroutine, then hands the physical plan to an execution engine. The outcome
// is reported to a listener exactly once.
package ppl

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dburkart/ppl/pkg/common/failure"
	"github.com/dburkart/ppl/pkg/common/parse"
	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl/analysis"
	"github.com/dburkart/ppl/pkg/ppl/ast"
	"github.com/dburkart/ppl/pkg/ppl/logical"
	"github.com/dburkart/ppl/pkg/ppl/parser"
	"github.com/dburkart/ppl/pkg/ppl/planner"
	"github.com/dburkart/ppl/pkg/storage"
)

type Config struct {
	Logger zerolog.Logger
	// Metrics is optional.
	Metrics MetricsStore
}

type Service struct {
	log     zerolog.Logger
	metrics MetricsStore
	engine  storage.StorageEngine
	exec    executor.ExecutionEngine
}

func NewService(cfg Config, engine storage.StorageEngine, exec executor.ExecutionEngine) *Service {
	return &Service{
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		engine:  engine,
		exec:    exec,
	}
}

// Execute runs request, reporting the outcome to listener. Failures before
// the plan reaches the execution engine are reported before Execute returns,
// and the engine is never involved.
func (s *Service) Execute(ctx context.Context, request QueryRequest, listener executor.ResponseListener) {
	t := s.track(request, listener)

	physical, err := s.prepare(t, request)
	if err != nil {
		t.fail(err)
		return
	}

	t.reach(Submitted)
	s.submit(ctx, t, physical)
}

// Explain parses and binds request and renders the resulting logical plan.
func (s *Service) Explain(request QueryRequest) (explained string, err error) {
	stage := Received
	defer func() {
		if r := recover(); r != nil {
			explained, err = "", failure.New(stage.failureKind(), "", errors.Errorf("panic: %v", r))
		}
	}()

	q, err := parseQuery(request.Query)
	if err != nil {
		return "", err
	}
	stage = Parsed

	plan, err := bindQuery(s.engine, q)
	if err != nil {
		return "", err
	}

	return logical.Explain(plan), nil
}

func (s *Service) prepare(t *tracker, request QueryRequest) (physical storage.PhysicalPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Str("stage", t.stage.String()).Msg("query panicked")
			physical, err = nil, failure.New(t.stage.failureKind(), "", errors.Errorf("panic after %s: %v", t.stage, r))
		}
	}()

	q, err := parseQuery(request.Query)
	if err != nil {
		return nil, err
	}
	t.reach(Parsed)

	plan, err := bindQuery(s.engine, q)
	if err != nil {
		return nil, err
	}
	t.reach(Bound)
	t.log.Trace().Str("plan", logical.Explain(plan)).Msg("bound query")

	physical, err = planner.New(s.engine).Plan(plan)
	if err != nil {
		var ce *planner.CompilationError
		fragment := ""
		if errors.As(err, &ce) {
			fragment = ce.Source
		}
		return nil, failure.New(failure.Compilation, fragment, err)
	}
	t.reach(Compiled)

	return physical, nil
}

func (s *Service) submit(ctx context.Context, t *tracker, physical storage.PhysicalPlan) {
	defer func() {
		if r := recover(); r != nil {
			t.OnFailure(errors.Errorf("execution engine panicked: %v", r))
		}
	}()

	s.exec.Execute(ctx, physical, t)
}

func parseQuery(query string) (*ast.QueryNode, error) {
	q, err := parser.Parse(query)
	if err != nil {
		var se *parse.SyntaxError
		fragment := ""
		if errors.As(err, &se) {
			fragment = se.Fragment
		}
		return nil, failure.New(failure.Syntax, fragment, err)
	}
	return q, nil
}

func bindQuery(engine storage.StorageEngine, q *ast.QueryNode) (logical.Plan, error) {
	plan, err := analysis.NewAnalyzer(engine).Analyze(q)
	if err != nil {
		var be *analysis.BindingError
		fragment := ""
		if errors.As(err, &be) {
			fragment = be.Fragment
		}
		return nil, failure.New(failure.Binding, fragment, err)
	}
	return plan, nil
}

// tracker follows a single query through its stages. It is the listener
// handed to the execution engine, so it also sees the final outcome.
type tracker struct {
	log      zerolog.Logger
	metrics  MetricsStore
	listener executor.ResponseListener
	stage    Stage
	start    time.Time
	once     sync.Once
}

func (s *Service) track(request QueryRequest, listener executor.ResponseListener) *tracker {
	t := &tracker{
		log:      s.log.With().Str("query_id", uuid.New().String()).Logger(),
		metrics:  s.metrics,
		listener: executor.Once(listener),
		stage:    Received,
		start:    time.Now(),
	}

	t.log.Debug().Str("query", request.Query).Msg("received query")
	if t.metrics != nil {
		t.metrics.IncInFlight()
	}
	return t
}

func (t *tracker) reach(stage Stage) {
	t.stage = stage
	t.log.Trace().Str("stage", stage.String()).Dur("elapsed", time.Since(t.start)).Msg("query progressed")
	if t.metrics != nil {
		t.metrics.ObserveStage(stage, time.Since(t.start))
	}
}

func (t *tracker) OnResponse(response executor.QueryResponse) {
	t.once.Do(func() {
		t.listener.OnResponse(response)
		t.finish(Completed, "success")
		t.log.Debug().Int("rows", len(response.Rows)).Msg("query completed")
	})
}

// OnFailure receives failures from the execution engine. Whatever the engine
// reports is an execution failure, with the original error as its cause.
func (t *tracker) OnFailure(err error) {
	if !failure.Is(err, failure.Execution) {
		err = failure.New(failure.Execution, "", err)
	}
	t.fail(err)
}

// fail delivers a failure raised before or during execution to the caller.
func (t *tracker) fail(err error) {
	var f *failure.Failure
	if !errors.As(err, &f) {
		f = failure.New(failure.Execution, "", err)
	}

	t.once.Do(func() {
		t.listener.OnFailure(f)
		t.finish(Failed, f.Kind.String())
		t.log.Debug().Err(f).Str("kind", f.Kind.String()).Msg("query failed")
	})
}

func (t *tracker) finish(stage Stage, outcome string) {
	if t.metrics == nil {
		return
	}
	t.metrics.ObserveStage(stage, time.Since(t.start))
	t.metrics.IncRequests(outcome)
	t.metrics.DecInFlight()
}

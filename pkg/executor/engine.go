/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package executor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dburkart/ppl/pkg/storage"
)

const releaseTimeout = 5 * time.Second

var ErrEngineClosed = errors.New("execution engine is closed")

type ExecutionEngine interface {
	// Execute runs plan asynchronously and reports the outcome to listener.
	Execute(ctx context.Context, plan storage.PhysicalPlan, listener ResponseListener)
}

type Config struct {
	// Workers bounds how many plans run at once. Zero means one per CPU.
	Workers int
	// Timeout bounds how long a single plan may run. Zero means no limit.
	Timeout time.Duration
}

// PooledEngine runs plans on a bounded pool of goroutines. Plans that arrive
// while every worker is busy wait in line without blocking the caller.
type PooledEngine struct {
	pool    *ants.Pool
	slots   *semaphore.Weighted
	timeout time.Duration
	log     zerolog.Logger

	// closed is cancelled by Close and releases plans still waiting in line.
	closed  context.Context
	close   context.CancelFunc
	waiting sync.WaitGroup
}

func NewPooledEngine(cfg Config, log zerolog.Logger) (*PooledEngine, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		log.Error().Interface("panic", p).Msg("worker panicked outside of a query")
	}))
	if err != nil {
		return nil, errors.Wrap(err, "creating worker pool")
	}

	log.Debug().Int("workers", workers).Dur("timeout", cfg.Timeout).Msg("started execution engine")

	closed, cancel := context.WithCancel(context.Background())
	return &PooledEngine{
		pool:    pool,
		slots:   semaphore.NewWeighted(int64(workers)),
		timeout: cfg.Timeout,
		log:     log,
		closed:  closed,
		close:   cancel,
	}, nil
}

// Execute returns immediately. The plan runs once a worker is free, unless ctx
// is done or the engine is closed first.
func (e *PooledEngine) Execute(ctx context.Context, plan storage.PhysicalPlan, listener ResponseListener) {
	listener = Once(listener)

	if plan == nil {
		listener.OnFailure(errors.New("no plan to execute"))
		return
	}
	if e.closed.Err() != nil {
		listener.OnFailure(ErrEngineClosed)
		return
	}

	e.waiting.Add(1)
	go func() {
		defer e.waiting.Done()
		e.schedule(ctx, plan, listener)
	}()
}

func (e *PooledEngine) schedule(ctx context.Context, plan storage.PhysicalPlan, listener ResponseListener) {
	wait, stop := context.WithCancel(ctx)
	defer stop()
	defer context.AfterFunc(e.closed, stop)()

	if err := e.slots.Acquire(wait, 1); err != nil {
		if ctx.Err() == nil && e.closed.Err() != nil {
			err = ErrEngineClosed
		}
		listener.OnFailure(errors.Wrap(err, "waiting for a worker"))
		return
	}

	err := e.pool.Submit(func() {
		defer e.slots.Release(1)
		e.run(ctx, plan, listener)
	})
	if err != nil {
		e.slots.Release(1)
		if errors.Is(err, ants.ErrPoolClosed) {
			err = ErrEngineClosed
		}
		listener.OnFailure(errors.Wrap(err, "submitting query"))
	}
}

func (e *PooledEngine) run(ctx context.Context, plan storage.PhysicalPlan, listener ResponseListener) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("query panicked")
			listener.OnFailure(errors.Errorf("query panicked: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		listener.OnFailure(err)
		return
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := plan.Execute(ctx)
	if err != nil {
		e.log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("query failed")
		listener.OnFailure(err)
		return
	}

	e.log.Trace().Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("query finished")
	listener.OnResponse(QueryResponse{Schema: plan.Schema(), Rows: rows})
}

// Running returns the number of plans currently executing.
func (e *PooledEngine) Running() int {
	return e.pool.Running()
}

// Close fails plans still waiting for a worker, waits for running plans to
// finish and releases the pool. Plans submitted afterwards fail.
func (e *PooledEngine) Close() error {
	e.close()
	err := e.pool.ReleaseTimeout(releaseTimeout)
	e.waiting.Wait()
	if err != nil && !errors.Is(err, ants.ErrPoolClosed) {
		return errors.Wrap(err, "releasing worker pool")
	}
	return nil
}

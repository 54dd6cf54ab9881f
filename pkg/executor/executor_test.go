/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dburkart/ppl/pkg/ppl/types"
)

type planFunc func(ctx context.Context) ([]types.Row, error)

func (f planFunc) Schema() []types.Column {
	return []types.Column{{Name: "a", Type: types.INTEGER}}
}

func (f planFunc) Execute(ctx context.Context) ([]types.Row, error) {
	return f(ctx)
}

// ants starts a default pool when the package is loaded.
var ignoreDefaultPool = []goleak.Option{
	goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*poolCommon).purgeStaleWorkers"),
	goleak.IgnoreTopFunction("github.com/panjf2000/ants/v2.(*poolCommon).ticktock"),
}

type counting struct {
	responses atomic.Int32
	failures  atomic.Int32
}

func (c *counting) OnResponse(QueryResponse) { c.responses.Add(1) }
func (c *counting) OnFailure(error)          { c.failures.Add(1) }

func engine(t *testing.T, cfg Config) *PooledEngine {
	t.Helper()

	e, err := NewPooledEngine(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, e.Close())
		goleak.VerifyNone(t, ignoreDefaultPool...)
	})
	return e
}

func TestOnceDeliversFirstOutcomeOnly(t *testing.T) {
	c := &counting{}
	l := Once(c)

	l.OnResponse(QueryResponse{})
	l.OnFailure(errors.New("late"))
	l.OnResponse(QueryResponse{})

	assert.Equal(t, int32(1), c.responses.Load())
	assert.Equal(t, int32(0), c.failures.Load())
	assert.Same(t, l, Once(l))
}

func TestOnceUnderConcurrency(t *testing.T) {
	c := &counting{}
	l := Once(c)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				l.OnResponse(QueryResponse{})
			} else {
				l.OnFailure(errors.New("x"))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), c.responses.Load()+c.failures.Load())
}

func TestOnceNeverDeliversNilRows(t *testing.T) {
	var got QueryResponse
	Once(ListenerFuncs{Response: func(r QueryResponse) { got = r }}).OnResponse(QueryResponse{})

	assert.NotNil(t, got.Rows)
}

func TestListenerFuncsToleratesNil(t *testing.T) {
	assert.NotPanics(t, func() {
		ListenerFuncs{}.OnResponse(QueryResponse{})
		ListenerFuncs{}.OnFailure(errors.New("x"))
	})
}

func TestResultChannelWait(t *testing.T) {
	r := NewResultChannel()
	r.OnFailure(errors.New("first"))
	r.OnResponse(QueryResponse{})

	_, err := r.Wait(context.Background())
	assert.EqualError(t, err, "first")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = NewResultChannel().Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPooledEngineResponds(t *testing.T) {
	e := engine(t, Config{Workers: 2})
	r := NewResultChannel()

	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) {
		return []types.Row{{"a": types.MakeInt(1)}}, nil
	}), r)

	response, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, response.Rows, 1)
	assert.Equal(t, "a", response.Schema[0].Name)
}

func TestPooledEngineReportsFailures(t *testing.T) {
	e := engine(t, Config{Workers: 2})
	boom := errors.New("boom")

	r := NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) { return nil, boom }), r)
	_, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	r = NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) { panic("kaboom") }), r)
	_, err = r.Wait(context.Background())
	assert.ErrorContains(t, err, "kaboom")

	r = NewResultChannel()
	e.Execute(context.Background(), nil, r)
	_, err = r.Wait(context.Background())
	assert.Error(t, err)
}

func TestPooledEngineTimeout(t *testing.T) {
	e := engine(t, Config{Workers: 1, Timeout: 20 * time.Millisecond})
	r := NewResultChannel()

	e.Execute(context.Background(), planFunc(func(ctx context.Context) ([]types.Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), r)

	_, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPooledEngineCancelledBeforeRun(t *testing.T) {
	e := engine(t, Config{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	r := NewResultChannel()
	e.Execute(ctx, planFunc(func(context.Context) ([]types.Row, error) {
		ran.Store(true)
		return nil, nil
	}), r)

	_, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}

func TestPooledEngineExactlyOnceUnderLoad(t *testing.T) {
	e := engine(t, Config{Workers: 4})
	c := &counting{}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		i := i
		e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) {
			if i%3 == 0 {
				return nil, errors.New("x")
			}
			return nil, nil
		}), ListenerFuncs{
			Response: func(QueryResponse) { c.responses.Add(1); wg.Done() },
			Failure:  func(error) { c.failures.Add(1); wg.Done() },
		})
	}
	wg.Wait()

	assert.Equal(t, int32(66), c.responses.Load())
	assert.Equal(t, int32(34), c.failures.Load())
}

func TestPooledEngineAfterClose(t *testing.T) {
	e, err := NewPooledEngine(Config{Workers: 1}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, e.Close())

	r := NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) { return nil, nil }), r)

	_, err = r.Wait(context.Background())
	assert.ErrorIs(t, err, ErrEngineClosed)
	goleak.VerifyNone(t, ignoreDefaultPool...)
}

func TestPooledEngineDoesNotBlockWhenSaturated(t *testing.T) {
	e := engine(t, Config{Workers: 1})

	release := make(chan struct{})
	first := NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) {
		<-release
		return nil, nil
	}), first)
	require.Eventually(t, func() bool { return e.Running() == 1 }, time.Second, time.Millisecond)

	// The only worker is busy, so these wait in line while Execute returns.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	expired := NewResultChannel()
	queued := NewResultChannel()

	start := time.Now()
	e.Execute(ctx, planFunc(func(context.Context) ([]types.Row, error) { return nil, nil }), expired)
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) {
		return []types.Row{{"a": types.MakeInt(2)}}, nil
	}), queued)
	assert.Less(t, time.Since(start), 40*time.Millisecond)

	_, err := expired.Wait(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, e.Running())

	close(release)
	_, err = first.Wait(context.Background())
	require.NoError(t, err)
	response, err := queued.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, response.Rows, 1)
}

func TestPooledEngineFollowUpFromListener(t *testing.T) {
	e := engine(t, Config{Workers: 1})
	noop := planFunc(func(context.Context) ([]types.Row, error) { return nil, nil })

	followUp := NewResultChannel()
	e.Execute(context.Background(), noop, ListenerFuncs{
		Response: func(QueryResponse) { e.Execute(context.Background(), noop, followUp) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := followUp.Wait(ctx)
	assert.NoError(t, err)
}

func TestPooledEngineCloseFailsWaitingPlans(t *testing.T) {
	e, err := NewPooledEngine(Config{Workers: 1}, zerolog.Nop())
	require.NoError(t, err)

	release := make(chan struct{})
	running := NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) {
		<-release
		return nil, nil
	}), running)
	require.Eventually(t, func() bool { return e.Running() == 1 }, time.Second, time.Millisecond)

	waiting := NewResultChannel()
	e.Execute(context.Background(), planFunc(func(context.Context) ([]types.Row, error) { return nil, nil }), waiting)

	closed := make(chan error, 1)
	go func() { closed <- e.Close() }()

	_, err = waiting.Wait(context.Background())
	assert.ErrorIs(t, err, ErrEngineClosed)

	close(release)
	_, err = running.Wait(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, <-closed)
	goleak.VerifyNone(t, ignoreDefaultPool...)
}

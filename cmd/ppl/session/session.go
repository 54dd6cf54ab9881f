/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package session wires the query service to the configured dataset and
// execution engine for the CLI commands.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dburkart/ppl/pkg/executor"
	"github.com/dburkart/ppl/pkg/ppl"
	"github.com/dburkart/ppl/pkg/storage/memory"
)

type Session struct {
	Service *ppl.Service
	Storage *memory.Engine

	log     zerolog.Logger
	exec    *executor.PooledEngine
	metrics ppl.MetricsStore
	server  *http.Server
}

// Open loads the configured dataset and starts an execution engine.
func Open(log zerolog.Logger) (*Session, error) {
	storage := memory.NewEngine(log)
	if path := viper.GetString("data"); path != "" {
		if err := memory.LoadFile(storage, path); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("no dataset configured, there are no tables to query")
	}

	exec, err := executor.NewPooledEngine(executor.Config{
		Workers: viper.GetInt("executor.workers"),
		Timeout: viper.GetDuration("executor.timeout"),
	}, log)
	if err != nil {
		return nil, err
	}

	metrics := ppl.NewMetricsStore()
	metrics.RegisterCollector(memory.NewStatsCollector(storage))

	s := &Session{
		Service: ppl.NewService(ppl.Config{Logger: log, Metrics: metrics}, storage, exec),
		Storage: storage,
		log:     log,
		exec:    exec,
		metrics: metrics,
	}

	if port := viper.GetInt("metrics.port"); port > 0 {
		s.serveMetrics(port)
	}

	return s, nil
}

func (s *Session) serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info().Int("port", port).Msg("/metrics endpoint started")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics endpoint failed")
		}
	}()
}

// Query runs request and waits for its outcome.
func (s *Session) Query(ctx context.Context, request ppl.QueryRequest) (executor.QueryResponse, time.Duration, error) {
	start := time.Now()

	r := executor.NewResultChannel()
	s.Service.Execute(ctx, request, r)
	response, err := r.Wait(ctx)

	return response, time.Since(start), err
}

// Request builds a request using the configured output format.
func Request(query string) ppl.QueryRequest {
	return ppl.NewQueryRequest(query, viper.GetString("query.format"))
}

func (s *Session) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.log.Error().Err(err).Msg("unable to stop metrics endpoint")
		}
	}
	return s.exec.Close()
}

// Summary describes a result for humans, e.g. "1,024 rows in 3ms".
func Summary(rows int, elapsed time.Duration) string {
	count := humanize.Comma(int64(rows)) + " " + english.PluralWord(rows, "row", "")
	return fmt.Sprintf("%s in %s", count, elapsed.Round(time.Microsecond))
}

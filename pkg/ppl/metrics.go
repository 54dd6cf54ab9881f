/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsStore interface {
	Registry() *prometheus.Registry
	RegisterCollector(c prometheus.Collector)
	Handler() http.Handler

	// Collection
	IncRequests(outcome string)
	ObserveStage(stage Stage, d time.Duration)
	IncInFlight()
	DecInFlight()
}

type metricsStore struct {
	registry *prometheus.Registry
	Requests *prometheus.CounterVec
	StageNS  *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

var (
	OutcomeLabel = "outcome"
	StageLabel   = "stage"
)

func NewMetricsStore() MetricsStore {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsAll),
		),
	)

	buckets := []float64{}
	for i := 0; i < 20; i++ {
		buckets = append(buckets, float64(int64(50*time.Microsecond)<<i))
	}

	factory := promauto.With(reg)
	return &metricsStore{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ppl_requests",
			Help: "Queries handled, by outcome",
		}, []string{OutcomeLabel}),
		StageNS: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ppl_stage_ns",
			Help:    "Time taken to reach each stage of a query",
			Buckets: buckets,
		}, []string{StageLabel}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ppl_queries_in_flight",
			Help: "Queries received but not yet answered",
		}),
	}
}

func (ms *metricsStore) Registry() *prometheus.Registry {
	return ms.registry
}

func (ms *metricsStore) RegisterCollector(c prometheus.Collector) {
	ms.registry.MustRegister(c)
}

func (ms *metricsStore) Handler() http.Handler {
	return promhttp.HandlerFor(ms.Registry(), promhttp.HandlerOpts{Registry: ms.Registry()})
}

func (ms *metricsStore) IncRequests(outcome string) {
	ms.Requests.With(prometheus.Labels{OutcomeLabel: outcome}).Inc()
}

func (ms *metricsStore) ObserveStage(stage Stage, d time.Duration) {
	ms.StageNS.
		With(prometheus.Labels{StageLabel: stage.String()}).
		Observe(float64(d.Nanoseconds()))
}

func (ms *metricsStore) IncInFlight() {
	ms.InFlight.Inc()
}

func (ms *metricsStore) DecInFlight() {
	ms.InFlight.Dec()
}

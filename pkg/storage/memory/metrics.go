/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package memory

import (
	"github.com/prometheus/client_golang/prometheus"
)

type statsCollector struct {
	engine *Engine

	tables *prometheus.Desc
	rows   *prometheus.Desc
}

// NewStatsCollector exports the size of e as gauges.
func NewStatsCollector(e *Engine) prometheus.Collector {
	return &statsCollector{
		engine: e,
		tables: prometheus.NewDesc(
			"ppl_storage_tables",
			"Number of tables in the storage engine.",
			nil, nil,
		),
		rows: prometheus.NewDesc(
			"ppl_storage_rows",
			"Number of rows across every table in the storage engine.",
			nil, nil,
		),
	}
}

// Describe implements Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tables
	ch <- c.rows
}

// Collect implements Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()
	ch <- prometheus.MustNewConstMetric(c.tables, prometheus.GaugeValue, float64(stats.Tables))
	ch <- prometheus.MustNewConstMetric(c.rows, prometheus.GaugeValue, float64(stats.Rows))
}

/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by a Driver.
type Metrics struct {
	repositories *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	runs         *prometheus.CounterVec
	lastRun      prometheus.Gauge
	runDuration  prometheus.Gauge
}

// NewMetrics registers the pipeline collectors with reg. Use a fresh
// registry per Driver; registering twice with the same registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		repositories: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "touchup_repositories_total",
				Help: "Repositories processed, by terminal state",
			},
			[]string{"state"},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "touchup_gate_decisions_total",
				Help: "Candidate edits evaluated by the acceptance gate, by reason",
			},
			[]string{"reason"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "touchup_runs_total",
				Help: "Pipeline runs, by result",
			},
			[]string{"result"},
		),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "touchup_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "touchup_last_run_duration_seconds",
			Help: "Wall time of the most recent run",
		}),
	}
}

func (m *Metrics) observeOutcome(state State) {
	if m == nil {
		return
	}
	m.repositories.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeDecision(reason Reason) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) observeRun(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "discovery_failed"
	}
	m.runs.WithLabelValues(result).Inc()
	m.lastRun.SetToCurrentTime()
	m.runDuration.Set(time.Since(start).Seconds())
}

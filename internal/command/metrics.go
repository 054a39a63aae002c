// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess          = "success"
	StatusError            = "error"
	StatusNotFound         = "not_found"
	StatusNotAuthenticated = "not_authenticated"
	StatusRateLimited      = "rate_limited"
)

// Executions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var Executions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "embergate_command_executions_total",
		Help: "Total number of command executions",
	},
	[]string{"command", "status"},
)

// Duration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var Duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "embergate_command_duration_seconds",
		Help:    "Command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RegisterMetrics registers command package metrics with the given Prometheus
// registry. Panics if registration fails, following prometheus convention.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Executions)
	reg.MustRegister(Duration)
}

// MetricsRecorder tracks execution metrics for a single dispatch.
type MetricsRecorder struct {
	startTime time.Time
	command   string
	status    string
}

// NewMetricsRecorder initializes a recorder for a single dispatch.
func NewMetricsRecorder(command string) *MetricsRecorder {
	return &MetricsRecorder{startTime: time.Now(), command: command}
}

// SetStatus sets the execution status for metrics.
func (m *MetricsRecorder) SetStatus(status string) {
	m.status = status
}

// Record writes the collected metrics.
func (m *MetricsRecorder) Record() {
	if m.command == "" {
		return
	}
	Executions.WithLabelValues(m.command, m.status).Inc()
	Duration.WithLabelValues(m.command).Observe(time.Since(m.startTime).Seconds())
}

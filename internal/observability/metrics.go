package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the auditor.
type Metrics struct {
	registry        *prometheus.Registry
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	ToolCalls       *prometheus.CounterVec
	IssuesReported  *prometheus.CounterVec
	BackendFailures *prometheus.CounterVec
	ActiveStreams   *prometheus.GaugeVec
}

// NewMetrics constructs a metrics registry with auditor collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_runs_total",
		Help: "Completed audit runs by termination reason",
	}, []string{"reason"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auditor_run_duration_seconds",
		Help:    "Audit run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_tool_calls_total",
		Help: "Tool invocations by tool name and outcome",
	}, []string{"tool", "outcome"})

	issues := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_issues_reported_total",
		Help: "Accepted issues by severity",
	}, []string{"severity"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_backend_failures_total",
		Help: "Model backend failures by provider",
	}, []string{"provider"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "auditor_active_streams",
		Help: "Active streaming audit sessions by transport",
	}, []string{"transport"})

	reg.MustRegister(runs, durs, calls, issues, failures, active)

	return &Metrics{
		registry:        reg,
		Runs:            runs,
		RunDuration:     durs,
		ToolCalls:       calls,
		IssuesReported:  issues,
		BackendFailures: failures,
		ActiveStreams:   active,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records a terminated run with its duration and accounting.
func (m *Metrics) RecordRun(reason string, duration time.Duration, rounds, toolCalls int) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.Runs.WithLabelValues(reason).Inc()
	m.RunDuration.WithLabelValues(reason).Observe(duration.Seconds())
}

// RecordToolCall records a single tool invocation.
func (m *Metrics) RecordToolCall(tool string, isError bool) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordIssue records an accepted finding.
func (m *Metrics) RecordIssue(severity string) {
	if m == nil {
		return
	}
	if severity == "" {
		severity = "unknown"
	}
	m.IssuesReported.WithLabelValues(severity).Inc()
}

// RecordBackendFailure records a failed model backend request.
func (m *Metrics) RecordBackendFailure(provider string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	m.BackendFailures.WithLabelValues(provider).Inc()
}

// IncActiveStreams increments the active stream gauge.
func (m *Metrics) IncActiveStreams(transport string) {
	if m == nil {
		return
	}
	m.ActiveStreams.WithLabelValues(transport).Inc()
}

// DecActiveStreams decrements the active stream gauge.
func (m *Metrics) DecActiveStreams(transport string) {
	if m == nil {
		return
	}
	m.ActiveStreams.WithLabelValues(transport).Dec()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "healthcare_dq"
)

var (
	auditRunDurationBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

	// Audit run metrics
	AuditRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_runs_total",
		Help:      "Count of audit runs by outcome.",
	}, []string{"status"})

	AuditRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_run_duration_seconds",
		Help:      "Time taken for a full audit run to complete.",
		Buckets:   auditRunDurationBuckets,
	})

	AuditLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last audit run that produced a report.",
	})

	// Rule metrics
	RuleExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_executions_total",
		Help:      "Number of rule executions.",
	}, []string{"rule", "status"})

	RuleExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rule_execution_duration_seconds",
		Help:      "Time taken for a single rule to query and evaluate.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"rule"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "findings_total",
		Help:      "Number of findings produced by rules.",
	}, []string{"rule", "severity"})

	AuditWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Number of findings that could not be written to the audit log.",
	}, []string{"rule"})
)

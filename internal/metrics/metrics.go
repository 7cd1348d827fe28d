// Package metrics exposes the adaptor's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts completed operations by tag and outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adaptor_operations_total",
		Help: "Completed treasury operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// AuditRecordsTotal counts audit records by success or failure.
	AuditRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adaptor_audit_records_total",
		Help: "Audit trail records appended, by result.",
	}, []string{"result"})

	// CommitFailuresTotal counts failed commit boundary calls.
	CommitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adaptor_commit_failures_total",
		Help: "Self-addressed commit_state calls that failed.",
	})

	// LockContentionTotal counts operations rejected because the position
	// lock was held.
	LockContentionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adaptor_lock_contention_total",
		Help: "Operations rejected while the position lock was held.",
	}, []string{"operation"})

	// LastReconciliationTS is the unix time of the last successful refresh.
	LastReconciliationTS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adaptor_last_reconciliation_timestamp_seconds",
		Help: "Unix timestamp of the last successful position refresh.",
	})
)

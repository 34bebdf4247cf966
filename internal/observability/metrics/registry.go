// Package metrics provides centralized Prometheus metrics for background
// maintenance jobs and business-level gauges.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business-level gauges and counters.
var (
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_total",
			Help: "Registered users in the database",
		},
	)

	UsageRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feature_usage_records_total",
			Help: "Feature usage records in the database",
		},
	)

	LettersGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appeal_letters_generated_total",
			Help: "Appeal letters generated, by status",
		},
		[]string{"status"},
	)
)

// Maintenance job metrics.
var (
	MaintenanceJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maintenance_job_duration_seconds",
			Help:    "Duration of one maintenance job run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)

	MaintenanceJobErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_job_errors_total",
			Help: "Maintenance job failures, by job and error type",
		},
		[]string{"job", "error_type"},
	)

	UsageRecordsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "usage_records_purged_total",
			Help: "Usage records removed by the retention job",
		},
	)

	RateWindowsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_windows_purged_total",
			Help: "Rate limit windows removed by the cleanup job",
		},
	)
)

// Worker database metrics.
var (
	WorkerDBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_db_query_duration_seconds",
			Help:    "Worker database query duration, by operation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Database connections sitting idle in the pool",
		},
	)
)

// RecordOperationDuration observes one database operation's duration.
func RecordOperationDuration(operation string, duration time.Duration) {
	WorkerDBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

package worker

import (
	"claim-navigator/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the maintenance worker.
// It embeds the standard ConfigMetrics for configuration monitoring and
// adds run-level metrics for the scheduled maintenance cycle. Per-job
// durations and purge counters are recorded separately by the
// observability metrics package.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_maintenance_runs_total: Total maintenance runs by status
//   - worker_maintenance_run_duration_seconds: Duration of a full maintenance run
//   - worker_maintenance_last_success_timestamp: Unix timestamp of last successful run
type WorkerMetrics struct {
	*config.ConfigMetrics

	// MaintenanceRunsTotal counts maintenance runs.
	// Labels: status (started, success, failure)
	MaintenanceRunsTotal *prometheus.CounterVec

	// MaintenanceRunDurationSeconds measures the duration of a full
	// maintenance run across all jobs.
	// Buckets: 100ms to 5m; cleanup is mostly bounded DELETE statements.
	MaintenanceRunDurationSeconds prometheus.Histogram

	// MaintenanceLastSuccessTimestamp records the Unix timestamp of the
	// last run in which every job succeeded.
	MaintenanceLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a new WorkerMetrics instance with all metrics
// initialized and registered with the default Prometheus registry.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		MaintenanceRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_maintenance_runs_total",
			Help: "Total number of maintenance runs by status (started/success/failure)",
		}, []string{"status"}),

		MaintenanceRunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_maintenance_run_duration_seconds",
			Help:    "Duration of a full maintenance run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),

		MaintenanceLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_maintenance_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful maintenance run",
		}),
	}
}

// MustRegister is a no-op method for API compatibility.
// Metrics are automatically registered via promauto when created in
// NewWorkerMetrics. The explicit call keeps the initialization intent
// visible at the call site.
func (m *WorkerMetrics) MustRegister() {
	// No-op: metrics are auto-registered via promauto
}

// RecordRun increments the run counter for the given status.
// Status should be "started", "success", or "failure".
func (m *WorkerMetrics) RecordRun(status string) {
	m.MaintenanceRunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes the duration of a full maintenance run,
// in seconds.
func (m *WorkerMetrics) RecordRunDuration(seconds float64) {
	m.MaintenanceRunDurationSeconds.Observe(seconds)
}

// RecordLastSuccess records the current time as the last fully
// successful maintenance run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.MaintenanceLastSuccessTimestamp.SetToCurrentTime()
}

package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// All metrics live on a private registry so multiple limiter instances
// and tests never collide on the global registerer. Expose the
// registry via Registry() and promhttp.HandlerFor.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// decisionsTotal counts limiter decisions.
	// Labels:
	//   - scope: "key", "ip", "burst", "block", "store"
	//   - status: "allowed" or "denied"
	//   - reason: tiered sub-reason for denials, "" for allowed
	decisionsTotal *prometheus.CounterVec

	// blocksTotal counts escalation blocks stamped, by scope.
	blocksTotal *prometheus.CounterVec

	// checkDuration tracks the duration of full limiter checks.
	// Buckets target sub-5ms in-memory checks and flag slow store
	// round-trips.
	checkDuration prometheus.Histogram

	// activeKeys tracks the current number of keys in the store.
	activeKeys prometheus.Gauge
}

// NewPrometheusMetrics creates a PrometheusMetrics with its own
// registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_rate_limit_decisions_total",
			Help: "Rate limit decisions by scope, status, and denial reason",
		},
		[]string{"scope", "status", "reason"},
	)

	blocksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_rate_limit_blocks_total",
			Help: "Escalation blocks stamped by scope",
		},
		[]string{"scope"},
	)

	checkDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guard_rate_limit_check_duration_seconds",
			Help:    "Duration of tiered rate limit checks",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	activeKeys := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guard_rate_limit_active_keys",
			Help: "Current number of keys tracked by the counter store",
		},
	)

	registry.MustRegister(decisionsTotal, blocksTotal, checkDuration, activeKeys)

	return &PrometheusMetrics{
		registry:       registry,
		decisionsTotal: decisionsTotal,
		blocksTotal:    blocksTotal,
		checkDuration:  checkDuration,
		activeKeys:     activeKeys,
	}
}

// Registry returns the private registry for mounting on a metrics
// endpoint.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAllowed records an allowed decision.
func (m *PrometheusMetrics) RecordAllowed(scope string) {
	m.decisionsTotal.WithLabelValues(scope, "allowed", "").Inc()
}

// RecordDenied records a denied decision with its tiered sub-reason.
func (m *PrometheusMetrics) RecordDenied(scope, reason string) {
	m.decisionsTotal.WithLabelValues(scope, "denied", reason).Inc()
}

// RecordBlock records an escalation block.
func (m *PrometheusMetrics) RecordBlock(scope string) {
	m.blocksTotal.WithLabelValues(scope).Inc()
}

// RecordCheckDuration records the duration of one limiter check.
func (m *PrometheusMetrics) RecordCheckDuration(duration time.Duration) {
	m.checkDuration.Observe(duration.Seconds())
}

// SetActiveKeys records the current key count.
func (m *PrometheusMetrics) SetActiveKeys(count int) {
	m.activeKeys.Set(float64(count))
}

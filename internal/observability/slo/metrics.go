// Package slo exposes the service level objective gauges for the API.
// Availability and error rate are fed in-process by the HTTP layer's
// periodic updater; the latency percentile gauges are fed externally
// from Prometheus recording rules over http_request_duration_seconds,
// since quantiles cannot be derived cheaply inside the process.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Targets. Alerting rules compare the gauges below against these.
const (
	// AvailabilitySLO is the target uptime percentage (99.9% allows
	// about 43 minutes of downtime per month).
	AvailabilitySLO = 99.9

	// LatencyP95SLO is the p95 latency target in seconds.
	LatencyP95SLO = 0.200

	// LatencyP99SLO is the p99 latency target in seconds.
	LatencyP99SLO = 0.500

	// ErrorRateSLO is the maximum acceptable 5xx ratio.
	ErrorRateSLO = 0.001
)

var (
	// SLOAvailability is (total - 5xx) / total over the last update
	// interval.
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_availability_ratio",
			Help: "Current availability ratio (0-1), target: 0.999",
		},
	)

	SLOLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p95_seconds",
			Help: "Current p95 latency in seconds, target: 0.200",
		},
	)

	SLOLatencyP99 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p99_seconds",
			Help: "Current p99 latency in seconds, target: 0.500",
		},
	)

	// SLOErrorRate is 5xx / total over the last update interval.
	SLOErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_error_rate_ratio",
			Help: "Current error rate ratio (0-1), target: 0.001",
		},
	)
)

// UpdateAvailability sets the availability gauge.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 sets the p95 gauge. Fed from
// histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m])).
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateLatencyP99 sets the p99 gauge. Fed from
// histogram_quantile(0.99, rate(http_request_duration_seconds_bucket[5m])).
func UpdateLatencyP99(seconds float64) {
	SLOLatencyP99.Set(seconds)
}

// UpdateErrorRate sets the error rate gauge.
func UpdateErrorRate(ratio float64) {
	SLOErrorRate.Set(ratio)
}

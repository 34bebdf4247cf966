package generator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LetterMetricsRecorder abstracts metrics recording so tests can
// inject a mock and providers share one implementation.
type LetterMetricsRecorder interface {
	// RecordGeneration records one generation attempt by provider and
	// outcome ("success" or "failure") with its duration.
	RecordGeneration(provider, outcome string, duration time.Duration)

	// RecordLetterLength records the length of a generated letter in
	// characters.
	RecordLetterLength(length int)
}

// PrometheusLetterMetrics implements LetterMetricsRecorder using
// Prometheus metrics.
type PrometheusLetterMetrics struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	length      prometheus.Histogram
}

var (
	prometheusLetterMetricsOnce     sync.Once
	prometheusLetterMetricsInstance *PrometheusLetterMetrics
)

// NewPrometheusLetterMetrics returns the process-wide metrics
// recorder. Registration happens once; subsequent calls return the
// same instance.
func NewPrometheusLetterMetrics() *PrometheusLetterMetrics {
	prometheusLetterMetricsOnce.Do(func() {
		prometheusLetterMetricsInstance = &PrometheusLetterMetrics{
			generations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "letter_generations_total",
					Help: "Total number of appeal letter generation attempts by provider and outcome",
				},
				[]string{"provider", "outcome"},
			),
			duration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "letter_generation_duration_seconds",
					Help:    "Duration of appeal letter generation calls",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			length: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "letter_length_chars",
					Help:    "Length of generated appeal letters in characters",
					Buckets: []float64{500, 1000, 2000, 4000, 8000},
				},
			),
		}
	})
	return prometheusLetterMetricsInstance
}

// RecordGeneration implements LetterMetricsRecorder.
func (m *PrometheusLetterMetrics) RecordGeneration(provider, outcome string, duration time.Duration) {
	m.generations.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordLetterLength implements LetterMetricsRecorder.
func (m *PrometheusLetterMetrics) RecordLetterLength(length int) {
	m.length.Observe(float64(length))
}

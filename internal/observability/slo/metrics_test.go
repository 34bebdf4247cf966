package slo

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestSLOTargets(t *testing.T) {
	// Targets are part of the alerting contract; a change here must be
	// deliberate and coordinated with the alert rules.
	if AvailabilitySLO != 99.9 {
		t.Errorf("AvailabilitySLO = %v, want 99.9", AvailabilitySLO)
	}
	if LatencyP95SLO != 0.200 {
		t.Errorf("LatencyP95SLO = %v, want 0.200", LatencyP95SLO)
	}
	if LatencyP99SLO != 0.500 {
		t.Errorf("LatencyP99SLO = %v, want 0.500", LatencyP99SLO)
	}
	if ErrorRateSLO != 0.001 {
		t.Errorf("ErrorRateSLO = %v, want 0.001", ErrorRateSLO)
	}
}

func TestUpdateGauges(t *testing.T) {
	tests := []struct {
		name   string
		update func(float64)
		gauge  prometheus.Gauge
		value  float64
	}{
		{name: "availability", update: UpdateAvailability, gauge: SLOAvailability, value: 0.9995},
		{name: "latency p95", update: UpdateLatencyP95, gauge: SLOLatencyP95, value: 0.183},
		{name: "latency p99", update: UpdateLatencyP99, gauge: SLOLatencyP99, value: 0.412},
		{name: "error rate", update: UpdateErrorRate, gauge: SLOErrorRate, value: 0.0004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.update(tt.value)
			if got := gaugeValue(t, tt.gauge); got != tt.value {
				t.Errorf("gauge = %f, want %f", got, tt.value)
			}

			// Gauges overwrite, not accumulate.
			tt.update(tt.value / 2)
			if got := gaugeValue(t, tt.gauge); got != tt.value/2 {
				t.Errorf("gauge after second set = %f, want %f", got, tt.value/2)
			}
		})
	}
}

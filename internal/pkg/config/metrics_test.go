package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// One shared instance: NewConfigMetrics registers with the default
// registry and a second registration of the same component panics.
var testMetrics = NewConfigMetrics("configtest")

func TestNewConfigMetrics(t *testing.T) {
	if testMetrics.LoadTimestamp == nil {
		t.Error("LoadTimestamp is nil")
	}
	if testMetrics.ValidationErrorsTotal == nil {
		t.Error("ValidationErrorsTotal is nil")
	}
	if testMetrics.FallbacksTotal == nil {
		t.Error("FallbacksTotal is nil")
	}
	if testMetrics.FallbackActive == nil {
		t.Error("FallbackActive is nil")
	}
}

func TestRecordValidationError(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule"))
	testMetrics.RecordValidationError("cron_schedule")
	after := testutil.ToFloat64(testMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule"))
	if after-before != 1 {
		t.Errorf("validation error counter delta = %f, want 1", after-before)
	}
}

func TestRecordFallback(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("timezone"))
	testMetrics.RecordFallback("timezone", "default")
	after := testutil.ToFloat64(testMetrics.FallbacksTotal.WithLabelValues("timezone"))
	if after-before != 1 {
		t.Errorf("fallback counter delta = %f, want 1", after-before)
	}
}

func TestSetFallbackActive(t *testing.T) {
	testMetrics.SetFallbackActive("", true)
	if got := testutil.ToFloat64(testMetrics.FallbackActive); got != 1 {
		t.Errorf("FallbackActive = %f, want 1", got)
	}

	testMetrics.SetFallbackActive("", false)
	if got := testutil.ToFloat64(testMetrics.FallbackActive); got != 0 {
		t.Errorf("FallbackActive = %f, want 0", got)
	}
}

func TestRecordLoadTimestamp(t *testing.T) {
	testMetrics.RecordLoadTimestamp()
	if got := testutil.ToFloat64(testMetrics.LoadTimestamp); got <= 0 {
		t.Errorf("LoadTimestamp = %f, want a positive unix time", got)
	}
}

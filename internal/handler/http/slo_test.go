package http

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"claim-navigator/internal/observability/slo"
)

func TestRecordSLORequest_CountsServerErrors(t *testing.T) {
	requestsBefore := sloRequestsTotal.Load()
	errorsBefore := sloServerErrors.Load()

	recordSLORequest(200)
	recordSLORequest(404)
	recordSLORequest(500)
	recordSLORequest(503)

	if got := sloRequestsTotal.Load() - requestsBefore; got != 4 {
		t.Errorf("requests delta = %d, want 4", got)
	}
	if got := sloServerErrors.Load() - errorsBefore; got != 2 {
		t.Errorf("server errors delta = %d, want 2", got)
	}
}

func TestStartSLOUpdater_UpdatesGauges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartSLOUpdater(ctx, slog.Default(), 10*time.Millisecond)

	// One failure in four requests: error rate 0.25, availability 0.75.
	recordSLORequest(200)
	recordSLORequest(200)
	recordSLORequest(200)
	recordSLORequest(500)

	deadline := time.After(2 * time.Second)
	for {
		if testutil.ToFloat64(slo.SLOErrorRate) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("slo gauges were not updated in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	errorRate := testutil.ToFloat64(slo.SLOErrorRate)
	availability := testutil.ToFloat64(slo.SLOAvailability)
	if errorRate <= 0 || errorRate > 1 {
		t.Errorf("error rate = %f, want within (0, 1]", errorRate)
	}
	if availability <= 0 || availability >= 1 {
		t.Errorf("availability = %f, want within (0, 1)", availability)
	}
}

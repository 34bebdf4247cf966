package http

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"claim-navigator/internal/observability/slo"
)

// In-process request and server error counts feeding the SLO gauges.
// Incremented by MetricsMiddleware on every completed request.
var (
	sloRequestsTotal atomic.Int64
	sloServerErrors  atomic.Int64
)

func recordSLORequest(status int) {
	sloRequestsTotal.Add(1)
	if status >= 500 {
		sloServerErrors.Add(1)
	}
}

// StartSLOUpdater periodically recomputes the availability and error
// rate gauges from requests completed since the previous tick. Ticks
// with no traffic leave the gauges at their last computed value. The
// latency percentile gauges are fed from Prometheus recording rules
// over the request duration histogram, not from this process.
func StartSLOUpdater(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("slo updater started", slog.Duration("interval", interval))

		var lastRequests, lastErrors int64
		for {
			select {
			case <-ctx.Done():
				logger.Info("slo updater stopped")
				return
			case <-ticker.C:
				requests := sloRequestsTotal.Load()
				errors := sloServerErrors.Load()
				deltaRequests := requests - lastRequests
				deltaErrors := errors - lastErrors
				lastRequests, lastErrors = requests, errors

				if deltaRequests == 0 {
					continue
				}

				errorRate := float64(deltaErrors) / float64(deltaRequests)
				slo.UpdateErrorRate(errorRate)
				slo.UpdateAvailability(1 - errorRate)
			}
		}
	}()
}

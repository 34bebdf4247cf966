package http

import (
	"context"
	"log/slog"
	"time"

	"claim-navigator/pkg/ratelimit"
)

// StartRateLimitCleanup starts a background loop that periodically
// removes expired windows from the rate limit counter store.
//
// This prevents memory growth from stale keys that are no longer
// needed for rate limiting decisions. Active block entries survive
// cleanup so blocked clients stay blocked.
//
// The loop stops gracefully when the context is cancelled (e.g.,
// during server shutdown).
//
// Parameters:
//   - ctx: Context for cancellation (typically server's context)
//   - store: The counter store to clean up
//   - interval: How often to run cleanup (e.g., 5 minutes)
//   - maxAge: How long a window is retained after it started
func StartRateLimitCleanup(
	ctx context.Context,
	store ratelimit.CounterStore,
	interval time.Duration,
	maxAge time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.Duration("interval", interval),
		slog.Duration("max_age", maxAge))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped")
			return

		case <-ticker.C:
			cutoff := time.Now().Add(-maxAge)
			if err := store.Cleanup(ctx, cutoff); err != nil {
				slog.Error("rate limit cleanup failed",
					slog.String("error", err.Error()))
				continue
			}

			if count, err := store.KeyCount(ctx); err == nil {
				slog.Debug("rate limit cleanup completed",
					slog.Int("active_keys", count))
			} else {
				slog.Debug("rate limit cleanup completed")
			}
		}
	}
}

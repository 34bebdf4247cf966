// Package ratelimit provides framework-agnostic, tiered fixed-window
// rate limiting.
//
// The package is built around pluggable counter stores so a
// single-process deployment (in-memory map) and a multi-instance
// deployment (shared Postgres or other external store) run the same
// limiter logic. It is designed to be reusable across different
// contexts (HTTP middleware, gRPC interceptors, CLI tools).
package ratelimit

import (
	"context"
	"time"
)

// CounterStore defines the interface for persisting fixed-window
// counters and escalation blocks.
//
// Implementations can use in-memory storage, Postgres, Redis, or other
// backends. All methods must be safe for concurrent use.
//
// The store is shared across all server instances; correctness relies
// on the store's own atomic upsert/increment primitives where
// available. In-memory implementations only protect a single process.
type CounterStore interface {
	// Increment records one request against the fixed window that
	// contains now for the given key, creating the window if it does
	// not exist and replacing it if the stored window has expired.
	//
	// Window boundaries are aligned to now.Truncate(window) so all
	// instances agree on bucket edges.
	//
	// Returns the window state after the increment.
	Increment(ctx context.Context, key string, now time.Time, window time.Duration) (*Window, error)

	// Block stamps an escalation block on the key. If a block already
	// exists, the later expiry wins; a new block never shortens an
	// existing one.
	Block(ctx context.Context, key string, until time.Time) error

	// BlockedUntil returns the block expiry for the key, or the zero
	// time if the key is not blocked.
	BlockedUntil(ctx context.Context, key string) (time.Time, error)

	// Cleanup removes windows that started before the cutoff and
	// blocks that have already expired.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount returns the number of active keys currently tracked.
	// Used for monitoring memory usage.
	KeyCount(ctx context.Context) (int, error)
}

// Metrics defines the interface for recording rate limiting metrics.
//
// Implementations can use Prometheus or custom metrics systems. A
// NoOpMetrics implementation is provided for tests and contexts where
// observability is not wired.
type Metrics interface {
	// RecordAllowed records a check that allowed the request.
	RecordAllowed(scope string)

	// RecordDenied records a check that denied the request.
	// reason is the tiered sub-reason ("key", "ip", "burst", "block",
	// "store_error") used for internal observability only.
	RecordDenied(scope, reason string)

	// RecordBlock records that an escalation block was stamped.
	RecordBlock(scope string)

	// RecordCheckDuration records the duration of a full limiter check.
	RecordCheckDuration(duration time.Duration)

	// SetActiveKeys records the current number of keys in the store.
	SetActiveKeys(count int)
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation backed by the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

package ratelimit

import "time"

// Window represents the counting state for one identity within one
// fixed time window.
//
// A window is only valid while now < WindowStart + duration; once
// expired it is superseded by a new window, never reused. Count is
// monotonically non-negative within a window's lifetime.
type Window struct {
	// Key is the identity the window counts for. Keys are opaque to
	// the limiter; callers compose them from API keys, IPs, or user
	// ids.
	Key string

	// WindowStart is the bucket boundary, aligned to
	// now.Truncate(duration).
	WindowStart time.Time

	// Count is the number of requests recorded in this window.
	Count int

	// BlockedUntil, when set and in the future, denies all requests
	// for this key regardless of Count. The zero value means no block.
	BlockedUntil time.Time
}

// Expired reports whether the window has passed its natural expiry.
func (w *Window) Expired(now time.Time, duration time.Duration) bool {
	return !now.Before(w.WindowStart.Add(duration))
}

// ResetAt returns the time at which the window naturally expires.
func (w *Window) ResetAt(duration time.Duration) time.Time {
	return w.WindowStart.Add(duration)
}

// Blocked reports whether an escalation block is active at now.
func (w *Window) Blocked(now time.Time) bool {
	return !w.BlockedUntil.IsZero() && w.BlockedUntil.After(now)
}

// WindowStartFor returns the bucket boundary containing now for the
// given window duration. All limiter instances use this so bucket
// edges agree across processes.
func WindowStartFor(now time.Time, duration time.Duration) time.Time {
	if duration <= 0 {
		return now
	}
	return now.Truncate(duration)
}

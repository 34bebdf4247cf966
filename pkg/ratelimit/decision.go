package ratelimit

import (
	"fmt"
	"time"
)

// Scope identifies which tier of the limiter produced a decision.
type Scope string

const (
	// ScopeKey is the per-identity-key tier (default: 1 minute window).
	ScopeKey Scope = "key"
	// ScopeIP is the per-client-IP tier (default: 1 minute window,
	// looser cap).
	ScopeIP Scope = "ip"
	// ScopeBurst is the short burst tier (default: 50 requests per 10
	// seconds).
	ScopeBurst Scope = "burst"
	// ScopeBlock marks a denial caused by an existing escalation
	// block. The block check runs first and short-circuits everything.
	ScopeBlock Scope = "block"
	// ScopeStore marks a fail-closed denial caused by a counter store
	// failure.
	ScopeStore Scope = "store"
)

// Decision represents the result of a rate limit check.
//
// The tiered sub-reason (Scope) is used only for internal logging and
// metrics; callers collapse it to a single public message.
type Decision struct {
	// Key is the identifier the denied (or allowed) tier counted on.
	Key string

	// Allowed indicates whether the request should be permitted.
	Allowed bool

	// Limit is the cap of the tier that produced this decision.
	Limit int

	// Remaining is the number of requests left in the current window.
	// Always 0 when Allowed is false.
	Remaining int

	// ResetAt is when the caller may retry: the natural window expiry,
	// or the escalated block expiry when a block was stamped.
	ResetAt time.Time

	// RetryAfter is ResetAt minus the check time, floored at zero.
	RetryAfter time.Duration

	// Scope identifies the tier that produced the decision.
	Scope Scope
}

// IsDenied reports whether the request was denied.
func (d *Decision) IsDenied() bool {
	return !d.Allowed
}

// ResetAtUnix returns the reset time as a Unix timestamp, for
// X-RateLimit-Reset style headers.
func (d *Decision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds, floored
// at zero, for Retry-After style headers.
func (d *Decision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// String returns a human-readable representation of the decision.
func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("Decision{Allowed, Key: %s, Scope: %s, Remaining: %d/%d}",
			d.Key, d.Scope, d.Remaining, d.Limit)
	}
	return fmt.Sprintf("Decision{Denied, Key: %s, Scope: %s, RetryAfter: %s}",
		d.Key, d.Scope, d.RetryAfter)
}

// newAllowed builds an allowed decision for the given tier.
func newAllowed(key string, scope Scope, limit, remaining int, resetAt, now time.Time) *Decision {
	retryAfter := resetAt.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Decision{
		Key:        key,
		Allowed:    true,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
		Scope:      scope,
	}
}

// newDenied builds a denied decision. Remaining is always zero and
// ResetAt is guaranteed to be in the future relative to now.
func newDenied(key string, scope Scope, limit int, resetAt, now time.Time) *Decision {
	retryAfter := resetAt.Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Decision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
		Scope:      scope,
	}
}

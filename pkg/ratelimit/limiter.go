package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrStoreUnavailable is returned when the counter store cannot be
// reached or times out. The limiter fails closed on this error:
// silently disabling rate limiting is a larger risk than rejecting
// legitimate traffic.
var ErrStoreUnavailable = errors.New("rate limit counter store unavailable")

// Key prefixes keep the three tiers from colliding in a shared store.
const (
	keyPrefix   = "key:"
	ipPrefix    = "ip:"
	burstPrefix = "burst:"
)

// AnonymousIdentity is the identity used when a caller cannot be
// resolved. Anonymous traffic shares one per-key bucket and is
// therefore throttled aggressively by design of the caller's limits.
const AnonymousIdentity = "anonymous"

// TieredLimiter bounds request frequency per identity across three
// tiers: a per-identity-key window, a per-IP window with a looser cap,
// and a short burst window with a tight cap.
//
// Checks run in fixed order: existing block first (cheapest,
// short-circuits everything), then per-key, then per-IP, then burst.
// The first violation found determines the denial; remaining checks
// are skipped. Crossing the per-key or per-IP cap stamps a temporary
// block (default 5 minutes); crossing the burst cap stamps a shorter
// block (default 1 minute).
//
// Failure semantics: if the counter store is unreachable the limiter
// denies the request (fail closed) and returns ErrStoreUnavailable.
type TieredLimiter struct {
	config  Config
	store   CounterStore
	clock   Clock
	metrics Metrics
}

// NewTieredLimiter creates a limiter over the given store.
//
// Invalid config fields are replaced with defaults. clock and metrics
// may be nil, in which case the system clock and no-op metrics are
// used.
func NewTieredLimiter(config Config, store CounterStore, clock Clock, metrics Metrics) *TieredLimiter {
	config.ApplyDefaults()
	if clock == nil {
		clock = &SystemClock{}
	}
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}
	return &TieredLimiter{
		config:  config,
		store:   store,
		clock:   clock,
		metrics: metrics,
	}
}

// Check runs the full tiered check for one request using the
// configured per-key window and cap.
//
// identity may be empty; it is treated as AnonymousIdentity. ip may be
// empty, in which case the per-IP tier is skipped.
func (l *TieredLimiter) Check(ctx context.Context, identity, ip string) (*Decision, error) {
	return l.CheckAndRecord(ctx, identity, ip, l.config.KeyWindow, l.config.KeyLimit)
}

// CheckAndRecord runs the tiered check with an explicit per-key window
// and cap, recording the request against every tier it reaches.
//
// Guarantees: when the returned decision is denied, Remaining is 0 and
// ResetAt is in the future, pointing at either the natural window
// expiry or the escalated block expiry. The returned error is non-nil
// only for store failures (fail-closed denials).
func (l *TieredLimiter) CheckAndRecord(ctx context.Context, identity, ip string, window time.Duration, maxRequests int) (*Decision, error) {
	if identity == "" {
		identity = AnonymousIdentity
	}
	now := l.clock.Now()

	if !l.config.Enabled {
		return newAllowed(keyPrefix+identity, ScopeKey, maxRequests, maxRequests, now.Add(window), now), nil
	}
	if window <= 0 {
		window = l.config.KeyWindow
	}
	if maxRequests <= 0 {
		maxRequests = l.config.KeyLimit
	}

	start := time.Now()
	defer func() {
		l.metrics.RecordCheckDuration(time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, l.config.StoreTimeout)
	defer cancel()

	identityKey := keyPrefix + identity

	// Stage 1: existing block. An active block denies without touching
	// any counter, so a blocked caller cannot extend its own window
	// state by retrying.
	if d, err := l.checkBlocks(ctx, identityKey, ip, now); d != nil || err != nil {
		return d, err
	}

	// Stage 2: per-identity-key window.
	d, keyWindow, err := l.checkTier(ctx, identityKey, ScopeKey, now, window, maxRequests, l.config.BlockDuration)
	if d != nil || err != nil {
		return d, err
	}

	// Stage 3: per-IP window.
	if ip != "" {
		d, _, err := l.checkTier(ctx, ipPrefix+ip, ScopeIP, now, l.config.IPWindow, l.config.IPLimit, l.config.BlockDuration)
		if d != nil || err != nil {
			return d, err
		}
	}

	// Stage 4: burst window. Violations stamp the shorter block on the
	// identity key so the escalation outlives the burst bucket itself.
	if d, err := l.checkBurst(ctx, identityKey, identity, now); d != nil || err != nil {
		return d, err
	}

	remaining := maxRequests - keyWindow.Count
	if remaining < 0 {
		remaining = 0
	}
	l.metrics.RecordAllowed(string(ScopeKey))
	return newAllowed(identityKey, ScopeKey, maxRequests, remaining, keyWindow.ResetAt(window), now), nil
}

// checkBlocks denies if either the identity key or the IP carries an
// active escalation block.
func (l *TieredLimiter) checkBlocks(ctx context.Context, identityKey, ip string, now time.Time) (*Decision, error) {
	blockKeys := []struct {
		key   string
		scope Scope
	}{
		{identityKey, ScopeKey},
	}
	if ip != "" {
		blockKeys = append(blockKeys, struct {
			key   string
			scope Scope
		}{ipPrefix + ip, ScopeIP})
	}

	for _, bk := range blockKeys {
		until, err := l.store.BlockedUntil(ctx, bk.key)
		if err != nil {
			return l.failClosed(bk.key, now, err)
		}
		if until.After(now) {
			l.metrics.RecordDenied(string(ScopeBlock), string(bk.scope))
			slog.Debug("rate limit: request denied by existing block",
				slog.String("key", bk.key),
				slog.Time("blocked_until", until))
			return newDenied(bk.key, ScopeBlock, 0, until, now), nil
		}
	}
	return nil, nil
}

// checkTier increments one window and escalates to a block when the
// cap is crossed. Returns a nil decision when the tier allows the
// request; the window is returned so the caller can compute Remaining.
func (l *TieredLimiter) checkTier(ctx context.Context, key string, scope Scope, now time.Time, window time.Duration, limit int, blockFor time.Duration) (*Decision, *Window, error) {
	w, err := l.store.Increment(ctx, key, now, window)
	if err != nil {
		d, ferr := l.failClosed(key, now, err)
		return d, nil, ferr
	}
	if w.Count <= limit {
		return nil, w, nil
	}

	until := now.Add(blockFor)
	if err := l.store.Block(ctx, key, until); err != nil {
		// The request is already over the cap; deny even if the block
		// could not be stamped.
		slog.Warn("rate limit: failed to stamp escalation block",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	l.metrics.RecordBlock(string(scope))
	l.metrics.RecordDenied(string(scope), string(scope))
	slog.Warn("rate limit exceeded, block stamped",
		slog.String("key", key),
		slog.String("scope", string(scope)),
		slog.Int("count", w.Count),
		slog.Int("limit", limit),
		slog.Time("blocked_until", until))
	return newDenied(key, scope, limit, until, now), nil, nil
}

// checkBurst increments the burst window and, on violation, stamps the
// shorter burst block on the identity key.
func (l *TieredLimiter) checkBurst(ctx context.Context, identityKey, identity string, now time.Time) (*Decision, error) {
	w, err := l.store.Increment(ctx, burstPrefix+identity, now, l.config.BurstWindow)
	if err != nil {
		return l.failClosed(burstPrefix+identity, now, err)
	}
	if w.Count <= l.config.BurstLimit {
		return nil, nil
	}

	until := now.Add(l.config.BurstBlockDuration)
	if err := l.store.Block(ctx, identityKey, until); err != nil {
		slog.Warn("rate limit: failed to stamp burst block",
			slog.String("key", identityKey),
			slog.String("error", err.Error()))
	}
	l.metrics.RecordBlock(string(ScopeBurst))
	l.metrics.RecordDenied(string(ScopeBurst), string(ScopeBurst))
	slog.Warn("burst limit exceeded, block stamped",
		slog.String("key", identityKey),
		slog.Int("count", w.Count),
		slog.Int("limit", l.config.BurstLimit),
		slog.Time("blocked_until", until))
	return newDenied(identityKey, ScopeBurst, l.config.BurstLimit, until, now), nil
}

// failClosed converts a store failure into a denial.
func (l *TieredLimiter) failClosed(key string, now time.Time, err error) (*Decision, error) {
	l.metrics.RecordDenied(string(ScopeStore), "store_error")
	slog.Error("rate limit: counter store failure, denying request (fail-closed)",
		slog.String("key", key),
		slog.String("error", err.Error()))
	d := newDenied(key, ScopeStore, 0, now.Add(l.config.KeyWindow), now)
	return d, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Config returns a copy of the limiter's effective configuration.
func (l *TieredLimiter) Config() Config {
	return l.config
}

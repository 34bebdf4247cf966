package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"claim-navigator/internal/resilience/circuitbreaker"
	"claim-navigator/pkg/ratelimit"
)

// CounterStore is a Postgres-backed ratelimit.CounterStore. Counters
// live in the rate_windows table so limit state is shared across
// instances and survives restarts. Queries run through a circuit
// breaker: when the database is down the guard fails closed immediately
// instead of stacking timeouts on every request.
type CounterStore struct{ cb *circuitbreaker.DBCircuitBreaker }

func NewCounterStore(db *sql.DB) ratelimit.CounterStore {
	return &CounterStore{cb: circuitbreaker.NewDBCircuitBreaker(db)}
}

func (s *CounterStore) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (*ratelimit.Window, error) {
	// Single round-trip upsert. A row whose bucket matches the current
	// one is incremented; an expired bucket is replaced with count 1.
	// The block stamp is left untouched either way so escalation blocks
	// outlive window turnover.
	const query = `
INSERT INTO rate_windows (key, window_start, count, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (key) DO UPDATE SET
    count = CASE WHEN rate_windows.window_start = EXCLUDED.window_start
                 THEN rate_windows.count + 1
                 ELSE 1 END,
    window_start = EXCLUDED.window_start,
    updated_at   = now()
RETURNING window_start, count, blocked_until`
	bucket := ratelimit.WindowStartFor(now, window)

	var w ratelimit.Window
	var blockedUntil sql.NullTime
	err := s.cb.QueryRowScanContext(ctx, query, []interface{}{key, bucket},
		&w.WindowStart, &w.Count, &blockedUntil,
	)
	if err != nil {
		return nil, fmt.Errorf("Increment: %w", err)
	}
	w.Key = key
	if blockedUntil.Valid {
		w.BlockedUntil = blockedUntil.Time
	}
	return &w, nil
}

func (s *CounterStore) Block(ctx context.Context, key string, until time.Time) error {
	// GREATEST keeps the longest outstanding block; a later, shorter
	// violation never shortens an existing block.
	const query = `
INSERT INTO rate_windows (key, window_start, count, blocked_until, updated_at)
VALUES ($1, now(), 0, $2, now())
ON CONFLICT (key) DO UPDATE SET
    blocked_until = GREATEST(COALESCE(rate_windows.blocked_until, 'epoch'::timestamptz), EXCLUDED.blocked_until),
    updated_at    = now()`
	if _, err := s.cb.ExecContext(ctx, query, key, until); err != nil {
		return fmt.Errorf("Block: %w", err)
	}
	return nil
}

func (s *CounterStore) BlockedUntil(ctx context.Context, key string) (time.Time, error) {
	const query = `SELECT blocked_until FROM rate_windows WHERE key = $1 LIMIT 1`
	var blockedUntil sql.NullTime
	err := s.cb.QueryRowScanContext(ctx, query, []interface{}{key}, &blockedUntil)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("BlockedUntil: %w", err)
	}
	if !blockedUntil.Valid {
		return time.Time{}, nil
	}
	return blockedUntil.Time, nil
}

func (s *CounterStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	// Keep rows whose escalation block is still in the future even if
	// their counting window has long expired.
	const query = `
DELETE FROM rate_windows
WHERE window_start < $1
  AND (blocked_until IS NULL OR blocked_until < $1)`
	if _, err := s.cb.ExecContext(ctx, query, cutoff); err != nil {
		return fmt.Errorf("Cleanup: %w", err)
	}
	return nil
}

func (s *CounterStore) KeyCount(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM rate_windows`
	var count int
	if err := s.cb.QueryRowScanContext(ctx, query, nil, &count); err != nil {
		return 0, fmt.Errorf("KeyCount: %w", err)
	}
	return count, nil
}

// Package quota tracks per-user monthly feature usage and enforces
// free-tier limits.
//
// Usage is recorded per (userID, feature, monthKey) where monthKey is
// the UTC calendar month. Recording is best-effort: a failed write is
// logged and swallowed so usage tracking never aborts the action it
// measures. Reads propagate errors so callers can fail closed.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/repository"
)

// Clock abstracts time for testing month boundaries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AccessResult is the outcome of a feature access check.
type AccessResult struct {
	// Allowed reports whether the caller may use the feature.
	Allowed bool

	// Reason is a human-readable denial reason, empty when allowed.
	Reason string

	// UsageCount is the caller's recorded usage this month. Only
	// populated on quota denials; subscription bypass skips the lookup.
	UsageCount int

	// Limit is the free-tier limit the check ran against.
	Limit int
}

// Tracker enforces monthly quotas against a QuotaRepository.
type Tracker struct {
	repo  repository.QuotaRepository
	clock Clock
}

// NewTracker creates a Tracker. A nil clock falls back to the system
// clock.
func NewTracker(repo repository.QuotaRepository, clock Clock) *Tracker {
	if clock == nil {
		clock = systemClock{}
	}
	return &Tracker{repo: repo, clock: clock}
}

// CheckMonthlyQuota reports whether the user's usage of the feature
// this month is strictly below freeLimit. It returns the current usage
// count alongside the verdict.
//
// Errors from the repository propagate so the caller can fail closed.
func (t *Tracker) CheckMonthlyQuota(ctx context.Context, userID, feature string, freeLimit int) (bool, int, error) {
	if userID == "" {
		return false, 0, fmt.Errorf("check monthly quota: %w", entity.ErrInvalidInput)
	}
	if err := entity.ValidateFeature(feature); err != nil {
		return false, 0, fmt.Errorf("check monthly quota: %w", err)
	}

	monthKey := entity.MonthKeyFor(t.clock.Now())
	record, err := t.repo.GetUsage(ctx, userID, feature, monthKey)
	if err != nil {
		return false, 0, fmt.Errorf("get usage for %s/%s: %w", feature, monthKey, err)
	}

	count := 0
	if record != nil {
		count = record.UsageCount
	}
	return count < freeLimit, count, nil
}

// GetUsageCount returns the user's recorded usage of the feature in
// the month containing monthStart. A zero monthStart means the current
// month.
func (t *Tracker) GetUsageCount(ctx context.Context, userID, feature string, monthStart time.Time) (int, error) {
	if monthStart.IsZero() {
		monthStart = t.clock.Now()
	}
	monthKey := entity.MonthKeyFor(monthStart)
	record, err := t.repo.GetUsage(ctx, userID, feature, monthKey)
	if err != nil {
		return 0, fmt.Errorf("get usage for %s/%s: %w", feature, monthKey, err)
	}
	if record == nil {
		return 0, nil
	}
	return record.UsageCount, nil
}

// RecordUsage adds amount to the user's usage of the feature for the
// current month, creating the record on first use. An amount below 1
// is treated as 1.
//
// Recording is best-effort: failures are logged and swallowed so the
// primary action is never aborted by its own bookkeeping.
func (t *Tracker) RecordUsage(ctx context.Context, userID, feature string, amount int) {
	if amount < 1 {
		amount = 1
	}
	monthKey := entity.MonthKeyFor(t.clock.Now())

	if _, err := t.repo.IncrementUsage(ctx, userID, feature, monthKey, amount); err != nil {
		slog.Warn("failed to record feature usage",
			slog.String("user_id", userID),
			slog.String("feature", feature),
			slog.String("month_key", monthKey),
			slog.Int("amount", amount),
			slog.String("error", err.Error()))
	}
}

// CheckFeatureAccess decides whether the user may use the feature.
// An active subscription short-circuits to allowed regardless of
// usage history; otherwise the monthly quota applies.
func (t *Tracker) CheckFeatureAccess(ctx context.Context, userID, feature string, hasActiveSubscription bool, freeLimit int) (*AccessResult, error) {
	if hasActiveSubscription {
		return &AccessResult{Allowed: true, Limit: freeLimit}, nil
	}

	allowed, count, err := t.CheckMonthlyQuota(ctx, userID, feature, freeLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &AccessResult{
			Allowed:    false,
			Reason:     fmt.Sprintf("Monthly limit reached: you have used %d of %d free uses this month", count, freeLimit),
			UsageCount: count,
			Limit:      freeLimit,
		}, nil
	}
	return &AccessResult{Allowed: true, UsageCount: count, Limit: freeLimit}, nil
}

// MonthlySummary returns the user's usage records for the current
// month, one per feature used.
func (t *Tracker) MonthlySummary(ctx context.Context, userID string) ([]*entity.UsageRecord, error) {
	monthKey := entity.MonthKeyFor(t.clock.Now())
	records, err := t.repo.ListUsageForMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list usage for %s: %w", monthKey, err)
	}
	return records, nil
}

// Package billing provides BillingProvider implementations for the
// entitlement service: a database-backed provider fed by webhook
// ingestion, and a static provider for development.
package billing

import (
	"context"
	"fmt"
	"time"

	"claim-navigator/internal/repository"
)

// Clock abstracts time for period-end checks in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// RepositoryProvider answers subscription checks from the local
// subscriptions table, which webhook ingestion keeps in sync with the
// billing system of record.
type RepositoryProvider struct {
	repo  repository.SubscriptionRepository
	clock Clock
}

// NewRepositoryProvider creates a RepositoryProvider. A nil clock
// falls back to the system clock.
func NewRepositoryProvider(repo repository.SubscriptionRepository, clock Clock) *RepositoryProvider {
	if clock == nil {
		clock = systemClock{}
	}
	return &RepositoryProvider{repo: repo, clock: clock}
}

func (p *RepositoryProvider) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	sub, err := p.repo.GetByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("subscription lookup: %w", err)
	}
	return sub.IsActive(p.clock.Now()), nil
}

func (p *RepositoryProvider) Name() string { return "repository" }

// StaticProvider grants subscriptions to a fixed set of user IDs.
// Intended for local development and tests, never production.
type StaticProvider struct {
	subscribed map[string]bool
}

// NewStaticProvider creates a StaticProvider from a list of subscribed
// user IDs.
func NewStaticProvider(userIDs []string) *StaticProvider {
	subscribed := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		subscribed[id] = true
	}
	return &StaticProvider{subscribed: subscribed}
}

func (p *StaticProvider) HasActiveSubscription(_ context.Context, userID string) (bool, error) {
	return p.subscribed[userID], nil
}

func (p *StaticProvider) Name() string { return "static" }

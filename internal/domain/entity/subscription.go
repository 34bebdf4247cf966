package entity

import "time"

// Subscription statuses mirror the billing provider's lifecycle.
// Only active and trialing subscriptions grant unlimited feature access.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription represents a user's paid subscription.
type Subscription struct {
	ID               string
	UserID           string
	Plan             string
	Status           string
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the subscription grants access at the given
// time. A canceled subscription stays active until its paid period ends.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return s.CurrentPeriodEnd.After(now)
	default:
		return false
	}
}

// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as UsageRecord and Subscription, along
// with their validation rules and domain-specific errors.
package entity

import "time"

// UsageRecord represents one user's usage of one feature within one
// calendar month. Usage is keyed by (UserID, Feature, MonthKey) and
// the count only ever grows within a month.
type UsageRecord struct {
	ID         int64
	UserID     string
	Feature    string
	MonthKey   string
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate validates the UsageRecord entity fields.
func (r *UsageRecord) Validate() error {
	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if err := ValidateFeature(r.Feature); err != nil {
		return err
	}
	if err := ValidateMonthKey(r.MonthKey); err != nil {
		return err
	}
	if r.UsageCount < 0 {
		return &ValidationError{Field: "usage_count", Message: "usage count cannot be negative"}
	}
	return nil
}

package entity

import (
	"fmt"
	"time"
)

// maxFeatureLength bounds feature identifiers to prevent abusive keys
// from bloating the usage table.
const maxFeatureLength = 64

// monthKeyLayout is the canonical month key format ("2024-01").
const monthKeyLayout = "2006-01"

// ValidateFeature validates a feature identifier.
// Feature identifiers are lowercase snake_case names such as
// "appeal_letter". Returns a ValidationError if invalid or empty.
func ValidateFeature(feature string) error {
	if feature == "" {
		return &ValidationError{Field: "feature", Message: "feature is required"}
	}
	if len(feature) > maxFeatureLength {
		return &ValidationError{
			Field:   "feature",
			Message: fmt.Sprintf("feature must not exceed %d characters", maxFeatureLength),
		}
	}
	for _, r := range feature {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return &ValidationError{
				Field:   "feature",
				Message: "feature must contain only lowercase letters, digits, and underscores",
			}
		}
	}
	return nil
}

// ValidateMonthKey validates a month key in "YYYY-MM" form.
// Month keys are always derived from UTC so every instance agrees on
// month boundaries regardless of server timezone.
func ValidateMonthKey(monthKey string) error {
	if monthKey == "" {
		return &ValidationError{Field: "month_key", Message: "month key is required"}
	}
	if _, err := time.Parse(monthKeyLayout, monthKey); err != nil {
		return &ValidationError{
			Field:   "month_key",
			Message: fmt.Sprintf("month key must be in YYYY-MM format, got %q", monthKey),
		}
	}
	return nil
}

// MonthKeyFor returns the canonical month key for a point in time.
// The time is converted to UTC before formatting, so a request at
// 2024-01-31T23:30:00-05:00 lands in "2024-02".
func MonthKeyFor(t time.Time) string {
	return t.UTC().Format(monthKeyLayout)
}

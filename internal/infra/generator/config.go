package generator

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	defaultWordLimit = 500
	minWordLimit     = 100
	maxWordLimit     = 2000
)

// Config holds the provider-independent generation parameters.
type Config struct {
	// WordLimit is the maximum number of words requested for a
	// letter. Loaded from LETTER_WORD_LIMIT. Valid range: 100-2000.
	WordLimit int

	// Model is the provider model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single generation call.
	Timeout time.Duration
}

// Validate checks the configuration fields.
func (c *Config) Validate() error {
	if err := ValidateWordLimit(c.WordLimit); err != nil {
		return fmt.Errorf("invalid word limit: %w", err)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// ValidateWordLimit validates that the word limit is within the valid
// range (100-2000).
func ValidateWordLimit(limit int) error {
	if limit < minWordLimit {
		return fmt.Errorf("word limit %d is below minimum %d", limit, minWordLimit)
	}
	if limit > maxWordLimit {
		return fmt.Errorf("word limit %d exceeds maximum %d", limit, maxWordLimit)
	}
	return nil
}

// loadWordLimit reads LETTER_WORD_LIMIT with warn-and-default
// semantics.
func loadWordLimit() int {
	envLimit := os.Getenv("LETTER_WORD_LIMIT")
	if envLimit == "" {
		return defaultWordLimit
	}

	parsed, err := strconv.Atoi(envLimit)
	if err != nil {
		slog.Warn("Invalid LETTER_WORD_LIMIT format, using default",
			slog.String("value", envLimit),
			slog.Int("default", defaultWordLimit),
			slog.String("error", err.Error()))
		return defaultWordLimit
	}
	if err := ValidateWordLimit(parsed); err != nil {
		slog.Warn("LETTER_WORD_LIMIT out of valid range, using default",
			slog.Int("value", parsed),
			slog.Int("min", minWordLimit),
			slog.Int("max", maxWordLimit),
			slog.Int("default", defaultWordLimit))
		return defaultWordLimit
	}
	return parsed
}

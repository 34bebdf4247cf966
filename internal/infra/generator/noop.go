package generator

import (
	"context"
	"fmt"
)

// Static is a letter generator that produces a fixed template without
// calling any external API. Useful for development and tests.
type Static struct{}

// NewStatic creates a Static generator.
func NewStatic() *Static {
	return &Static{}
}

// Generate returns a template letter filled with the request fields.
func (s *Static) Generate(_ context.Context, req LetterRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid letter request: %w", err)
	}
	return fmt.Sprintf(
		"Dear %s,\n\nI am writing to formally appeal the denial of claim %s. The stated reason, %q, does not reflect the circumstances of my claim, and I request a full review and a written response.\n\nSincerely,\n%s",
		req.InsurerName, req.ClaimNumber, req.DenialReason, req.PolicyholderName,
	), nil
}

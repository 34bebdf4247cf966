// Package generator provides AI-powered appeal letter generation.
// It includes adapters for Claude (Anthropic) and OpenAI APIs with
// circuit breaker and retry reliability patterns, plus structured
// logging and Prometheus metrics. Letter generation is the primary
// action the monthly feature quota measures.
package generator

import (
	"context"
	"fmt"
	"strings"
)

// LetterRequest carries the claim details an appeal letter is drafted
// from.
type LetterRequest struct {
	// ClaimNumber is the insurer's reference for the denied claim.
	ClaimNumber string

	// InsurerName is the company the appeal is addressed to.
	InsurerName string

	// PolicyholderName is the claimant's full name.
	PolicyholderName string

	// DenialReason is the insurer's stated reason for denial.
	DenialReason string

	// DesiredOutcome describes what the claimant is asking for.
	// Optional.
	DesiredOutcome string
}

// Validate checks that the request carries the required fields.
func (r *LetterRequest) Validate() error {
	if strings.TrimSpace(r.ClaimNumber) == "" {
		return fmt.Errorf("claim number is required")
	}
	if strings.TrimSpace(r.InsurerName) == "" {
		return fmt.Errorf("insurer name is required")
	}
	if strings.TrimSpace(r.PolicyholderName) == "" {
		return fmt.Errorf("policyholder name is required")
	}
	if strings.TrimSpace(r.DenialReason) == "" {
		return fmt.Errorf("denial reason is required")
	}
	return nil
}

// LetterGenerator drafts an appeal letter from claim details.
type LetterGenerator interface {
	Generate(ctx context.Context, req LetterRequest) (string, error)
}

// maxFieldChars bounds each free-text field before it reaches the
// prompt, keeping requests within provider token limits.
const maxFieldChars = 4000

// buildPrompt constructs the generation prompt shared by all
// providers.
func buildPrompt(req LetterRequest, wordLimit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a professional insurance claim appeal letter of at most %d words.\n\n", wordLimit)
	fmt.Fprintf(&b, "Claim number: %s\n", truncateField(req.ClaimNumber))
	fmt.Fprintf(&b, "Insurer: %s\n", truncateField(req.InsurerName))
	fmt.Fprintf(&b, "Policyholder: %s\n", truncateField(req.PolicyholderName))
	fmt.Fprintf(&b, "Stated denial reason: %s\n", truncateField(req.DenialReason))
	if req.DesiredOutcome != "" {
		fmt.Fprintf(&b, "Desired outcome: %s\n", truncateField(req.DesiredOutcome))
	}
	b.WriteString("\nThe letter should be firm but courteous, cite the claim number, address the denial reason directly, and request a written response. Output only the letter body.")
	return b.String()
}

func truncateField(s string) string {
	if len(s) <= maxFieldChars {
		return s
	}
	return s[:maxFieldChars] + "..."
}

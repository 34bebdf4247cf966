// Package document exposes the guarded claim-document operations: the
// appeal letter generator (the metered feature) and the caller's
// monthly usage summary.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"claim-navigator/internal/handler/http/auth"
	"claim-navigator/internal/handler/http/requestid"
	"claim-navigator/internal/handler/http/respond"
	"claim-navigator/internal/infra/generator"
)

// FeatureAppealLetter is the quota key metering letter generation.
const FeatureAppealLetter = "appeal_letter"

// FreeLetterLimit is the monthly free-tier cap for letter generation.
const FreeLetterLimit = 2

// UsageRecorder records one use of a metered feature. Recording is
// best-effort and must never fail the request it measures.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, userID, feature string, amount int)
}

// LetterHandler generates an appeal letter for the authenticated
// caller and records the feature use on success.
type LetterHandler struct {
	Generator generator.LetterGenerator
	Usage     UsageRecorder
}

type letterRequest struct {
	ClaimNumber      string `json:"claimNumber"`
	InsurerName      string `json:"insurerName"`
	PolicyholderName string `json:"policyholderName"`
	DenialReason     string `json:"denialReason"`
	DesiredOutcome   string `json:"desiredOutcome,omitempty"`
}

type letterResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Letter string `json:"letter"`
	} `json:"data"`
}

func (h LetterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		// The guard resolves identity before this handler runs.
		respond.AuthRequired(w)
		return
	}

	var req letterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	genReq := generator.LetterRequest{
		ClaimNumber:      req.ClaimNumber,
		InsurerName:      req.InsurerName,
		PolicyholderName: req.PolicyholderName,
		DenialReason:     req.DenialReason,
		DesiredOutcome:   req.DesiredOutcome,
	}
	if err := genReq.Validate(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	logger := slog.With(
		slog.String("request_id", requestid.FromContext(r.Context())),
		slog.String("user_id", identity.UserID))

	letter, err := h.Generator.Generate(r.Context(), genReq)
	if err != nil {
		logger.Error("appeal letter generation failed",
			slog.String("claim_number", req.ClaimNumber),
			slog.String("error", err.Error()))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	// Usage is recorded only after a successful generation, so a
	// failed call never burns a free use.
	h.Usage.RecordUsage(r.Context(), identity.UserID, FeatureAppealLetter, 1)

	logger.Info("appeal letter generated",
		slog.String("claim_number", req.ClaimNumber),
		slog.Int("letter_chars", len(letter)))

	var resp letterResponse
	resp.Success = true
	resp.Data.Letter = letter
	respond.JSON(w, http.StatusOK, resp)
}

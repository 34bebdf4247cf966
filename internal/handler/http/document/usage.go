package document

import (
	"context"
	"log/slog"
	"net/http"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/handler/http/auth"
	"claim-navigator/internal/handler/http/requestid"
	"claim-navigator/internal/handler/http/respond"
)

// UsageSummarizer lists the caller's usage records for the current
// month.
type UsageSummarizer interface {
	MonthlySummary(ctx context.Context, userID string) ([]*entity.UsageRecord, error)
}

// UsageHandler returns the authenticated caller's current-month
// feature usage against the free-tier limits.
type UsageHandler struct {
	Summaries UsageSummarizer
}

type featureUsage struct {
	Feature    string `json:"feature"`
	UsageCount int    `json:"usageCount"`
	FreeLimit  int    `json:"freeLimit"`
	MonthKey   string `json:"month"`
}

type usageResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Usage []featureUsage `json:"usage"`
	} `json:"data"`
}

// freeLimits maps metered features to their monthly free-tier caps.
var freeLimits = map[string]int{
	FeatureAppealLetter: FreeLetterLimit,
}

func (h UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		respond.AuthRequired(w)
		return
	}

	records, err := h.Summaries.MonthlySummary(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("usage summary lookup failed",
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	var resp usageResponse
	resp.Success = true
	resp.Data.Usage = make([]featureUsage, 0, len(records))
	for _, rec := range records {
		resp.Data.Usage = append(resp.Data.Usage, featureUsage{
			Feature:    rec.Feature,
			UsageCount: rec.UsageCount,
			FreeLimit:  freeLimits[rec.Feature],
			MonthKey:   rec.MonthKey,
		})
	}
	respond.JSON(w, http.StatusOK, resp)
}

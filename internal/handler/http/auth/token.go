package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"claim-navigator/internal/handler/http/requestid"
	authservice "claim-navigator/internal/service/auth"
)

// tokenTTL is the lifetime of issued access tokens.
const tokenTTL = 1 * time.Hour

type loginRequest struct {
	Email    string `json:"email" example:"dana@example.com"`
	Password string `json:"password" example:"your_password"`
}

type tokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// TokenHandler creates an HTTP handler that authenticates users and issues JWT tokens.
// It uses the provided AuthService for credential validation and the Resolver
// for token signing.
func TokenHandler(authService *authservice.AuthService, resolver *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := requestid.FromContext(r.Context())
		logger := slog.With(slog.String("request_id", requestID))

		logger.Info("authentication attempt started")

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("authentication failed",
				slog.String("reason", "invalid_request"),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest("unknown", "failure")
			RecordAuthDuration("unknown", time.Since(start).Seconds())
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		creds := authservice.Credentials{
			Email:    req.Email,
			Password: req.Password,
		}

		if err := authService.ValidateCredentials(r.Context(), creds); err != nil {
			logger.Warn("authentication failed",
				slog.String("reason", "invalid_credentials"),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest("unknown", "failure")
			RecordAuthDuration("unknown", time.Since(start).Seconds())
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := authService.IdentifyUser(r.Context(), req.Email)
		if err != nil {
			logger.Warn("authentication failed",
				slog.String("reason", "user_identification_failed"),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest("unknown", "failure")
			RecordAuthDuration("unknown", time.Since(start).Seconds())
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		signed, err := resolver.IssueToken(&Identity{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		}, tokenTTL)
		if err != nil {
			logger.Error("token generation failed",
				slog.String("error", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
			RecordAuthRequest(user.Role, "failure")
			RecordAuthDuration(user.Role, time.Since(start).Seconds())
			http.Error(w, "token generation failed", http.StatusInternalServerError)
			return
		}

		logger.Info("authentication successful",
			slog.String("user_email", req.Email),
			slog.String("role", user.Role),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))

		RecordAuthRequest(user.Role, "success")
		RecordAuthDuration(user.Role, time.Since(start).Seconds())

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tokenResponse{Token: signed}); err != nil {
			logger.Error("failed to encode token response",
				slog.String("error", err.Error()))
		}
	}
}

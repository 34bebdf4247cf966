// Package respond centralizes JSON response writing. Every handler and
// guard stage goes through it, so the denial envelope stays uniform and
// internal error detail never reaches a client by accident.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing to send, only log.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Substrings that mark an error as safe to echo to the caller. They
// cover the validation wording used across the handlers; anything else
// is assumed to carry internal detail.
var safeMarkers = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"cannot be",
	"too long",
	"too short",
}

// SafeError writes an error response without leaking internals.
// Validation-style messages pass through; everything else (and every
// 5xx regardless of message) is logged sanitized and replaced with a
// generic body.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	safe := false
	if code < 500 {
		lower := strings.ToLower(msg)
		for _, marker := range safeMarkers {
			if strings.Contains(lower, marker) {
				safe = true
				break
			}
		}
	}

	if safe {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.Any("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

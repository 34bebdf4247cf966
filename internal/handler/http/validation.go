package http

import (
	"net/http"
)

// Request input limits. Tokens fit comfortably under the header cap,
// so anything past these limits is hostile or broken. Body size is
// enforced separately by LimitRequestBody.
const (
	maxAuthHeaderBytes = 8192
	maxPathBytes       = 2048
)

func rejectJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}

// InputValidation rejects requests with an oversized Authorization
// header or URI path before any handler work.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > maxAuthHeaderBytes {
				rejectJSON(w, http.StatusBadRequest, "authorization header too large")
				return
			}
			if len(r.URL.Path) > maxPathBytes {
				rejectJSON(w, http.StatusRequestURITooLong, "URI too long")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

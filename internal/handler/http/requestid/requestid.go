// Package requestid assigns each request a correlation ID. The ID is
// honored from the X-Request-ID header when the caller supplies one,
// generated otherwise, and always echoed on the response so denied
// requests can be matched to log lines.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDKey is the context key under which the ID is stored.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the header used for both directions.
	RequestIDHeader = "X-Request-ID"
)

// FromContext returns the request ID, or "" when the context has none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID stores id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Middleware attaches the request ID to the context and the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

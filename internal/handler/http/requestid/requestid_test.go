package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "stored ID comes back", ctx: WithRequestID(context.Background(), "req-789"), want: "req-789"},
		{name: "empty context yields empty string", ctx: context.Background(), want: ""},
		{name: "non-string value is ignored", ctx: context.WithValue(context.Background(), RequestIDKey, 42), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromContext(tt.ctx))
		})
	}
}

func TestMiddleware_HonorsCallerID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/guard/check", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", seen)
	assert.Equal(t, "caller-supplied-id", rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_GeneratesUUID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))

	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated ID should be a valid UUID")
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_IDsAreUnique(t *testing.T) {
	ids := make(map[string]bool)
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[FromContext(r.Context())] = true
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
	}

	assert.Len(t, ids, 10)
}

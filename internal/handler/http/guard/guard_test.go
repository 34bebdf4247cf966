package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"claim-navigator/internal/handler/http/auth"
	"claim-navigator/internal/quota"
	"claim-navigator/pkg/ratelimit"
)

var guardTestSecret = []byte("guard-test-signing-secret-0123456789abc")

type fakeLimiter struct {
	decision *ratelimit.Decision
	err      error
	calls    int
}

func (f *fakeLimiter) CheckAndRecord(ctx context.Context, identity, ip string, window time.Duration, maxRequests int) (*ratelimit.Decision, error) {
	f.calls++
	return f.decision, f.err
}

type fakeQuota struct {
	result *quota.AccessResult
	err    error
}

func (f *fakeQuota) CheckFeatureAccess(ctx context.Context, userID, feature string, hasActiveSubscription bool, freeLimit int) (*quota.AccessResult, error) {
	return f.result, f.err
}

type fakeEntitlements struct {
	active bool
	err    error
}

func (f *fakeEntitlements) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	return f.active, f.err
}

type stubIPExtractor struct{}

func (stubIPExtractor) ExtractIP(r *http.Request) (string, error) {
	return "203.0.113.9", nil
}

func allowedDecision() *ratelimit.Decision {
	return &ratelimit.Decision{
		Allowed:   true,
		Limit:     60,
		Remaining: 59,
		ResetAt:   time.Now().Add(time.Minute),
		Scope:     ratelimit.ScopeKey,
	}
}

func deniedDecision(retryAfter time.Duration, scope ratelimit.Scope) *ratelimit.Decision {
	return &ratelimit.Decision{
		Allowed:    false,
		Limit:      60,
		Remaining:  0,
		ResetAt:    time.Now().Add(retryAfter),
		RetryAfter: retryAfter,
		Scope:      scope,
	}
}

func newTestGuard(limiter Limiter, quotas QuotaChecker, entitlements EntitlementChecker, devMode bool) *Guard {
	return New(limiter, quotas, entitlements, auth.NewResolver(guardTestSecret), stubIPExtractor{}, devMode)
}

func bearerFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.NewResolver(guardTestSecret).IssueToken(&auth.Identity{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   role,
	}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return "Bearer " + token
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response body is not JSON: %v (body %q)", err, w.Body.String())
	}
	return got
}

func TestGuard_NoChecksRunsHandler(t *testing.T) {
	g := newTestGuard(nil, nil, nil, false)
	handler := g.Wrap(okHandler(`{"success":true,"data":{"ok":1}}`))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGuard_AuthRequired_ExactDenialBody(t *testing.T) {
	g := newTestGuard(nil, nil, nil, false)
	handler := g.Wrap(okHandler("never reached"), WithAuth())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/claims/usage", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var got struct {
		Success      bool `json:"success"`
		Error        struct {
			Message string `json:"message"`
		} `json:"error"`
		AuthRequired bool `json:"authRequired"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if got.Success || !got.AuthRequired || got.Error.Message != "Authentication required" {
		t.Errorf("body = %s", w.Body.String())
	}

	raw := decodeBody(t, w)
	for _, absent := range []string{"upgradeRequired", "retryAfter", "usageCount"} {
		if _, present := raw[absent]; present {
			t.Errorf("field %q should be omitted from auth denials", absent)
		}
	}
}

func TestGuard_AuthRequired_InvalidTokenDenied(t *testing.T) {
	g := newTestGuard(nil, nil, nil, false)
	handler := g.Wrap(okHandler("never reached"), WithAuth())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer not.a.valid.token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGuard_AuthRequired_ValidTokenPasses(t *testing.T) {
	g := newTestGuard(nil, nil, nil, false)

	var sawUserID string
	handler := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := auth.IdentityFromContext(r.Context()); id != nil {
			sawUserID = id.UserID
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}), WithAuth())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if sawUserID != "user-1" {
		t.Errorf("handler saw user id %q, want user-1", sawUserID)
	}
}

func TestGuard_RateLimit_Denied(t *testing.T) {
	limiter := &fakeLimiter{decision: deniedDecision(5*time.Minute, ratelimit.ScopeKey)}
	g := newTestGuard(limiter, nil, nil, false)
	handler := g.Wrap(okHandler("never reached"), WithRateLimit(time.Minute, 10))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	got := decodeBody(t, w)
	if got["retryAfter"] != float64(300) {
		t.Errorf("retryAfter = %v, want 300", got["retryAfter"])
	}
	if w.Header().Get("Retry-After") != "300" {
		t.Errorf("Retry-After header = %q", w.Header().Get("Retry-After"))
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q", w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestGuard_RateLimit_StoreFailureFailsClosed(t *testing.T) {
	limiter := &fakeLimiter{
		decision: deniedDecision(time.Minute, ratelimit.ScopeStore),
		err:      fmt.Errorf("%w: connection refused", ratelimit.ErrStoreUnavailable),
	}
	g := newTestGuard(limiter, nil, nil, false)
	handler := g.Wrap(okHandler("never reached"), WithRateLimit(time.Minute, 10))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 (fail closed)", w.Code)
	}
}

func TestGuard_RateLimit_RunsBeforeAuth(t *testing.T) {
	// An unauthenticated request over the rate limit must see 429,
	// not 401: the rate stage runs first.
	limiter := &fakeLimiter{decision: deniedDecision(time.Minute, ratelimit.ScopeKey)}
	g := newTestGuard(limiter, nil, nil, false)
	handler := g.Wrap(okHandler("never reached"), WithRateLimit(time.Minute, 10), WithAuth())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if limiter.calls != 1 {
		t.Errorf("limiter calls = %d, want 1", limiter.calls)
	}
}

func TestGuard_Subscription_Denied(t *testing.T) {
	g := newTestGuard(nil, nil, &fakeEntitlements{active: false}, false)
	handler := g.Wrap(okHandler("never reached"), WithSubscription())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", w.Code)
	}
	got := decodeBody(t, w)
	if got["upgradeRequired"] != true {
		t.Errorf("upgradeRequired = %v, want true", got["upgradeRequired"])
	}
}

func TestGuard_Subscription_ActivePasses(t *testing.T) {
	g := newTestGuard(nil, nil, &fakeEntitlements{active: true}, false)
	handler := g.Wrap(okHandler(`{"success":true}`), WithSubscription())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGuard_FeatureQuota_Denied(t *testing.T) {
	usage := 2
	quotas := &fakeQuota{result: &quota.AccessResult{
		Allowed:    false,
		Reason:     "Monthly limit reached: you have used 2 of 2 free uses this month",
		UsageCount: usage,
	}}
	g := newTestGuard(nil, quotas, &fakeEntitlements{active: false}, false)
	handler := g.Wrap(okHandler("never reached"), WithFeatureAccess("appeal_letter", 2))

	r := httptest.NewRequest("POST", "/documents/appeal-letter", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", w.Code)
	}
	got := decodeBody(t, w)
	if got["upgradeRequired"] != true {
		t.Errorf("upgradeRequired = %v", got["upgradeRequired"])
	}
	if got["usageCount"] != float64(2) {
		t.Errorf("usageCount = %v, want 2", got["usageCount"])
	}
	msg := got["error"].(map[string]any)["message"].(string)
	if !strings.Contains(msg, "Monthly limit reached") {
		t.Errorf("error.message = %q", msg)
	}
}

func TestGuard_FeatureQuota_SubscriberBypasses(t *testing.T) {
	quotas := &fakeQuota{result: &quota.AccessResult{Allowed: true}}
	g := newTestGuard(nil, quotas, &fakeEntitlements{active: true}, false)
	handler := g.Wrap(okHandler(`{"success":true}`), WithFeatureAccess("appeal_letter", 0))

	r := httptest.NewRequest("POST", "/documents/appeal-letter", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGuard_EntitlementFailure_FailsClosed(t *testing.T) {
	g := newTestGuard(nil, nil, &fakeEntitlements{err: fmt.Errorf("billing provider unreachable")}, false)
	handler := g.Wrap(okHandler("never reached"), WithSubscription())

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	got := decodeBody(t, w)
	if got["success"] != false {
		t.Errorf("success = %v, want false", got["success"])
	}
}

func TestGuard_QuotaFailure_FailsClosed(t *testing.T) {
	quotas := &fakeQuota{err: fmt.Errorf("usage store unreachable")}
	g := newTestGuard(nil, quotas, &fakeEntitlements{active: false}, false)
	handler := g.Wrap(okHandler("never reached"), WithFeatureAccess("appeal_letter", 2))

	r := httptest.NewRequest("POST", "/documents/appeal-letter", nil)
	r.Header.Set("Authorization", bearerFor(t, "user-1", "user"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestGuard_HandlerPanic(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded: secret details")
	})

	t.Run("production mode suppresses detail", func(t *testing.T) {
		g := newTestGuard(nil, nil, nil, false)
		w := httptest.NewRecorder()
		g.Wrap(panicHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if strings.Contains(w.Body.String(), "secret details") {
			t.Errorf("panic detail leaked: %s", w.Body.String())
		}
		got := decodeBody(t, w)
		if got["success"] != false {
			t.Errorf("success = %v, want false", got["success"])
		}
	})

	t.Run("dev mode includes detail", func(t *testing.T) {
		g := newTestGuard(nil, nil, nil, true)
		w := httptest.NewRecorder()
		g.Wrap(panicHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if !strings.Contains(w.Body.String(), "database exploded") {
			t.Errorf("dev mode should include panic detail: %s", w.Body.String())
		}
	})
}

func TestGuard_RateLimitAllowed_HeadersSet(t *testing.T) {
	limiter := &fakeLimiter{decision: allowedDecision()}
	g := newTestGuard(limiter, nil, nil, false)
	handler := g.Wrap(okHandler(`{"success":true}`), WithRateLimit(time.Minute, 60))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") != "59" {
		t.Errorf("X-RateLimit-Remaining = %q", w.Header().Get("X-RateLimit-Remaining"))
	}
	if w.Header().Get("Retry-After") != "" {
		t.Errorf("Retry-After should not be set on allowed requests")
	}
}

// Package guard composes auth, rate limit, and entitlement checks into
// a single middleware wrapping a business handler. Each stage
// short-circuits to a uniform JSON denial; the wrapped handler only
// runs once every configured check has passed.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"claim-navigator/internal/handler/http/auth"
	"claim-navigator/internal/handler/http/requestid"
	"claim-navigator/internal/handler/http/respond"
	"claim-navigator/internal/quota"
	"claim-navigator/pkg/ratelimit"
)

// Public denial messages. Tiered sub-reasons stay in logs; callers see
// a single collapsed message per denial class.
const (
	msgAuthRequired         = "Authentication required"
	msgRateLimited          = "Too many requests. Please try again later."
	msgSubscriptionRequired = "Active subscription required"
	msgInternal             = "Internal server error"
)

// Limiter is the rate check dependency.
type Limiter interface {
	CheckAndRecord(ctx context.Context, identity, ip string, window time.Duration, maxRequests int) (*ratelimit.Decision, error)
}

// QuotaChecker is the feature metering dependency.
type QuotaChecker interface {
	CheckFeatureAccess(ctx context.Context, userID, feature string, hasActiveSubscription bool, freeLimit int) (*quota.AccessResult, error)
}

// EntitlementChecker answers whether a caller holds an active
// subscription.
type EntitlementChecker interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// IdentityResolver extracts the caller identity from a request.
type IdentityResolver interface {
	Resolve(r *http.Request) (*auth.Identity, error)
}

// IPExtractor extracts the client IP for per-IP rate keying.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// Guard wires the stage dependencies once; routes attach per-route
// Config via Wrap.
type Guard struct {
	limiter      Limiter
	quotas       QuotaChecker
	entitlements EntitlementChecker
	identities   IdentityResolver
	ips          IPExtractor
	devMode      bool
}

// New creates a Guard. quotas and entitlements may be nil when no
// route uses subscription or feature gating; the limiter may be nil
// when no route configures a rate limit.
func New(limiter Limiter, quotas QuotaChecker, entitlements EntitlementChecker, identities IdentityResolver, ips IPExtractor, devMode bool) *Guard {
	return &Guard{
		limiter:      limiter,
		quotas:       quotas,
		entitlements: entitlements,
		identities:   identities,
		ips:          ips,
		devMode:      devMode,
	}
}

// Wrap returns a handler running the configured checks in fixed order
// before next: rate limit, then auth, then entitlement. Exactly one
// response is written per request; the handler's own output is
// normalized to the JSON envelope.
func (g *Guard) Wrap(next http.Handler, opts ...Option) http.Handler {
	cfg := NewConfig(opts...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(slog.String("request_id", requestid.FromContext(r.Context())))

		// Identity resolves up front: the rate stage keys on it even
		// when auth is not required.
		identity := g.resolveIdentity(r, logger)

		if cfg.RateLimit != nil {
			if !g.rateCheck(w, r, cfg, identity, logger) {
				return
			}
		}

		if cfg.needsIdentity() && identity == nil {
			recordDenial("auth", http.StatusUnauthorized)
			respond.AuthRequired(w)
			return
		}

		if cfg.RequireSubscription || cfg.Feature != "" {
			if !g.entitlementCheck(w, r, cfg, identity, logger) {
				return
			}
		}

		g.runHandler(w, r, identity, next, logger)
	})
}

// resolveIdentity returns nil for unauthenticated requests. Invalid
// tokens are logged and treated the same as absent ones; the auth
// stage decides whether that matters.
func (g *Guard) resolveIdentity(r *http.Request, logger *slog.Logger) *auth.Identity {
	identity, err := g.identities.Resolve(r)
	if err != nil {
		if err != auth.ErrNoToken {
			logger.Warn("identity resolution failed",
				slog.String("error", err.Error()))
		}
		return nil
	}
	return identity
}

// rateCheck runs the tiered limiter. Returns false when a denial was
// written. Store failures deny with 429 (fail closed).
func (g *Guard) rateCheck(w http.ResponseWriter, r *http.Request, cfg Config, identity *auth.Identity, logger *slog.Logger) bool {
	rateKey := ratelimit.AnonymousIdentity
	if identity != nil {
		rateKey = identity.RateKey()
	}

	ip := ""
	if g.ips != nil {
		extracted, err := g.ips.ExtractIP(r)
		if err != nil {
			logger.Warn("client ip extraction failed",
				slog.String("error", err.Error()))
		} else {
			ip = extracted
		}
	}

	decision, err := g.limiter.CheckAndRecord(r.Context(), rateKey, ip, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	if err != nil {
		logger.Error("rate limit store failure, denying request",
			slog.String("error", err.Error()))
	}
	if decision.IsDenied() {
		logger.Warn("request rate limited",
			slog.String("scope", string(decision.Scope)),
			slog.String("key", decision.Key),
			slog.Int64("retry_after_s", decision.RetryAfterSeconds()))
		recordDenial("rate", http.StatusTooManyRequests)
		writeRateHeaders(w, decision)
		respond.RateLimited(w, msgRateLimited, int(decision.RetryAfterSeconds()))
		return false
	}

	writeRateHeaders(w, decision)
	return true
}

// entitlementCheck runs the subscription and feature-quota stages.
// Returns false when a denial was written. An unreachable entitlement
// or quota backend denies with 500 (fail closed).
func (g *Guard) entitlementCheck(w http.ResponseWriter, r *http.Request, cfg Config, identity *auth.Identity, logger *slog.Logger) bool {
	start := time.Now()
	defer func() {
		auth.RecordAuthzCheckDuration(time.Since(start).Seconds())
	}()

	active, err := g.entitlements.HasActiveSubscription(r.Context(), identity.UserID)
	if err != nil {
		logger.Error("entitlement lookup failed, denying request",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()))
		recordDenial("entitlement", http.StatusInternalServerError)
		respond.Deny(w, http.StatusInternalServerError, respond.Denial{
			Error: respond.ErrorDetail{Message: msgInternal, Code: "ENTITLEMENT_UNAVAILABLE"},
		})
		return false
	}

	if cfg.RequireSubscription && !active {
		auth.RecordForbiddenAttempt(identity.Role, r.Method)
		recordDenial("subscription", http.StatusPaymentRequired)
		respond.Deny(w, http.StatusPaymentRequired, respond.Denial{
			Error:           respond.ErrorDetail{Message: msgSubscriptionRequired},
			UpgradeRequired: true,
		})
		return false
	}

	if cfg.Feature != "" {
		result, err := g.quotas.CheckFeatureAccess(r.Context(), identity.UserID, cfg.Feature, active, cfg.FreeLimit)
		if err != nil {
			logger.Error("quota lookup failed, denying request",
				slog.String("user_id", identity.UserID),
				slog.String("feature", cfg.Feature),
				slog.String("error", err.Error()))
			recordDenial("quota", http.StatusInternalServerError)
			respond.Deny(w, http.StatusInternalServerError, respond.Denial{
				Error: respond.ErrorDetail{Message: msgInternal, Code: "QUOTA_UNAVAILABLE"},
			})
			return false
		}
		if !result.Allowed {
			logger.Info("feature quota exhausted",
				slog.String("user_id", identity.UserID),
				slog.String("feature", cfg.Feature),
				slog.Int("usage_count", result.UsageCount))
			auth.RecordForbiddenAttempt(identity.Role, r.Method)
			recordDenial("quota", http.StatusPaymentRequired)
			respond.UpgradeRequired(w, result.Reason, result.UsageCount)
			return false
		}
	}
	return true
}

// runHandler executes the wrapped handler against a buffering writer,
// converts panics to a generic 500, and normalizes the captured output
// to the JSON envelope.
func (g *Guard) runHandler(w http.ResponseWriter, r *http.Request, identity *auth.Identity, next http.Handler, logger *slog.Logger) {
	if identity != nil {
		r = r.WithContext(auth.WithIdentity(r.Context(), identity))
	}

	buf := newBufferingWriter()
	panicked := true
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))

				d := respond.Denial{Error: respond.ErrorDetail{Message: msgInternal}}
				if g.devMode {
					d.Error.Message = fmt.Sprintf("%s: %v", msgInternal, rec)
				}
				recordDenial("handler", http.StatusInternalServerError)
				respond.Deny(w, http.StatusInternalServerError, d)
			}
		}()
		next.ServeHTTP(buf, r)
		panicked = false
	}()
	if panicked {
		return
	}

	buf.flushTo(w)
}

// writeRateHeaders sets the standard rate limit headers from a
// decision. On denials this includes Retry-After.
func writeRateHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.ResetAtUnix()))
	if d.IsDenied() {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", d.RetryAfterSeconds()))
	}
}

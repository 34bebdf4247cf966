// Package grpc provides gRPC server plumbing for the application. The
// guard interceptor applies the same admission checks as the HTTP
// middleware: rate limiting keyed on the caller identity, bearer token
// authentication from metadata, and subscription entitlement.
package grpc

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"claim-navigator/internal/handler/http/auth"
	"claim-navigator/pkg/ratelimit"
)

// TokenResolver validates a raw bearer token string.
type TokenResolver interface {
	ResolveToken(tokenString string) (*auth.Identity, error)
}

// Limiter checks and records one request for an identity/IP pair.
type Limiter interface {
	CheckAndRecord(ctx context.Context, identity, ip string, window time.Duration, maxRequests int) (*ratelimit.Decision, error)
}

// EntitlementChecker reports whether a user has an active subscription.
type EntitlementChecker interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// GuardConfig controls which checks the interceptor applies per method.
type GuardConfig struct {
	// RequireAuth rejects calls without a valid bearer token.
	RequireAuth bool

	// RequireSubscription rejects authenticated callers without an
	// active subscription. Implies RequireAuth.
	RequireSubscription bool

	// RateWindow and RateMax configure the fixed rate window and its
	// request cap. A zero window disables rate limiting.
	RateWindow time.Duration
	RateMax    int
}

// GuardInterceptor applies admission checks to unary gRPC calls.
type GuardInterceptor struct {
	resolver     TokenResolver
	limiter      Limiter
	entitlements EntitlementChecker
	logger       *slog.Logger

	// methods maps full method names (e.g. "/claims.v1.Letters/Generate")
	// to their guard configuration. Unlisted methods pass through.
	methods map[string]GuardConfig
}

// NewGuardInterceptor creates a guard interceptor. Methods without an
// entry in methods are not guarded.
func NewGuardInterceptor(
	resolver TokenResolver,
	limiter Limiter,
	entitlements EntitlementChecker,
	methods map[string]GuardConfig,
	logger *slog.Logger,
) *GuardInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardInterceptor{
		resolver:     resolver,
		limiter:      limiter,
		entitlements: entitlements,
		methods:      methods,
		logger:       logger,
	}
}

// Unary returns the grpc.UnaryServerInterceptor. Checks run in fixed
// order: rate limit, authentication, entitlement. Rate limiting keys on
// the token identity when one is present, falling back to the peer
// address for anonymous callers.
func (g *GuardInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		cfg, guarded := g.methods[info.FullMethod]
		if !guarded {
			return handler(ctx, req)
		}

		identity, err := g.resolveIdentity(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		if cfg.RateWindow > 0 && cfg.RateMax > 0 {
			if err := g.rateCheck(ctx, identity, cfg); err != nil {
				return nil, err
			}
		}

		if (cfg.RequireAuth || cfg.RequireSubscription) && identity == nil {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}

		if cfg.RequireSubscription {
			active, err := g.entitlements.HasActiveSubscription(ctx, identity.UserID)
			if err != nil {
				g.logger.Error("entitlement check failed",
					slog.String("method", info.FullMethod),
					slog.String("error", err.Error()))
				return nil, status.Error(codes.Internal, "entitlement check unavailable")
			}
			if !active {
				return nil, status.Error(codes.PermissionDenied, "active subscription required")
			}
		}

		if identity != nil {
			ctx = auth.WithIdentity(ctx, identity)
		}
		return handler(ctx, req)
	}
}

// resolveIdentity extracts the bearer token from incoming metadata.
// A missing token yields a nil identity and no error; an invalid one
// is an error so guarded methods reject it outright.
func (g *GuardInterceptor) resolveIdentity(ctx context.Context) (*auth.Identity, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, nil
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, nil
	}

	const prefix = "bearer "
	raw := values[0]
	if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return nil, nil
	}

	return g.resolver.ResolveToken(raw[len(prefix):])
}

func (g *GuardInterceptor) rateCheck(ctx context.Context, identity *auth.Identity, cfg GuardConfig) error {
	key := ratelimit.AnonymousIdentity
	if identity != nil {
		key = identity.RateKey()
	}

	decision, err := g.limiter.CheckAndRecord(ctx, key, peerAddr(ctx), cfg.RateWindow, cfg.RateMax)
	if err != nil {
		// Fail closed: an unreachable store denies the call.
		g.logger.Error("rate limit store failure", slog.String("error", err.Error()))
		return status.Error(codes.ResourceExhausted, "too many requests")
	}
	if decision.IsDenied() {
		return status.Error(codes.ResourceExhausted,
			"too many requests, retry after "+strconv.FormatInt(decision.RetryAfterSeconds(), 10)+"s")
	}
	return nil
}

// peerAddr returns the remote address for rate limiting, without the
// port so one host maps to one key.
func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if idx := strings.LastIndexByte(addr, ':'); idx > 0 && !strings.HasSuffix(addr, "]") {
		host := addr[:idx]
		host = strings.TrimPrefix(host, "[")
		host = strings.TrimSuffix(host, "]")
		return host
	}
	return addr
}

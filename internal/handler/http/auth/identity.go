// Package auth resolves caller identity from bearer tokens and issues
// access tokens. Credential validation is delegated to pluggable
// providers; tokens are HS256 JWTs carrying subject, email, and role
// claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity errors. ErrNoToken means the request carried no credential
// at all; ErrInvalidToken means it carried one that failed validation.
var (
	ErrNoToken      = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller resolved from a request.
type Identity struct {
	// UserID is the token subject.
	UserID string
	// Email is the account email.
	Email string
	// Role is the account role ("user", "agent", "admin").
	Role string
}

// RateKey returns the rate limiting key for this identity.
func (id *Identity) RateKey() string {
	return "user:" + id.UserID
}

// Resolver validates bearer tokens and extracts the caller identity.
type Resolver struct {
	secret []byte
}

// NewResolver creates a Resolver with the given signing secret.
func NewResolver(secret []byte) *Resolver {
	return &Resolver{secret: secret}
}

// Resolve extracts and validates the bearer token on a request.
// Returns ErrNoToken when the Authorization header is absent or not a
// bearer scheme, and ErrInvalidToken for malformed, mis-signed, or
// expired tokens.
func (res *Resolver) Resolve(r *http.Request) (*Identity, error) {
	const prefix = "Bearer "
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, prefix) {
		return nil, ErrNoToken
	}

	return res.ResolveToken(strings.TrimPrefix(authz, prefix))
}

// ResolveToken validates a raw token string. It backs both the HTTP
// header path and transports that carry the token elsewhere, such as
// gRPC metadata.
func (res *Resolver) ResolveToken(tokenString string) (*Identity, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return res.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &Identity{UserID: sub, Email: email, Role: role}, nil
}

// IssueToken signs an access token for the identity, expiring after ttl.
func (res *Resolver) IssueToken(id *Identity, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"role":  id.Role,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(res.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

type ctxKey string

const ctxIdentity ctxKey = "identity"

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext returns the identity stored on the context, or
// nil for unauthenticated requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxIdentity).(*Identity)
	return id
}

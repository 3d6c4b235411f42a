// Package auth verifies bearer tokens issued by the identity provider and
// places the resulting principal on the request context.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned by verifiers for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the identity of an authenticated caller.
type Principal struct {
	UserID string // subject claim
	Email  string
}

// IdentityVerifier turns a bearer token into a principal.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type contextKey int

const principalContextKey contextKey = iota

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the request context.
// Returns nil if no principal is present (unauthenticated request).
func PrincipalFromContext(ctx context.Context) *Principal {
	principal, _ := ctx.Value(principalContextKey).(*Principal)
	return principal
}

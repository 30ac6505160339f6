package auth

import (
	"context"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the verified claims in the given context
func WithClaimsContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the claims from the context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(claimsCtxKey).(*Claims)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// UserIDFromContext returns the user id of the claims stored in ctx
func UserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.UserID() == "" {
		return "", ErrUnableToMapClaims
	}
	return claims.UserID(), nil
}

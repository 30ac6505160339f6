package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// guardedClaim reads one identity claim in a comparable form
type guardedClaim struct {
	name  string
	value func(*Claims) string
}

var guardedClaims = []guardedClaim{
	{"sub", func(c *Claims) string { return c.RegisteredClaims.Subject }},
	{"userId", func(c *Claims) string { return c.UID }},
	{"name", func(c *Claims) string { return c.Name }},
	{"iss", func(c *Claims) string { return c.RegisteredClaims.Issuer }},
	{"jti", func(c *Claims) string { return c.RegisteredClaims.ID }},
	{"aud", func(c *Claims) string { return fmt.Sprintf("%q", []string(c.RegisteredClaims.Audience)) }},
	{"iat", func(c *Claims) string { return numericDateKey(c.RegisteredClaims.IssuedAt) }},
	{"exp", func(c *Claims) string { return numericDateKey(c.RegisteredClaims.ExpiresAt) }},
}

// claimsSnapshot holds the guarded claim values in guardedClaims order
type claimsSnapshot []string

func snapshotClaims(claims *Claims) claimsSnapshot {
	snap := make(claimsSnapshot, len(guardedClaims))
	for i, g := range guardedClaims {
		snap[i] = g.value(claims)
	}
	return snap
}

// verify reports the first guarded claim that no longer matches the snapshot
func (snap claimsSnapshot) verify(claims *Claims) error {
	for i, g := range guardedClaims {
		if g.value(claims) != snap[i] {
			return immutableClaimViolation(g.name)
		}
	}
	return nil
}

// numericDateKey is empty for an unset date
func numericDateKey(date *jwt.NumericDate) string {
	if date == nil {
		return ""
	}
	return strconv.FormatInt(date.UnixNano(), 10)
}

func immutableClaimViolation(field string) error {
	err := ErrImmutableClaimMutation.Clone()
	err.Message = "immutable claim mutated: " + field
	err.Source = ErrImmutableClaimMutation
	return err.WithMetadata(map[string]any{"claim": field})
}

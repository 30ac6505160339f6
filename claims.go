package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the identity facts carried by a session token.
// Subject and UID always hold the same user id.
type Claims struct {
	jwt.RegisteredClaims
	UID      string         `json:"userId"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"meta,omitempty"` // extension payload
}

// NewClaims builds the claims for a user identity
func NewClaims(user *UserIdentity) *Claims {
	if user == nil {
		return &Claims{}
	}
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.UserID,
		},
		UID:  user.UserID,
		Name: user.Name,
	}
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// DisplayName returns the name claim
func (c *Claims) DisplayName() string {
	return c.Name
}

// TokenID returns the jti claim
func (c *Claims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func (c *Claims) clone() *Claims {
	out := *c
	if len(c.RegisteredClaims.Audience) > 0 {
		out.RegisteredClaims.Audience = append(jwt.ClaimStrings(nil), c.RegisteredClaims.Audience...)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

package auth

import (
	"time"
)

// UserIdentity is a registered user as stored by a UserRepository.
// PasswordHash never leaves the hasher/repository boundary: it is not
// serialized and it is not part of AuthResult.
type UserIdentity struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Credentials is the email/password pair presented for a single call.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Authenticate.
// The token subject always equals UserID.
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func userWithToken(user *UserIdentity, token string) *AuthResult {
	return &AuthResult{
		Token:  token,
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
	}
}

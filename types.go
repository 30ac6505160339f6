package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is the logging contract used across the package.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// UserRepository is the narrow contract the auth service needs from the
// persistent user store.
type UserRepository interface {
	// FindByEmail returns ErrUserNotFound when no user has the given email.
	FindByEmail(ctx context.Context, email string) (*UserIdentity, error)
	// Create stores a new user with a server generated id. It returns
	// ErrDuplicateEmail when the email is taken; the check and the insert
	// must be a single atomic operation in the store.
	Create(ctx context.Context, email, name, passwordHash string) (*UserIdentity, error)
}

// PasswordHasher provides one way salted hashing and verification.
type PasswordHasher interface {
	// Hash returns an encoded hash that embeds its own salt and parameters.
	Hash(password string) (string, error)
	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error when the encoded hash cannot be used.
	Verify(password, hash string) (bool, error)
}

// Authenticator is the public surface of the auth core.
type Authenticator interface {
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	VerifyToken(token string) (*Claims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetPasswordHasher() string
	GetBcryptCost() int
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(msg, args))
}

func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

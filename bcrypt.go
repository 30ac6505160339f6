package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt. The encoded hash carries its
// own salt and cost, and comparison is constant time.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher with the package default cost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: passwordHashCost()}
}

// WithCost overrides the bcrypt cost. Values outside the bcrypt range
// fall back to the package default.
func (h *BcryptHasher) WithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	h.cost = cost
	return h
}

// Cost returns the configured bcrypt cost
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a password hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(out), nil
}

// Verify will validate the given cleartext password matches the hashed password
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}

	return false, ErrInvalidPasswordHash
}

// RandomPasswordHash returns the hash of a random password. It is used
// where a well formed hash is needed that no caller can match.
func RandomPasswordHash(hasher PasswordHasher) (string, error) {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	return hasher.Hash(uuid.NewString())
}

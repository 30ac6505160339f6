// Package memory provides an in-process user repository for tests and
// single node tooling.
package memory

import (
	"context"
	"sync"
	"time"

	auth "github.com/goliatone/go-catalog-auth"
)

// Users is a mutex guarded auth.UserRepository. The email check and the
// insert happen under one lock.
type Users struct {
	mu      sync.RWMutex
	byEmail map[string]auth.UserIdentity
	newID   auth.IDGenerator
	now     func() time.Time
}

var _ auth.UserRepository = (*Users)(nil)

// NewUsers returns an empty repository. A nil generator uses UUIDs.
func NewUsers(newID auth.IDGenerator) *Users {
	if newID == nil {
		newID = auth.NewUUID
	}
	return &Users{
		byEmail: make(map[string]auth.UserIdentity),
		newID:   newID,
		now:     time.Now,
	}
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*auth.UserIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &user, nil
}

func (u *Users) Create(ctx context.Context, email, name, passwordHash string) (*auth.UserIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.byEmail[email]; exists {
		return nil, auth.ErrDuplicateEmail
	}

	user := auth.UserIdentity{
		UserID:       u.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    u.now().UTC(),
	}
	u.byEmail[email] = user

	return &user, nil
}

// Len returns the number of stored users
func (u *Users) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byEmail)
}

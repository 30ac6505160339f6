package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// userRecord is the bun model of the users table
type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"user_id,pk,type:text"`
	Email        string    `bun:"email,notnull,unique"`
	Name         string    `bun:"name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (r *userRecord) identity() *UserIdentity {
	return &UserIdentity{
		UserID:       r.ID.String(),
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// BunUsers is a UserRepository backed by bun. Email uniqueness is enforced
// by the table's UNIQUE constraint at insert time.
type BunUsers struct {
	repo repository.Repository[*userRecord]
	db   *bun.DB
	now  func() time.Time
}

var _ UserRepository = (*BunUsers)(nil)

// NewBunUsers returns a UserRepository over db
func NewBunUsers(db *bun.DB) *BunUsers {
	repo := repository.NewRepository(db, repository.ModelHandlers[*userRecord]{
		NewRecord: func() *userRecord { return &userRecord{} },
		GetID: func(r *userRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *userRecord, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &BunUsers{
		repo: repo,
		db:   db,
		now:  time.Now,
	}
}

// CreateSchema creates the users table when it does not exist
func (u *BunUsers) CreateSchema(ctx context.Context) error {
	_, err := u.db.NewCreateTable().
		Model((*userRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users table")
	}
	return nil
}

func (u *BunUsers) FindByEmail(ctx context.Context, email string) (*UserIdentity, error) {
	// GetByIdentifier would switch to an id lookup for UUID shaped input
	record, err := u.repo.Get(ctx, repository.SelectBy("email", "=", email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user by email")
	}
	return record.identity(), nil
}

func (u *BunUsers) Create(ctx context.Context, email, name, passwordHash string) (*UserIdentity, error) {
	record := &userRecord{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    u.now().UTC(),
	}

	created, err := u.repo.Create(ctx, record)
	if err != nil {
		if isDuplicateEmail(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return created.identity(), nil
}

// isDuplicateEmail matches a unique violation on the email column only. A
// collision on user_id is not a taken email.
func isDuplicateEmail(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return strings.Contains(msg, "users.email")
	case strings.Contains(msg, "SQLSTATE 23505"),
		strings.Contains(msg, "duplicate key value violates unique constraint"):
		return strings.Contains(msg, "users_email_key") || strings.Contains(msg, "uq_users_email")
	}
	return false
}

// Package postgres provides a PostgreSQL backed user repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	auth "github.com/goliatone/go-catalog-auth"
	goerrors "github.com/goliatone/go-errors"
)

// emailConstraint is the unique constraint on users.email
const emailConstraint = "uq_users_email"

const (
	findByEmailSQL = `SELECT user_id, email, name, password_hash, created_at FROM users WHERE email = $1`
	insertUserSQL  = `INSERT INTO users (user_id, email, name, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`
)

// Querier is the subset of pgx used by Users. *pgxpool.Pool and pgxmock
// pools satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Users implements auth.UserRepository on PostgreSQL. The uq_users_email
// constraint makes Create atomic with respect to duplicate emails.
type Users struct {
	db    Querier
	newID auth.IDGenerator
}

var _ auth.UserRepository = (*Users)(nil)

// NewUsers creates a repository over db. A nil generator uses UUIDs.
func NewUsers(db Querier, newID auth.IDGenerator) *Users {
	if newID == nil {
		newID = auth.NewUUID
	}
	return &Users{db: db, newID: newID}
}

// Connect opens a connection pool for dsn
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to connect to database")
	}
	return pool, nil
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*auth.UserIdentity, error) {
	var user auth.UserIdentity
	err := u.db.QueryRow(ctx, findByEmailSQL, email).Scan(
		&user.UserID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user by email")
	}
	return &user, nil
}

func (u *Users) Create(ctx context.Context, email, name, passwordHash string) (*auth.UserIdentity, error) {
	user := &auth.UserIdentity{
		UserID:       u.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}

	var createdAt time.Time
	err := u.db.QueryRow(ctx, insertUserSQL, user.UserID, email, name, passwordHash).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailConstraint {
			return nil, auth.ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	user.CreatedAt = createdAt
	return user, nil
}

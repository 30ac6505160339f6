package postgres

import (
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	auth "github.com/goliatone/go-catalog-auth"
	goerrors "github.com/goliatone/go-errors"
)

// migrateIface abstracts golang-migrate so Migrator can be tested without a database
type migrateIface interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// Migrator applies the embedded users schema migrations.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for databaseURL. postgres:// and
// postgresql:// URLs are rewritten to the pgx5:// scheme.
func NewMigrator(databaseURL string) (*Migrator, error) {
	migrations, err := auth.PostgresMigrations()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open embedded migrations")
	}

	source, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create migration source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrateURL(databaseURL))
	if err != nil {
		_ = source.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to initialize migrator")
	}

	return &Migrator{m: m}, nil
}

// MigrateURL converts a postgres connection string to the pgx5 scheme
func MigrateURL(databaseURL string) string {
	if rest, found := strings.CutPrefix(databaseURL, "postgres://"); found {
		return "pgx5://" + rest
	}
	if rest, found := strings.CutPrefix(databaseURL, "postgresql://"); found {
		return "pgx5://" + rest
	}
	return databaseURL
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to apply migrations")
	}
	return nil
}

// Down rolls back every migration.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to roll back migrations")
	}
	return nil
}

// Version returns the applied version. No migrations yields 0, false, nil.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read migration version")
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if dbErr != nil {
		return goerrors.Wrap(dbErr, goerrors.CategoryOperation, "failed to close migration database")
	}
	if srcErr != nil {
		return goerrors.Wrap(srcErr, goerrors.CategoryInternal, "failed to close migration source")
	}
	return nil
}

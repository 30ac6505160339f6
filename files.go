package auth

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// PostgresMigrationsDir is the directory of the Postgres migrations in GetMigrationsFS
const PostgresMigrationsDir = "data/sql/migrations/postgres"

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// PostgresMigrations returns the Postgres migrations rooted at their directory
func PostgresMigrations() (fs.FS, error) {
	return fs.Sub(migrationsFS, PostgresMigrationsDir)
}

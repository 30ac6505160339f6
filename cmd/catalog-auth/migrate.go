package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-catalog-auth/config"
	"github.com/goliatone/go-catalog-auth/repository/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			if err := a.migrate(cmd, down); err != nil {
				printError(cmd.ErrOrStderr(), err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration (postgres only)")

	return cmd
}

func (a *app) migrate(cmd *cobra.Command, down bool) error {
	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		fmt.Fprintln(cmd.OutOrStdout(), "memory store has no schema")
		return nil
	case config.DriverPostgres:
		return a.migratePostgres(cmd, down)
	default:
		users, err := a.bunUsers()
		if err != nil {
			return err
		}
		if err := users.CreateSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "users table ready")
		return nil
	}
}

func (a *app) migratePostgres(cmd *cobra.Command, down bool) (err error) {
	m, err := postgres.NewMigrator(a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if down {
		if err := m.Down(); err != nil {
			return err
		}
	} else if err := m.Up(); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	a.logger.Info("migrations applied", "version", version, "dirty", dirty)
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}

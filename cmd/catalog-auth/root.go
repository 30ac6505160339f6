package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-catalog-auth"
	"github.com/goliatone/go-catalog-auth/activitymap"
	"github.com/goliatone/go-catalog-auth/config"
	"github.com/goliatone/go-catalog-auth/internal/logging"
	"github.com/goliatone/go-catalog-auth/metrics"
	"github.com/goliatone/go-catalog-auth/repository/memory"
	"github.com/goliatone/go-catalog-auth/repository/postgres"
)

const serviceName = "catalog-auth"

// app carries the state shared by subcommands for one invocation
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	closers    []func() error
}

// NewRootCmd creates the root command for the catalog-auth CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Register users, log in and verify session tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newVerifyCmd(a))

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return err
	}

	a.cfg = cfg
	a.logger = logging.Setup(serviceName, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	a.registry = prometheus.NewRegistry()
	return nil
}

func (a *app) close() error {
	first := a.writeMetrics()
	if first != nil {
		a.logger.Warn("metrics textfile not written", "error", first)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// writeMetrics dumps the registry for a textfile collector when configured
func (a *app) writeMetrics() error {
	if a.cfg == nil || a.registry == nil || a.cfg.Metrics.TextFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.TextFile, a.registry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to write metrics textfile").
			WithMetadata(map[string]any{"path": a.cfg.Metrics.TextFile})
	}
	return nil
}

// users opens the configured user store
func (a *app) users(ctx context.Context) (auth.UserRepository, error) {
	ids := auth.ResolveIDGenerator(a.cfg.Database.IDs)

	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		return memory.NewUsers(ids), nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		return postgres.NewUsers(pool, ids), nil
	default:
		users, err := a.bunUsers()
		if err != nil {
			return nil, err
		}
		if err := users.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return users, nil
	}
}

func (a *app) bunUsers() (*auth.BunUsers, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, a.cfg.Database.DSN)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open sqlite database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	a.closers = append(a.closers, db.Close)

	return auth.NewBunUsers(db), nil
}

// service builds the auth service over the configured store
func (a *app) service(ctx context.Context) (*auth.Service, error) {
	users, err := a.users(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(users, a.cfg.Auth)
	if err != nil {
		return nil, err
	}

	sinks := auth.ActivitySinks{
		metrics.NewActivitySink(a.registry),
		auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
			a.logger.InfoContext(ctx, "auth activity", activitymap.Normalize(event).LogArgs()...)
			return nil
		}),
	}

	return svc.WithLogger(a.logger).WithActivitySink(sinks), nil
}

func printResult(w io.Writer, v any) {
	fmt.Fprintln(w, print.MaybePrettyJSON(v))
}

func printError(w io.Writer, err error) {
	if fields := auth.ValidationFields(err); len(fields) > 0 {
		fmt.Fprintf(w, "error: %s\n%s\n", err.Error(), print.MaybePrettyJSON(fields))
		return
	}
	fmt.Fprintf(w, "error: %s\n", err.Error())
}

// Package config loads catalog-auth settings from defaults, a YAML file,
// the environment and command line flags, in that order of precedence.
package config

import (
	"errors"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	auth "github.com/goliatone/go-catalog-auth"
	goerrors "github.com/goliatone/go-errors"
)

// EnvPrefix prefixes every environment variable. Nested keys are joined
// with a double underscore: CATALOG_AUTH_AUTH__SIGNING_KEY.
const EnvPrefix = "CATALOG_AUTH_"

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full application configuration
type Config struct {
	Auth     auth.Options `koanf:"auth"`
	Database Database     `koanf:"database"`
	Log      Log          `koanf:"log"`
	Metrics  Metrics      `koanf:"metrics"`
}

// Database selects the user store
type Database struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	IDs    string `koanf:"ids"` // uuid or ulid, postgres and memory only
}

// Log configures the CLI logger
type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Metrics configures where the CLI leaves its counters
type Metrics struct {
	TextFile string `koanf:"textfile"` // Prometheus textfile collector format, empty disables
}

// flagKeys maps command line flag names to config keys
var flagKeys = map[string]string{
	"signing-key":      "auth.signing_key",
	"token-expiration": "auth.token_expiration",
	"issuer":           "auth.issuer",
	"audience":         "auth.audience",
	"password-hasher":  "auth.password_hasher",
	"bcrypt-cost":      "auth.bcrypt_cost",
	"db-driver":        "database.driver",
	"dsn":              "database.dsn",
	"ids":              "database.ids",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-file":     "metrics.textfile",
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	return Config{
		Auth: auth.DefaultOptions(),
		Database: Database{
			Driver: DriverSQLite,
			DSN:    "file:catalog-auth.db?cache=shared",
			IDs:    "uuid",
		},
		Log: Log{
			Format: "text",
			Level:  "info",
		},
	}
}

// BindFlags registers the flags understood by Load on fs
func BindFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("signing-key", "", "token signing secret")
	fs.Duration("token-expiration", d.Auth.TokenExpiration, "token lifetime, 0 disables expiry")
	fs.String("issuer", d.Auth.Issuer, "token issuer")
	fs.StringSlice("audience", d.Auth.Audience, "token audience")
	fs.String("password-hasher", d.Auth.PasswordHasher, "bcrypt or argon2id")
	fs.Int("bcrypt-cost", d.Auth.BcryptCost, "bcrypt cost")
	fs.String("db-driver", d.Database.Driver, "sqlite, postgres or memory")
	fs.String("dsn", d.Database.DSN, "database connection string")
	fs.String("ids", d.Database.IDs, "user id format: uuid or ulid")
	fs.String("log-format", d.Log.Format, "json or text")
	fs.String("log-level", d.Log.Level, "debug, info, warn or error")
	fs.String("metrics-file", "", "write activity counters to this file on exit")
}

// Load builds a Config. path may be empty to skip the file, fs may be nil
// to skip flags.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load environment")
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that have no usable default
func (c Config) Validate() error {
	fields := map[string]string{}

	if c.Auth.SigningKey == "" {
		fields["auth.signing_key"] = "Signing key is required"
	}

	if c.Auth.TokenExpiration < 0 {
		fields["auth.token_expiration"] = "Token expiration must not be negative"
	}

	switch c.Auth.PasswordHasher {
	case "", auth.HasherBcrypt, auth.HasherArgon2id:
	default:
		fields["auth.password_hasher"] = "Must be one of bcrypt, argon2id"
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		fields["database.driver"] = "Must be one of sqlite, postgres, memory"
	}

	if c.Database.Driver != DriverMemory && c.Database.DSN == "" {
		fields["database.dsn"] = "DSN is required"
	}

	if len(fields) == 0 {
		return nil
	}

	return auth.NewValidationError("Invalid configuration", fields)
}

func loadDefaults(k *koanf.Koanf) error {
	d := Defaults()
	defaults := map[string]any{
		"auth.token_expiration": d.Auth.TokenExpiration,
		"auth.issuer":           d.Auth.Issuer,
		"auth.audience":         d.Auth.Audience,
		"auth.password_hasher":  d.Auth.PasswordHasher,
		"auth.bcrypt_cost":      d.Auth.BcryptCost,
		"database.driver":       d.Database.Driver,
		"database.dsn":          d.Database.DSN,
		"database.ids":          d.Database.IDs,
		"log.format":            d.Log.Format,
		"log.level":             d.Log.Level,
	}

	var errs []error
	for key, val := range defaults {
		errs = append(errs, k.Set(key, val))
	}

	if err := errors.Join(errs...); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load defaults")
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

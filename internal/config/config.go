// Package config provides functionality for managing configuration options
// for the membership tools using a JSON file and environment variables.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultConnectionName is the connection the provider uses unless
// default_connection says otherwise.
const DefaultConnectionName = "membership"

// ErrConnectionNotFound is returned when a named connection string is not configured.
var ErrConnectionNotFound = errors.New("connection string not found")

// Duration is a time.Duration that reads "15m"-style strings from JSON and env.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Addr is the console server's listening address (ip:port).
	Addr string `json:"addr" env:"MEMBERCTL_ADDR, overwrite"`

	// DatabaseDSN, when set, replaces the default connection string.
	DatabaseDSN string `json:"database_dsn" env:"MEMBERCTL_DATABASE_DSN, overwrite"`

	// DefaultConnection names the connection string used by the provider.
	DefaultConnection string `json:"default_connection" env:"MEMBERCTL_DEFAULT_CONNECTION, overwrite"`

	// ConnectionStrings maps connection names to Postgres DSNs.
	ConnectionStrings map[string]string `json:"connection_strings"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level" env:"MEMBERCTL_LOG_LEVEL, overwrite"`

	// CertDir holds ca.crt, server.crt and server.key for the console server.
	CertDir string `json:"cert_dir" env:"MEMBERCTL_CERT_DIR, overwrite"`

	// Membership is the provider policy.
	Membership Membership `json:"membership"`
}

// Membership mirrors the provider policy knobs.
type Membership struct {
	MinPasswordLength          int      `json:"min_password_length" env:"MEMBERCTL_MIN_PASSWORD_LENGTH, overwrite"`
	MaxInvalidPasswordAttempts int      `json:"max_invalid_password_attempts" env:"MEMBERCTL_MAX_INVALID_PASSWORD_ATTEMPTS, overwrite"`
	PasswordAttemptWindow      Duration `json:"password_attempt_window" env:"MEMBERCTL_PASSWORD_ATTEMPT_WINDOW, overwrite"`
	UserIsOnlineWindow         Duration `json:"user_is_online_window" env:"MEMBERCTL_USER_IS_ONLINE_WINDOW, overwrite"`
	RequiresUniqueEmail        bool     `json:"requires_unique_email" env:"MEMBERCTL_REQUIRES_UNIQUE_EMAIL, overwrite"`
	RequiresQuestionAndAnswer  bool     `json:"requires_question_and_answer" env:"MEMBERCTL_REQUIRES_QUESTION_AND_ANSWER, overwrite"`
}

// Default returns the built-in configuration.
func Default() *Options {
	return &Options{
		Addr:              "localhost:8443",
		DefaultConnection: DefaultConnectionName,
		ConnectionStrings: map[string]string{},
		LogLevel:          "info",
		CertDir:           "certs",
		Membership: Membership{
			MinPasswordLength:          7,
			MaxInvalidPasswordAttempts: 5,
			PasswordAttemptWindow:      Duration(10 * time.Minute),
			UserIsOnlineWindow:         Duration(15 * time.Minute),
			RequiresUniqueEmail:        true,
		},
	}
}

// Load builds the configuration from defaults, the JSON file at path (if it
// exists) and MEMBERCTL_* environment variables, in that order. The CONFIG
// environment variable overrides path.
func Load(ctx context.Context, path string) (*Options, error) {
	return load(ctx, path, envconfig.OsLookuper())
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Options, error) {
	options := Default()

	if configPath, ok := lookuper.Lookup("CONFIG"); ok && configPath != "" {
		path = configPath
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   options,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("error while reading environment: %w", err)
	}

	if options.ConnectionStrings == nil {
		options.ConnectionStrings = map[string]string{}
	}
	if options.DefaultConnection == "" {
		options.DefaultConnection = DefaultConnectionName
	}
	if options.DatabaseDSN != "" {
		options.ConnectionStrings[options.DefaultConnection] = options.DatabaseDSN
	}

	return options, nil
}

// ConnectionString resolves a named connection string.
func (o *Options) ConnectionString(name string) (string, error) {
	dsn, ok := o.ConnectionStrings[name]
	if !ok || dsn == "" {
		return "", fmt.Errorf("%w: %q", ErrConnectionNotFound, name)
	}
	return dsn, nil
}

// DefaultDSN resolves the connection string used by the provider.
func (o *Options) DefaultDSN() (string, error) {
	return o.ConnectionString(o.DefaultConnection)
}

// Package config loads the process configuration from the environment.
//
// Config is built once in main and passed down; nothing below cmd/ reads
// environment variables. Every key is validated up front and Load reports
// all bad keys at once, so a misconfigured deploy fails on start instead of
// on the first request that needs the value.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	// Env is APP_ENV, falling back to NODE_ENV.
	Env  string `mapstructure:"app_env" validate:"oneof=development test production"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`

	// DatabaseURL selects the store: postgres:// or postgresql:// for
	// Postgres, sqlite:// or file: for SQLite.
	DatabaseURL string `mapstructure:"database_url" validate:"required,dburl"`

	// GoogleClientID is the audience Google ID tokens must be issued for.
	GoogleClientID string `mapstructure:"google_client_id" validate:"required"`

	// ClientURL is the web client's origin, the only one CORS allows.
	ClientURL string `mapstructure:"client_url" validate:"required,url"`

	// DevTokenSecret enables locally minted identity tokens outside
	// production. Empty disables them.
	DevTokenSecret string `mapstructure:"dev_token_secret" validate:"omitempty,min=16"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// keys lists every setting with its environment variable names, in lookup
// order.
var keys = map[string][]string{
	"app_env":          {"APP_ENV", "NODE_ENV"},
	"port":             {"PORT"},
	"database_url":     {"DATABASE_URL"},
	"google_client_id": {"GOOGLE_CLIENT_ID"},
	"client_url":       {"CLIENT_URL"},
	"dev_token_secret": {"DEV_TOKEN_SECRET"},
	"log_level":        {"LOG_LEVEL"},
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	for key, envs := range keys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and returns one error naming all the
// environment variables that are missing or malformed.
func (c Config) Validate() error {
	v := validator.New()
	v.RegisterAlias("dburl", "startswith=postgres://|startswith=postgresql://|startswith=sqlite://|startswith=file:")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		key := f.Tag.Get("mapstructure")
		if envs, ok := keys[key]; ok {
			return envs[0]
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", fe.Field(), describe(fe)))
	}
	return fmt.Errorf("config: invalid environment: %s", strings.Join(problems, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", "|")
	case "min", "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "out of range"
	case "url":
		return "must be a URL"
	case "dburl":
		return "must start with postgres://, sqlite:// or file:"
	default:
		return "invalid"
	}
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DevTokensEnabled reports whether locally minted identity tokens are
// accepted. They never are in production.
func (c Config) DevTokensEnabled() bool {
	return c.DevTokenSecret != "" && !c.IsProduction()
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

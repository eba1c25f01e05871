// Package config reads verbcheck settings from VERBCHECK_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/verbcheck/internal/ir"
	"github.com/roach88/verbcheck/internal/suggest"
	"github.com/roach88/verbcheck/internal/validator"
)

// Config holds the settings shared by every command.
type Config struct {
	LogLevel string `env:"VERBCHECK_LOG_LEVEL" envDefault:"warn"`

	// Catalog lists catalog files or directories, comma separated.
	Catalog    []string `env:"VERBCHECK_CATALOG"`
	References string   `env:"VERBCHECK_REFERENCES"`
	RefDB      string   `env:"VERBCHECK_REFDATA_DB"`
	Context    string   `env:"VERBCHECK_CONTEXT"`
	Today      string   `env:"VERBCHECK_TODAY"` // YYYY-MM-DD, empty for the current date

	SuggestLimit          int `env:"VERBCHECK_SUGGEST_LIMIT"`
	ReferenceSuggestLimit int `env:"VERBCHECK_REFERENCE_SUGGEST_LIMIT"`

	OTelEndpoint string `env:"VERBCHECK_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"VERBCHECK_OTEL_ENABLED" envDefault:"true"`
}

// Load reads the process environment.
func Load() (Config, error) {
	cfg := defaults()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	cfg := defaults()
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func defaults() Config {
	return Config{
		SuggestLimit:          suggest.DefaultLimit,
		ReferenceSuggestLimit: validator.DefaultReferenceSuggestLimit,
	}
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.TodayDate(); err != nil {
		return err
	}
	if c.SuggestLimit < 0 {
		return fmt.Errorf("VERBCHECK_SUGGEST_LIMIT must not be negative, got %d", c.SuggestLimit)
	}
	if c.ReferenceSuggestLimit < 0 {
		return fmt.Errorf("VERBCHECK_REFERENCE_SUGGEST_LIMIT must not be negative, got %d", c.ReferenceSuggestLimit)
	}
	return nil
}

// Level parses LogLevel (debug, info, warn or error).
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("VERBCHECK_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// TodayDate parses Today. The zero time means "use the current date".
func (c Config) TodayDate() (time.Time, error) {
	if c.Today == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(ir.DateLayout, c.Today)
	if err != nil {
		return time.Time{}, fmt.Errorf("VERBCHECK_TODAY: expected YYYY-MM-DD, got %q", c.Today)
	}
	return t, nil
}

// TracingEnabled reports whether spans should be exported.
func (c Config) TracingEnabled() bool {
	return c.OTelEnabled && c.OTelEndpoint != ""
}

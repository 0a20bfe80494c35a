// Package config loads process settings from BACKPRESSURE_* environment
// variables. Command-line flags override these values in the CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-derived settings.
type Config struct {
	DB       string        `env:"BACKPRESSURE_DB"        envDefault:"backpressure.db"`
	Slot     string        `env:"BACKPRESSURE_SLOT"      envDefault:"default"`
	Catalog  string        `env:"BACKPRESSURE_CATALOG"`
	LogLevel string        `env:"BACKPRESSURE_LOG_LEVEL" envDefault:"info"`
	Tick     time.Duration `env:"BACKPRESSURE_TICK"      envDefault:"1s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if c.Tick <= 0 {
		return fmt.Errorf("BACKPRESSURE_TICK must be positive, got %s", c.Tick)
	}
	if strings.TrimSpace(c.Slot) == "" {
		return fmt.Errorf("BACKPRESSURE_SLOT must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level. Invalid values fall back to info;
// Validate reports them.
func (c Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps debug, info, warn and error (any case) to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("BACKPRESSURE_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

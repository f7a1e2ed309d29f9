// Package config loads and validates the Aegis core configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guardrailhq/aegis/internal/types"
)

// Config is the root configuration for the guardrail core.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Regen    RegenConfig    `mapstructure:"regen" yaml:"regen"`
	Rate     RateConfig     `mapstructure:"rate" yaml:"rate"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DatabaseConfig locates the approval row store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// RegenConfig bounds field regeneration attempts.
type RegenConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ResetWindow time.Duration `mapstructure:"reset_window" yaml:"reset_window"` // 0 = permanent cap
}

// RateConfig bounds request volume per key on the intake path.
type RateConfig struct {
	Limit  int           `mapstructure:"limit" yaml:"limit"`
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

// RedisConfig, when Addr is set, swaps the in-memory counter store for a
// shared Redis counter so multiple instances see one attempt count.
type RedisConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// TracingConfig toggles OpenTelemetry span emission.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Path: "aegis.db",
		},
		Regen: RegenConfig{
			MaxAttempts: 3,
			ResetWindow: 0,
		},
		Rate: RateConfig{
			Limit:  5,
			Window: time.Minute,
		},
		Redis: RedisConfig{
			Prefix: "regen:",
		},
	}
}

// Validate checks the configuration, collecting every problem found.
func (c Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Database.Path == "" {
		problems = append(problems, "database.path: must not be empty")
	}
	if c.Regen.MaxAttempts <= 0 {
		problems = append(problems, "regen.max_attempts: must be positive")
	}
	if c.Regen.ResetWindow < 0 {
		problems = append(problems, "regen.reset_window: must not be negative")
	}
	if c.Rate.Limit <= 0 {
		problems = append(problems, "rate.limit: must be positive")
	}
	if c.Rate.Window <= 0 {
		problems = append(problems, "rate.window: must be positive")
	}

	if len(problems) > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, strings.Join(problems, "; "))
	}
	return nil
}

// DefaultYAML renders the default configuration as YAML, for `aegis init`.
func DefaultYAML() ([]byte, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to render default config", err)
	}
	return data, nil
}

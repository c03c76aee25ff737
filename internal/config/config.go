// Package config loads runtime configuration for the summa CLI.
//
// Precedence, highest first:
//  1. SUMMA_* environment variables (SUMMA_LOG_LEVEL -> log.level)
//  2. the YAML config file, when one is given
//  3. defaults
//
// Command-line flags override the loaded configuration in the CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SUMMA_"

// Config is the full runtime configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
	Policy  PolicyConfig  `koanf:"policy"`
	Metrics MetricsConfig `koanf:"metrics"`
	Test    TestConfig    `koanf:"test"`
}

// LogConfig controls the CLI's slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// StoreConfig locates the SQLite report database. Empty disables
// persistence.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// PolicyConfig locates the CUE policy file. Empty selects the stock policy.
type PolicyConfig struct {
	Path string `koanf:"path" validate:"omitempty,endswith=.cue"`
}

// MetricsConfig sets where Prometheus text output is written. Empty
// disables the export.
type MetricsConfig struct {
	Output string `koanf:"output"`
}

// TestConfig tunes `summa test`.
type TestConfig struct {
	Parallel int `koanf:"parallel" validate:"gte=1,lte=256"`
}

var validate = validator.New()

// Load reads configuration from path, if non-empty, then applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps SUMMA_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Test.Parallel == 0 {
		cfg.Test.Parallel = 4
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// SlogLevel converts Log.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
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

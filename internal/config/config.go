package config

import (
	"errors"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LINKRANK_TOP_K.
const EnvPrefix = "LINKRANK"

// Config holds all runtime configuration for a linkrank invocation.
// Values are populated from .linkrank.yaml, LINKRANK_* env vars, and CLI flags.
type Config struct {
	Input          string `mapstructure:"input"`
	OutputDir      string `mapstructure:"output_dir"`
	TopK           int    `mapstructure:"top_k"`
	MaxIterations  int    `mapstructure:"max_iterations"`
	Workers        int    `mapstructure:"workers"`
	ExactOutDegree bool   `mapstructure:"exact_out_degree"`
	TelemetryPath  string `mapstructure:"telemetry_path"`
	DBPath         string `mapstructure:"db_path"`
	Verbose        bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. Every invalid value
// is reported in the returned error.
func Load() (Config, error) {
	viper.SetDefault("input", "inlinks-input.txt")
	viper.SetDefault("output_dir", ".")
	viper.SetDefault("top_k", 50)
	viper.SetDefault("max_iterations", 0)
	viper.SetDefault("workers", 1)
	viper.SetDefault("exact_out_degree", false)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("db_path", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var err error
	if c.Input == "" {
		err = multierror.Append(err, errors.New("input must not be empty"))
	}
	if c.TopK < 1 {
		err = multierror.Append(err, fmt.Errorf("top_k must be at least 1, got %d", c.TopK))
	}
	if c.Workers < 1 {
		err = multierror.Append(err, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxIterations < 0 {
		err = multierror.Append(err, fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations))
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

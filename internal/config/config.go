package config

import "time"

// Config represents the complete application configuration.
// Values resolve in order: defaults, config file, NUTRILENS_* environment, flags.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// APIConfig contains FoodData Central client settings.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
}

// StoreConfig contains preference store configuration
type StoreConfig struct {
	// Driver is libsql (cgo) or sqlite (pure Go).
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url,omitempty"`
	AuthToken string `mapstructure:"auth_token" yaml:"-"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig contains telemetry configuration
type MetricsConfig struct {
	// Enabled emits request outcome counters through gofulmen telemetry
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

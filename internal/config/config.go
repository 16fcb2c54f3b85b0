// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"strings"
)

// Run modes. Production serves embedded assets and preloads templates once;
// development reads both from disk on every request.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address. Binds all interfaces by default.
	Addr string `koanf:"addr"`

	// Mode is production or development.
	Mode string `koanf:"mode"`

	// AssetDir is read live in development mode.
	AssetDir string `koanf:"asset_dir"`

	// TemplateDir holds optional on-disk templates overriding the embedded ones.
	TemplateDir string `koanf:"template_dir"`

	// TraceHeaders includes request header contents in request spans.
	TraceHeaders bool `koanf:"trace_headers"`

	// MetricsIntervalMS is how often process metrics are sampled in the background.
	MetricsIntervalMS int `koanf:"metrics_interval_ms"`

	// ExampleConfig is the one required application setting.
	ExampleConfig string `koanf:"example_config"`
}

// New creates a Config populated with defaults. ExampleConfig has no default.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         LogFormatText,
		Addr:              "0.0.0.0:3000",
		Mode:              ModeProduction,
		AssetDir:          "internal/adapters/http/site/static/assets",
		TemplateDir:       "templates",
		TraceHeaders:      true,
		MetricsIntervalMS: 10_000,
	}
}

// Development reports whether assets and templates are read from disk per request.
func (c *Config) Development() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), ModeDevelopment)
}

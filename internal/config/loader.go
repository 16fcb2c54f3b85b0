package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Environment variables consulted by Load.
const (
	EnvPrefix        = "HEARTH_"
	EnvConfigFile    = "HEARTH_CONFIG"
	EnvExampleConfig = "EXAMPLE_CONFIG"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New())
//  2. YAML file named by --config or HEARTH_CONFIG
//  3. env vars with prefix HEARTH_ (HEARTH_ADDR -> addr)
//  4. EXAMPLE_CONFIG
//  5. command-line flags that were explicitly set
//
// flags may be nil.
func Load(ctx context.Context, flags *pflag.FlagSet) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := New()
	k := koanf.New(".")

	path := os.Getenv(EnvConfigFile)
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// EXAMPLE_CONFIG -> example_config
	if err := k.Load(env.Provider("EXAMPLE_", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if flags != nil {
		var setErr error
		flags.Visit(func(f *pflag.Flag) {
			if f.Name == "config" || setErr != nil {
				return
			}
			setErr = k.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		})
		if setErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, setErr)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ExampleConfig) == "" {
		return fmt.Errorf("%w: example_config is required (--example-config or %s)", ErrInvalidConfig, EnvExampleConfig)
	}
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case ModeProduction, ModeDevelopment:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MetricsIntervalMS <= 0 {
		return fmt.Errorf("%w: metrics_interval_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// BindFlags registers a flag for every setting on fs, plus --config.
// Only flags the user sets override lower layers.
func BindFlags(fs *pflag.FlagSet) {
	d := New()
	fs.String("config", "", "path to a YAML config file (env "+EnvConfigFile+")")
	fs.String("example-config", "", "required application setting (env "+EnvExampleConfig+")")
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("mode", d.Mode, "run mode: production or development")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("asset-dir", d.AssetDir, "asset directory served in development mode")
	fs.String("template-dir", d.TemplateDir, "directory of templates overriding the embedded set")
	fs.Bool("trace-headers", d.TraceHeaders, "include request headers in request spans")
	fs.Int("metrics-interval-ms", d.MetricsIntervalMS, "background process metrics sampling interval")
}

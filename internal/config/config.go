// Package config loads server and CLI configuration from an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
)

// Config is the complete configuration.
type Config struct {
	Port      int    `mapstructure:"port"`
	SchemaDir string `mapstructure:"schema_dir"`
	// ResolverCacheSize bounds the cached levels per schema.
	ResolverCacheSize int            `mapstructure:"resolver_cache_size"`
	Log               LogConfig      `mapstructure:"log"`
	Sessions          SessionConfig  `mapstructure:"sessions"`
	Render            render.Options `mapstructure:"render"`
}

// LogConfig selects the log level and output format ("json" or "console").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig bounds live form sessions.
type SessionConfig struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	Idle            time.Duration `mapstructure:"idle"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"PORT":                  "port",
	"FORMS_SCHEMA_DIR":      "schema_dir",
	"FORMS_LOG_LEVEL":       "log.level",
	"FORMS_LOG_FORMAT":      "log.format",
	"FORMS_SESSION_MAX_AGE": "sessions.max_age",
	"FORMS_SESSION_IDLE":    "sessions.idle",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:              8080,
		SchemaDir:         "./schemas",
		ResolverCacheSize: 1024,
		Log:               LogConfig{Level: "info", Format: "json"},
		Sessions: SessionConfig{
			MaxAge:          24 * time.Hour,
			Idle:            30 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Render: render.DefaultOptions(),
	}
}

// Load reads path (skipped when empty), overlays the environment, and
// decodes the result over Default.
func Load(path string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}
	for env, key := range envKeys {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			raw = formvalue.Set(raw, key, v)
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("creating config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.SchemaDir == "" {
		errs = append(errs, errors.New("schema_dir is empty"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if c.Sessions.MaxAge <= 0 || c.Sessions.Idle <= 0 || c.Sessions.CleanupInterval <= 0 {
		errs = append(errs, errors.New("session durations must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

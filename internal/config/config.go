// Package config handles resolving configuration.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config is the resolved process configuration. Values come from an
// optional YAML file with environment variables taking precedence.
type Config struct {
	// ListenAddr is the host:port the HTTP API binds to.
	ListenAddr string `yaml:"listen_addr"`
	// DatabaseURL selects the relational backend: a postgres:// DSN or a
	// SQLite file path. Empty selects the volatile in-memory backend,
	// a supported fallback, not an error.
	DatabaseURL string `yaml:"database_url"`
	// SessionSecret signs session cookies. When empty an ephemeral secret
	// is generated at startup, invalidating sessions on restart.
	SessionSecret string `yaml:"session_secret"`
	// DiscogsToken authenticates remote metadata lookups. Empty restricts
	// lookups to the local table.
	DiscogsToken string `yaml:"discogs_token"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// DevMode enables request logging, handler debug output and demo data
	// seeding.
	DevMode bool `yaml:"dev_mode"`
}

// Default returns a config with all default values populated.
func Default() *Config {
	return &Config{
		ListenAddr: "localhost:9999",
		LogLevel:   "info",
	}
}

// Load resolves configuration: defaults, then the YAML file at path if one
// exists, then environment overrides. A missing file is not an error; a
// present but malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	switch {
	case os.IsNotExist(err):
		// env-only configuration is fine
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.ListenAddr, "LISTEN_ADDR")
	setFromEnv(&cfg.DatabaseURL, "DATABASE_URL")
	setFromEnv(&cfg.SessionSecret, "SESSION_SECRET")
	setFromEnv(&cfg.DiscogsToken, "DISCOGS_TOKEN")
	setFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	if v, ok := os.LookupEnv("DEV_MODE"); ok {
		cfg.DevMode = v == "1" || v == "true"
	}
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func (c *Config) validate() error {
	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.LogLevel) {
		return fmt.Errorf("config validation failed: log_level must be one of %v, got %q", levels, c.LogLevel)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("config validation failed: listen_addr must not be empty")
	}
	return nil
}

// EnsureSessionSecret returns the configured session-signing secret,
// generating an ephemeral one when none is set. The second return reports
// whether the secret was generated.
func (c *Config) EnsureSessionSecret() ([]byte, bool, error) {
	if c.SessionSecret != "" {
		return []byte(c.SessionSecret), false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, false, err
	}
	return []byte(hex.EncodeToString(buf)), true, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config",
			yaml: `
listen_addr: "0.0.0.0:8080"
database_url: "/var/lib/waxcrate/db.sqlite"
log_level: debug
dev_mode: true
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
				assert.Equal(t, "/var/lib/waxcrate/db.sqlite", cfg.DatabaseURL)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.True(t, cfg.DevMode)
			},
		},
		{
			name: "partial config keeps defaults",
			yaml: `session_secret: "hush"`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost:9999", cfg.ListenAddr)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "hush", cfg.SessionSecret)
				assert.Empty(t, cfg.DatabaseURL)
			},
		},
		{
			name:    "bad log level fails validation",
			yaml:    `log_level: LOUD`,
			wantErr: "config validation failed",
		},
		{
			name:    "empty listen addr fails validation",
			yaml:    `listen_addr: ""`,
			wantErr: "config validation failed",
		},
		{
			name:    "invalid yaml syntax",
			yaml:    `invalid: [yaml: content`,
			wantErr: "failed to unmarshal config file",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeTestConfig(t, test.yaml)
			cfg, err := Load(path)

			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			test.check(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	// A missing config file is fine; the defaults stand.
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeTestConfig(t, `
listen_addr: "localhost:1234"
log_level: info
`)
	t.Setenv("LISTEN_ADDR", "localhost:5678")
	t.Setenv("DATABASE_URL", "postgres://localhost/waxcrate")
	t.Setenv("DISCOGS_TOKEN", "env-token")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5678", cfg.ListenAddr)
	assert.Equal(t, "postgres://localhost/waxcrate", cfg.DatabaseURL)
	assert.Equal(t, "env-token", cfg.DiscogsToken)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnsureSessionSecret(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		cfg := &Config{SessionSecret: "hush"}
		secret, generated, err := cfg.EnsureSessionSecret()
		require.NoError(t, err)
		assert.False(t, generated)
		assert.Equal(t, []byte("hush"), secret)
	})

	t.Run("generated", func(t *testing.T) {
		cfg := &Config{}
		secret, generated, err := cfg.EnsureSessionSecret()
		require.NoError(t, err)
		assert.True(t, generated)
		assert.NotEmpty(t, secret)

		other, _, err := cfg.EnsureSessionSecret()
		require.NoError(t, err)
		assert.NotEqual(t, secret, other)
	})
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ABOUTME: Tests for configuration loading and persistence
// ABOUTME: Covers XDG paths, defaults, env overrides, validation, and sync options
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/innkeep/collection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join(xdg.ConfigHome, "innkeep"), Dir())
	assert.Equal(t, "config.json", filepath.Base(Path()))
	assert.Equal(t, filepath.Join(xdg.DataHome, "innkeep"), DataDir())
}

func TestLoadFrom_NotFound(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err, "missing file should yield defaults")

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "revert", cfg.FailurePolicy)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "innkeep", "config.json")
	original := &Config{
		Backend:       BackendHTTP,
		RemoteURL:     "https://hotel.example.com",
		FailurePolicy: "keep",
		Retries:       2,
		RetryDelay:    "1s",
		LogLevel:      "debug",
		LogFormat:     "json",
		ListenAddr:    ":9090",
		TokenTTL:      "1h",
	}
	require.NoError(t, SaveTo(path, original))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config file should be user-only")

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, original.Backend, loaded.Backend)
	assert.Equal(t, original.RemoteURL, loaded.RemoteURL)
	assert.Equal(t, original.FailurePolicy, loaded.FailurePolicy)
	assert.Equal(t, original.Retries, loaded.Retries)
	assert.Equal(t, original.ListenAddr, loaded.ListenAddr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INNKEEP_BACKEND", "postgres")
	t.Setenv("INNKEEP_POSTGRES_DSN", "postgres://localhost/hotel")
	t.Setenv("INNKEEP_RETRIES", "3")
	t.Setenv("INNKEEP_AUTO_SYNC", "1")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/hotel", cfg.PostgresDSN)
	assert.Equal(t, 3, cfg.Retries)
	assert.True(t, cfg.AutoSync)
}

func TestEnvOverrides_BadRetries(t *testing.T) {
	t.Setenv("INNKEEP_RETRIES", "lots")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "INNKEEP_RETRIES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "mongo" }, "unknown backend"},
		{"postgres without dsn", func(c *Config) { c.Backend = BackendPostgres }, "postgres_dsn"},
		{"http without url", func(c *Config) { c.Backend = BackendHTTP }, "remote_url"},
		{"charm needs nothing", func(c *Config) { c.Backend = BackendCharm }, ""},
		{"bad policy", func(c *Config) { c.FailurePolicy = "ignore" }, "failure policy"},
		{"negative retries", func(c *Config) { c.Retries = -1 }, "retries"},
		{"bad delay", func(c *Config) { c.RetryDelay = "soon" }, "retry_delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSyncOptions(t *testing.T) {
	cfg := Default()
	cfg.FailurePolicy = "keep"
	cfg.Retries = 2
	cfg.RetryDelay = "250ms"

	opts, err := cfg.SyncOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, collection.FailureKeep, opts.Policy)
	assert.Equal(t, 2, opts.Retries)
	assert.Equal(t, 250*time.Millisecond, opts.RetryDelay)
}

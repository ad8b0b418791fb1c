// ABOUTME: Application configuration stored at XDG paths with environment overrides
// ABOUTME: Selects the collection backend, failure policy, logging, and server settings
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/harperreed/innkeep/collection"
	"github.com/joho/godotenv"
)

// Supported collection backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"
	BackendHTTP     = "http"
)

// Config holds every user-tunable setting.
type Config struct {
	Backend     string `json:"backend"`
	DBPath      string `json:"db_path"`
	PostgresDSN string `json:"postgres_dsn,omitempty"`
	RemoteURL   string `json:"remote_url,omitempty"`
	CharmHost   string `json:"charm_host,omitempty"`
	AutoSync    bool   `json:"auto_sync"`

	FailurePolicy string `json:"failure_policy"`
	Retries       int    `json:"retries"`
	RetryDelay    string `json:"retry_delay"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file,omitempty"`

	ListenAddr string `json:"listen_addr"`
	JWTSecret  string `json:"jwt_secret,omitempty"`
	TokenTTL   string `json:"token_ttl"`
}

// Dir returns the XDG config directory for innkeep.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "innkeep")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// DataDir returns the XDG data directory holding databases and tokens.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "innkeep")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend:       BackendSQLite,
		DBPath:        filepath.Join(DataDir(), "innkeep.db"),
		FailurePolicy: "revert",
		Retries:       0,
		RetryDelay:    "500ms",
		LogLevel:      "info",
		LogFormat:     "text",
		ListenAddr:    ":8080",
		TokenTTL:      "12h",
	}
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are not an error.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the config file and applies environment overrides:
// - INNKEEP_BACKEND
// - INNKEEP_DB_PATH
// - INNKEEP_POSTGRES_DSN
// - INNKEEP_REMOTE_URL
// - INNKEEP_CHARM_HOST
// - INNKEEP_AUTO_SYNC
// - INNKEEP_FAILURE_POLICY
// - INNKEEP_RETRIES
// - INNKEEP_RETRY_DELAY
// - INNKEEP_LOG_LEVEL
// - INNKEEP_LOG_FORMAT
// - INNKEEP_LOG_FILE
// - INNKEEP_LISTEN_ADDR
// - INNKEEP_JWT_SECRET
// - INNKEEP_TOKEN_TTL.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"INNKEEP_BACKEND":        &cfg.Backend,
		"INNKEEP_DB_PATH":        &cfg.DBPath,
		"INNKEEP_POSTGRES_DSN":   &cfg.PostgresDSN,
		"INNKEEP_REMOTE_URL":     &cfg.RemoteURL,
		"INNKEEP_CHARM_HOST":     &cfg.CharmHost,
		"INNKEEP_FAILURE_POLICY": &cfg.FailurePolicy,
		"INNKEEP_RETRY_DELAY":    &cfg.RetryDelay,
		"INNKEEP_LOG_LEVEL":      &cfg.LogLevel,
		"INNKEEP_LOG_FORMAT":     &cfg.LogFormat,
		"INNKEEP_LOG_FILE":       &cfg.LogFile,
		"INNKEEP_LISTEN_ADDR":    &cfg.ListenAddr,
		"INNKEEP_JWT_SECRET":     &cfg.JWTSecret,
		"INNKEEP_TOKEN_TTL":      &cfg.TokenTTL,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("INNKEEP_AUTO_SYNC"); v != "" {
		cfg.AutoSync = v == "true" || v == "1"
	}
	if v := os.Getenv("INNKEEP_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INNKEEP_RETRIES %q: %w", v, err)
		}
		cfg.Retries = n
	}
	return nil
}

// Save writes the config file with user-only permissions.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo is Save with an explicit file path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite backend requires db_path")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres backend requires postgres_dsn")
		}
	case BackendHTTP:
		if c.RemoteURL == "" {
			return errors.New("http backend requires remote_url")
		}
	case BackendCharm:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, postgres, charm, or http)", c.Backend)
	}
	if _, err := collection.ParseFailurePolicy(c.FailurePolicy); err != nil {
		return err
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if _, err := c.RetryInterval(); err != nil {
		return err
	}
	if _, err := c.TokenLifetime(); err != nil {
		return err
	}
	return nil
}

// RetryInterval parses RetryDelay. Empty means no delay.
func (c *Config) RetryInterval() (time.Duration, error) {
	return parseDuration("retry_delay", c.RetryDelay)
}

// TokenLifetime parses TokenTTL. Empty means twelve hours.
func (c *Config) TokenLifetime() (time.Duration, error) {
	if c.TokenTTL == "" {
		return 12 * time.Hour, nil
	}
	return parseDuration("token_ttl", c.TokenTTL)
}

func parseDuration(key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// SyncOptions builds the collection options described by the config.
func (c *Config) SyncOptions(logger *log.Logger) (collection.Options, error) {
	policy, err := collection.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return collection.Options{}, err
	}
	delay, err := c.RetryInterval()
	if err != nil {
		return collection.Options{}, err
	}
	return collection.Options{
		Policy:     policy,
		Retries:    c.Retries,
		RetryDelay: delay,
		Logger:     logger,
	}, nil
}

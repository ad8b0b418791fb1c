// ABOUTME: Opens the configured collection backend and the session guarding it
// ABOUTME: SQLite, Postgres, and Charm authenticate locally; the http backend authenticates remotely
package cli

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/charm"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/config"
	"github.com/harperreed/innkeep/db"
	"github.com/harperreed/innkeep/remote"
)

// Backend bundles the store selected by the config with what the commands
// need around it. Only the fields matching the backend are set.
type Backend struct {
	Kind          string
	Store         collection.Store
	Authenticator auth.Authenticator

	// Local backends
	Directory *auth.FileDirectory
	Secret    string

	Records *db.RecordStore
	Charm   *charm.Client
	Remote  *remote.Client

	closers []func() error
}

// MembersPath returns the local member directory file.
func MembersPath() string {
	return filepath.Join(config.DataDir(), "members.json")
}

// OpenBackend opens the store named by cfg.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{Kind: strings.ToLower(cfg.Backend)}
	switch b.Kind {
	case config.BackendSQLite:
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.useRecords(database, db.SQLite, logger)
	case config.BackendPostgres:
		database, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.useRecords(database, db.Postgres, logger)
	case config.BackendCharm:
		client, err := charm.NewClient(&charm.Config{Host: cfg.CharmHost, AutoSync: cfg.AutoSync})
		if err != nil {
			return nil, err
		}
		b.Charm = client
		b.Store = charm.NewStore(client)
		b.closers = append(b.closers, client.Close)
	case config.BackendHTTP:
		client := remote.New(cfg.RemoteURL, 0, nil)
		b.Remote = client
		b.Store = client
		b.Authenticator = client
		return b, nil
	}

	ttl, err := cfg.TokenLifetime()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	secret, err := LocalSecret(cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Secret = secret
	b.Directory = auth.NewFileDirectory(MembersPath())
	b.Authenticator = &auth.LocalAuthenticator{
		Directory: b.Directory,
		Issuer:    auth.NewIssuer(secret, ttl),
	}
	return b, nil
}

func (b *Backend) useRecords(database *sql.DB, dialect db.Dialect, logger *log.Logger) {
	store := db.NewRecordStore(database, dialect)
	if logger != nil {
		store.SetLogger(logger.With("store", dialect.String()))
	}
	b.Records = store
	b.Store = store
	b.closers = append(b.closers, store.Close)
}

// NewSession restores the saved session for this backend. Remote requests
// carry its token.
func (b *Backend) NewSession() (*auth.Session, error) {
	session := auth.NewSession(b.Authenticator, auth.NewTokenFile(auth.DefaultTokenPath()))
	if err := session.Restore(); err != nil {
		return nil, err
	}
	if b.Remote != nil {
		b.Remote.SetTokenSource(session)
	}
	return session, nil
}

// Close releases every resource the backend opened.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// LocalSecret returns the token signing secret: the configured one, or a
// random secret generated once and kept in the data directory.
func LocalSecret(cfg *config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}

	path := filepath.Join(config.DataDir(), "jwt.secret")
	data, err := os.ReadFile(path)
	if err == nil && len(strings.TrimSpace(string(data))) > 0 {
		return strings.TrimSpace(string(data)), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write secret: %w", err)
	}
	return secret, nil
}

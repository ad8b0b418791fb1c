// ABOUTME: Explicit session capability passed to screens and commands
// ABOUTME: Tracks the signed-in member, the loading flag, and the persisted token
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAuthenticated is returned by operations that need a signed-in member.
var ErrNotAuthenticated = errors.New("not signed in")

// Authenticator exchanges credentials for a signed token.
type Authenticator interface {
	Login(ctx context.Context, nickname, passcode string) (string, Member, error)
}

// LocalAuthenticator checks credentials against a directory and signs the
// token itself. Used by the server and by local backends.
type LocalAuthenticator struct {
	Directory Directory
	Issuer    *Issuer
}

func (a *LocalAuthenticator) Login(ctx context.Context, nickname, passcode string) (string, Member, error) {
	member, err := a.Directory.Authenticate(ctx, nickname, passcode)
	if err != nil {
		return "", Member{}, err
	}
	token, _, err := a.Issuer.Issue(member)
	if err != nil {
		return "", Member{}, err
	}
	return token, member, nil
}

// DefaultTokenPath returns where the session token is stored.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, "innkeep", "session.json")
}

// TokenFile persists a session between runs.
type TokenFile struct {
	path string
}

type savedSession struct {
	Token  string `json:"token"`
	Member Member `json:"member"`
}

// NewTokenFile stores sessions at path.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Load returns the saved session. ok is false when nothing is saved.
func (f *TokenFile) Load() (token string, member Member, ok bool, err error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", Member{}, false, nil
	}
	if err != nil {
		return "", Member{}, false, fmt.Errorf("failed to read session: %w", err)
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return "", Member{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	if saved.Token == "" {
		return "", Member{}, false, nil
	}
	return saved.Token, saved.Member, true, nil
}

// Save writes the session with user-only permissions.
func (f *TokenFile) Save(token string, member Member) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(savedSession{Token: token, Member: member}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// Clear removes the saved session.
func (f *TokenFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Session is the authentication capability handed to every screen. It is
// safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	auth    Authenticator
	file    *TokenFile
	member  *Member
	token   string
	loading bool
	now     func() time.Time
}

// NewSession creates a signed-out session. file may be nil to keep the
// session in memory only.
func NewSession(auth Authenticator, file *TokenFile) *Session {
	return &Session{auth: auth, file: file, now: time.Now}
}

// Restore loads a previously saved session, discarding expired tokens.
func (s *Session) Restore() error {
	if s.file == nil {
		return nil
	}
	s.setLoading(true)
	defer s.setLoading(false)

	token, member, ok, err := s.file.Load()
	if err != nil || !ok {
		return err
	}
	if expired(token, s.now()) {
		return s.file.Clear()
	}

	s.mu.Lock()
	s.token = token
	s.member = &member
	s.mu.Unlock()
	return nil
}

// expired reads the exp claim without verifying the signature. The server
// verifies; the client only avoids sending tokens it knows are dead.
func expired(token string, now time.Time) bool {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(now)
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// CurrentMember returns the signed-in member.
func (s *Session) CurrentMember() (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.member == nil {
		return Member{}, false
	}
	return *s.member, true
}

// IsAuthenticated reports whether a member is signed in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.member != nil && s.token != ""
}

// IsLoading reports whether a login or restore is in progress.
func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token returns the bearer token of the current session.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login authenticates and persists the session.
func (s *Session) Login(ctx context.Context, nickname, passcode string) error {
	if s.auth == nil {
		return errors.New("no authenticator configured")
	}
	s.setLoading(true)
	defer s.setLoading(false)

	token, member, err := s.auth.Login(ctx, nickname, passcode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.member = &member
	s.mu.Unlock()

	if s.file != nil {
		if err := s.file.Save(token, member); err != nil {
			return err
		}
	}
	return nil
}

// Logout clears the session in memory and on disk.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.member = nil
	s.mu.Unlock()

	if s.file != nil {
		return s.file.Clear()
	}
	return nil
}

// Require returns ErrNotAuthenticated when nobody is signed in.
func (s *Session) Require() error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

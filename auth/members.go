// ABOUTME: Staff member directory with bcrypt-hashed passcodes
// ABOUTME: Persists members as JSON at the XDG data dir with user-only permissions
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("invalid nickname or passcode")
	ErrMemberExists   = errors.New("member already exists")
)

// Member is a signed-in staff member.
type Member struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type memberEntry struct {
	Member
	PasscodeHash string `json:"passcode_hash"`
}

// Directory authenticates staff members.
type Directory interface {
	Authenticate(ctx context.Context, nickname, passcode string) (Member, error)
}

// FileDirectory is a Directory stored in a JSON file.
type FileDirectory struct {
	path string
	mu   sync.Mutex
}

// NewFileDirectory opens the directory at path. The file is created on the
// first Add.
func NewFileDirectory(path string) *FileDirectory {
	return &FileDirectory{path: path}
}

// Path returns the backing file.
func (d *FileDirectory) Path() string {
	return d.path
}

func normalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

func (d *FileDirectory) load() (map[string]memberEntry, error) {
	entries := map[string]memberEntry{}
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	var list []memberEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	for _, e := range list {
		entries[normalizeNickname(e.Nickname)] = e
	}
	return entries, nil
}

func (d *FileDirectory) save(entries map[string]memberEntry) error {
	list := make([]memberEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Nickname < list[j].Nickname })

	if err := os.MkdirAll(filepath.Dir(d.path), 0700); err != nil {
		return fmt.Errorf("failed to create members directory: %w", err)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, data, 0600)
}

// Add registers a member with a passcode.
func (d *FileDirectory) Add(nickname, passcode string) (Member, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return Member{}, errors.New("nickname is required")
	}
	if len(passcode) < 4 {
		return Member{}, errors.New("passcode must be at least 4 characters")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.load()
	if err != nil {
		return Member{}, err
	}
	key := normalizeNickname(nickname)
	if _, ok := entries[key]; ok {
		return Member{}, fmt.Errorf("%s: %w", nickname, ErrMemberExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, fmt.Errorf("failed to hash passcode: %w", err)
	}
	member := Member{ID: uuid.NewString(), Nickname: nickname}
	entries[key] = memberEntry{Member: member, PasscodeHash: string(hash)}
	if err := d.save(entries); err != nil {
		return Member{}, err
	}
	return member, nil
}

// Remove deletes a member. Removing an unknown nickname is not an error.
func (d *FileDirectory) Remove(nickname string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.load()
	if err != nil {
		return err
	}
	delete(entries, normalizeNickname(nickname))
	return d.save(entries)
}

// List returns members sorted by nickname.
func (d *FileDirectory) List() ([]Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.load()
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out, nil
}

// Authenticate checks a nickname and passcode.
func (d *FileDirectory) Authenticate(ctx context.Context, nickname, passcode string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}

	d.mu.Lock()
	entries, err := d.load()
	d.mu.Unlock()
	if err != nil {
		return Member{}, err
	}

	e, ok := entries[normalizeNickname(nickname)]
	if !ok {
		return Member{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(e.PasscodeHash), []byte(passcode)) != nil {
		return Member{}, ErrBadCredentials
	}
	return e.Member, nil
}

// ABOUTME: Tests for the TUI model driven by synthetic key presses
// ABOUTME: Covers sign-in, loading, optimistic create, failure banners, retry, and delete
package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, nickname, passcode string) (string, auth.Member, error) {
	if nickname != "frontdesk" || passcode != "1234" {
		return "", auth.Member{}, auth.ErrBadCredentials
	}
	return "token", auth.Member{ID: "m1", Nickname: nickname}, nil
}

// flakyStore fails creates while failing is set.
type flakyStore struct {
	*collection.MemoryStore

	mu      sync.Mutex
	failing bool
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

func (s *flakyStore) Create(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	if failing {
		return models.Record{}, errors.New("service unavailable")
	}
	return s.MemoryStore.Create(ctx, name, rec)
}

var jan1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, store collection.Store, signedIn bool) Model {
	t.Helper()
	ctx := context.Background()
	session := auth.NewSession(fakeAuth{}, nil)
	if signedIn {
		require.NoError(t, session.Login(ctx, "frontdesk", "1234"))
	}
	m := NewModel(ctx, store, session, collection.Options{Policy: collection.FailureRevert})
	m.now = func() time.Time { return jan1 }
	n := 0
	m.newID = func() string {
		n++
		return "new-" + string(rune('0'+n))
	}
	return m
}

func seedRoom(t *testing.T, store collection.Store, id, name string) {
	t.Helper()
	rec := models.Room{
		ID:           id,
		Name:         name,
		Price:        decimal.NewFromInt(180),
		Description:  "Sea view",
		RoomType:     "Suite",
		MaxOccupancy: 2,
		Status:       models.RoomAvailable,
	}.ToRecord()
	_, err := store.Create(context.Background(), models.CollectionRooms, rec)
	require.NoError(t, err)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends one key and returns the command it produced without running it.
func press(m Model, s string) (Model, tea.Cmd) {
	next, cmd := m.Update(key(s))
	return next.(Model), cmd
}

// typeText sends each rune as its own key press, dropping cursor commands.
func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = press(m, string(r))
	}
	return m
}

// settle runs cmd and feeds back every message the model's own commands
// produce, until no further work is queued.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case loadedMsg, committedMsg, countsMsg, loginResultMsg:
			next, follow := m.Update(msg)
			m = next.(Model)
			queue = append(queue, follow)
		}
	}
	return m
}

func TestLoginGatesScreens(t *testing.T) {
	m := newTestModel(t, collection.NewMemoryStore(), false)

	assert.Contains(t, m.View(), "Sign in to manage the hotel")

	m = typeText(m, "frontdesk")
	m, _ = press(m, "enter")
	m = typeText(m, "0000")
	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.login.submitting)

	m = settle(t, m, cmd)
	assert.False(t, m.session.IsAuthenticated())
	assert.Contains(t, m.View(), "Nickname or passcode is incorrect")

	// q types into the form instead of quitting
	m, _ = press(m, "q")
	assert.Equal(t, "0000q", m.login.inputs[1].Value())
}

func TestLoginThenDashboard(t *testing.T) {
	store := collection.NewMemoryStore()
	seedRoom(t, store, "r1", "Ocean 101")
	m := newTestModel(t, store, false)

	m = typeText(m, "frontdesk")
	m, _ = press(m, "tab")
	m = typeText(m, "1234")
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)

	require.True(t, m.session.IsAuthenticated())
	assert.Nil(t, m.dashboard.err)
	assert.Equal(t, 1, m.dashboard.counts[models.CollectionRooms])

	view := m.View()
	assert.Contains(t, view, "signed in as frontdesk")
	assert.Contains(t, view, "Hotel Dashboard")
	assert.Contains(t, view, "Not loaded yet")
}

func TestScreenLoadsOnFirstVisit(t *testing.T) {
	store := collection.NewMemoryStore()
	seedRoom(t, store, "r1", "Ocean 101")
	m := newTestModel(t, store, true)

	m, cmd := press(m, "tab")
	require.Equal(t, 1, m.active)
	m = settle(t, m, cmd)

	screen := m.current()
	state, _ := screen.sync.LoadState()
	assert.Equal(t, collection.Loaded, state)
	assert.Contains(t, m.View(), "Ocean 101")

	// Returning to the tab does not reload
	m, _ = press(m, "shift+tab")
	require.Equal(t, 0, m.active)
	m, cmd = press(m, "tab")
	assert.Equal(t, 1, m.active)
	assert.Nil(t, cmd)
}

func TestEmptyCollectionState(t *testing.T) {
	m := newTestModel(t, collection.NewMemoryStore(), true)

	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	assert.Contains(t, m.View(), "No rooms yet. Press n to add one.")
}

func fillRoomForm(m Model) Model {
	// itemName, itemPrice, maxOccupancy, roomType, roomStatus, itemDescription
	m = typeText(m, "Garden 7")
	m, _ = press(m, "tab")
	m = typeText(m, "120")
	m, _ = press(m, "tab")
	m = typeText(m, "3")
	m, _ = press(m, "tab")
	m = typeText(m, "Double")
	m, _ = press(m, "tab")
	m, _ = press(m, "tab")
	m = typeText(m, "Quiet courtyard")
	return m
}

func TestCreateRoomOptimistically(t *testing.T) {
	store := collection.NewMemoryStore()
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	m, _ = press(m, "n")
	require.Equal(t, ViewEdit, m.current().mode)
	m = fillRoomForm(m)

	m, cmd = press(m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, ViewList, m.current().mode)

	// Visible before the store has answered
	entry, ok := m.current().sync.Get("new-1")
	require.True(t, ok)
	assert.Equal(t, collection.StatusPending, entry.Status)
	assert.Contains(t, m.View(), "Garden 7")

	m = settle(t, m, cmd)
	entry, _ = m.current().sync.Get("new-1")
	assert.Equal(t, collection.StatusCommitted, entry.Status)
	assert.Equal(t, 1, m.dashboard.counts[models.CollectionRooms])
	assert.Contains(t, m.dashboard.activity[len(m.dashboard.activity)-1], "create room new-1")

	res, err := store.GetAll(context.Background(), models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
}

func TestFormValidationStaysOnForm(t *testing.T) {
	store := collection.NewMemoryStore()
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	m, _ = press(m, "n")
	m, cmd = press(m, "enter")

	assert.Nil(t, cmd)
	assert.Equal(t, ViewEdit, m.current().mode)
	require.Error(t, m.current().formErr)
	assert.Contains(t, m.View(), "Room Name is required")
	assert.Equal(t, 0, m.current().sync.Len())
}

func TestFailedCreateRevertsAndRetries(t *testing.T) {
	store := &flakyStore{MemoryStore: collection.NewMemoryStore()}
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	store.setFailing(true)
	m, _ = press(m, "n")
	m = fillRoomForm(m)
	m, cmd = press(m, "enter")
	m = settle(t, m, cmd)

	screen := m.current()
	assert.Equal(t, 0, screen.sync.Len())
	require.NotNil(t, screen.failure)
	view := m.View()
	assert.Contains(t, view, "Could not create room new-1 (change undone)")
	assert.Contains(t, view, "Press r to retry")

	store.setFailing(false)
	m, cmd = press(m, "r")
	assert.Nil(t, m.current().failure)

	// A second r while the retry is out reloads instead of committing again.
	m, again := press(m, "r")
	require.NotNil(t, again)
	assert.IsType(t, loadedMsg{}, again())

	m = settle(t, m, cmd)

	screen = m.current()
	assert.Nil(t, screen.failure)
	assert.Empty(t, screen.banner)
	entry, ok := screen.sync.Get("new-1")
	require.True(t, ok)
	assert.Equal(t, collection.StatusCommitted, entry.Status)
}

func TestDeleteWithConfirmation(t *testing.T) {
	store := collection.NewMemoryStore()
	seedRoom(t, store, "r1", "Ocean 101")
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	m, _ = press(m, "d")
	require.Equal(t, ViewConfirmDelete, m.current().mode)
	assert.Contains(t, m.View(), "Are you sure you want to delete this room?")

	m, _ = press(m, "n")
	assert.Equal(t, ViewList, m.current().mode)
	assert.Equal(t, 1, m.current().sync.Len())

	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	assert.Equal(t, 0, m.current().sync.Len())
	m = settle(t, m, cmd)

	res, err := store.GetAll(context.Background(), models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
	assert.Equal(t, 0, m.dashboard.counts[models.CollectionRooms])
}

func TestEditPrefillsForm(t *testing.T) {
	store := collection.NewMemoryStore()
	seedRoom(t, store, "r1", "Ocean 101")
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)

	m, _ = press(m, "enter")
	require.Equal(t, ViewDetail, m.current().mode)
	assert.Contains(t, m.View(), "Ocean 101")

	m, _ = press(m, "e")
	require.Equal(t, ViewEdit, m.current().mode)
	assert.Equal(t, "Ocean 101", m.current().formInputs[0].Value())

	m, _ = press(m, "esc")
	assert.Equal(t, ViewList, m.current().mode)
}

func TestLogoutDropsMirrors(t *testing.T) {
	store := collection.NewMemoryStore()
	seedRoom(t, store, "r1", "Ocean 101")
	m := newTestModel(t, store, true)
	m, cmd := press(m, "tab")
	m = settle(t, m, cmd)
	require.Equal(t, 1, m.current().sync.Len())

	m, _ = press(m, "L")
	assert.False(t, m.session.IsAuthenticated())
	assert.Equal(t, 0, m.current().sync.Len())
	assert.Contains(t, m.View(), "Sign in to manage rooms")
}

func TestFormatTimeSince(t *testing.T) {
	now := jan1
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"one day", now.Add(-24 * time.Hour), "1 day ago"},
		{"days", now.Add(-72 * time.Hour), "3 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimeSince(tt.t, now))
		})
	}
}

// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Root model with tabs for the dashboard and one generic screen per hotel collection
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/schema"
)

// ViewMode represents the current view of a collection screen
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDelete
)

// Messages produced by commands.
type (
	loadedMsg struct {
		collection string
		err        error
	}
	committedMsg struct {
		collection string
		mutation   *collection.Mutation
		err        error
	}
	countsMsg struct {
		counts map[string]int
		err    error
	}
	loginResultMsg struct {
		err error
	}
)

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	store   collection.Store
	session *auth.Session
	opts    collection.Options

	screens []*collectionScreen
	active  int // 0 is the dashboard, i+1 is screens[i]

	dashboard dashboardState
	login     loginForm
	spinner   spinner.Model

	width  int
	height int

	now   func() time.Time
	newID func() string
}

// NewModel creates a new TUI model. Every screen gets its own mirror of the
// store; session gates all of them.
func NewModel(ctx context.Context, store collection.Store, session *auth.Session, opts collection.Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := Model{
		ctx:     ctx,
		store:   store,
		session: session,
		opts:    opts,
		login:   newLoginForm(),
		spinner: sp,
		width:   100,
		height:  30,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	m.buildScreens()
	return m
}

// buildScreens gives every collection a fresh, unloaded mirror.
func (m *Model) buildScreens() {
	m.screens = m.screens[:0]
	for _, s := range schema.All() {
		screen := newCollectionScreen(s, collection.New(m.store, s.Collection, m.opts))
		screen.resize(m.height)
		m.screens = append(m.screens, screen)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.activate())
}

// activate loads whatever the active tab shows, once signed in.
func (m *Model) activate() tea.Cmd {
	if !m.session.IsAuthenticated() {
		return nil
	}
	if m.active == 0 {
		m.dashboard.loading = true
		return countsCmd(m.ctx, m.store)
	}
	screen := m.screens[m.active-1]
	if state, _ := screen.sync.LoadState(); state == collection.LoadIdle {
		return screen.load(m.ctx)
	}
	return nil
}

func (m Model) current() *collectionScreen {
	if m.active == 0 {
		return nil
	}
	return m.screens[m.active-1]
}

func (m Model) screenFor(name string) *collectionScreen {
	for _, s := range m.screens {
		if s.schema.Collection == name {
			return s
		}
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, s := range m.screens {
			s.resize(m.height)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		if s := m.screenFor(msg.collection); s != nil {
			s.handleLoaded(msg.err)
		}
		return m, nil
	case committedMsg:
		s := m.screenFor(msg.collection)
		if s != nil {
			s.handleCommitted(msg.mutation, msg.err)
		}
		m.recordActivity(s, msg)
		if msg.err == nil {
			m.dashboard.loading = true
			return m, countsCmd(m.ctx, m.store)
		}
		return m, nil
	case countsMsg:
		m.dashboard.handleCounts(msg.counts, msg.err, m.now())
		return m, nil
	case loginResultMsg:
		m.login.submitting = false
		if msg.err != nil {
			m.login.err = msg.err
			return m, nil
		}
		m.login.reset()
		return m, m.activate()
	}
	return m, nil
}

func (m *Model) recordActivity(s *collectionScreen, msg committedMsg) {
	if s == nil || msg.mutation == nil {
		return
	}
	what := fmt.Sprintf("%s %s %s", msg.mutation.Op, s.schema.Singular, msg.mutation.ID)
	if msg.err != nil {
		m.dashboard.addActivity(m.now(), "✗ "+what+" failed")
		return
	}
	m.dashboard.addActivity(m.now(), "✓ "+what)
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("INNKEEP"))
	if member, ok := m.session.CurrentMember(); ok {
		s.WriteString(helpStyle.Render("  signed in as " + member.Nickname))
	}
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if !m.session.IsAuthenticated() {
		s.WriteString(m.renderLoginView())
		return s.String()
	}

	if m.active == 0 {
		s.WriteString(m.renderDashboardView())
		return s.String()
	}

	screen := m.current()
	switch screen.mode {
	case ViewList:
		s.WriteString(screen.renderListView(m.spinner.View()))
	case ViewDetail:
		s.WriteString(screen.renderDetailView())
	case ViewEdit:
		s.WriteString(screen.renderEditView())
	case ViewConfirmDelete:
		return screen.renderConfirmDeleteView(m.width, m.height)
	}
	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Dashboard"}
	for _, s := range m.screens {
		tabs = append(tabs, s.schema.Title)
	}

	var rendered []string
	for i, tab := range tabs {
		if i == m.active {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// typing reports whether keystrokes belong to a text input.
func (m Model) typing() bool {
	if !m.session.IsAuthenticated() {
		return true
	}
	if s := m.current(); s != nil {
		return s.mode == ViewEdit
	}
	return false
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}

	if !m.session.IsAuthenticated() {
		return m.handleLoginKeys(msg)
	}

	screen := m.current()
	if screen == nil || screen.mode == ViewList {
		switch msg.String() {
		case "tab":
			m.active = (m.active + 1) % (len(m.screens) + 1)
			return m, m.activate()
		case "shift+tab":
			m.active = (m.active + len(m.screens)) % (len(m.screens) + 1)
			return m, m.activate()
		case "L":
			if err := m.session.Logout(); err != nil {
				m.login.err = err
			}
			m.screens = nil
			m.buildScreens()
			m.dashboard = dashboardState{}
			return m, nil
		}
	}

	if screen == nil {
		return m.handleDashboardKeys(msg)
	}

	// Delegate to view-specific handlers
	var cmd tea.Cmd
	switch screen.mode {
	case ViewList:
		cmd = screen.handleListKeys(m.ctx, msg)
	case ViewDetail:
		cmd = screen.handleDetailKeys(msg)
	case ViewEdit:
		cmd = screen.handleEditKeys(m.ctx, msg, m.now(), m.newID)
	case ViewConfirmDelete:
		cmd = screen.handleConfirmDeleteKeys(m.ctx, msg)
	}
	return m, cmd
}

func loadCmd(ctx context.Context, sync *collection.Sync) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{collection: sync.Name(), err: sync.Load(ctx)}
	}
}

func commitCmd(ctx context.Context, sync *collection.Sync, mut *collection.Mutation) tea.Cmd {
	return func() tea.Msg {
		return committedMsg{collection: sync.Name(), mutation: mut, err: sync.Commit(ctx, mut)}
	}
}

func retryCmd(ctx context.Context, sync *collection.Sync, mut *collection.Mutation) tea.Cmd {
	return func() tea.Msg {
		return committedMsg{collection: sync.Name(), mutation: mut, err: sync.Retry(ctx, mut)}
	}
}

func countsCmd(ctx context.Context, store collection.Store) tea.Cmd {
	return func() tea.Msg {
		names := make([]string, 0, len(schema.All()))
		for _, s := range schema.All() {
			names = append(names, s.Collection)
		}
		counts, err := collection.Summarize(ctx, store, names...)
		return countsMsg{counts: counts, err: err}
	}
}

// Run starts the full-screen program.
func Run(ctx context.Context, store collection.Store, session *auth.Session, opts collection.Options) error {
	p := tea.NewProgram(NewModel(ctx, store, session, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

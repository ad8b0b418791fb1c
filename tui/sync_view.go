// ABOUTME: TUI dashboard showing record counts and per-collection sync status
// ABOUTME: Lists each mirror's load state and a short log of recent writes
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/innkeep/collection"
)

var (
	syncTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(24)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(22).
			Align(lipgloss.Center)

	cardCountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
)

const maxActivity = 5

// dashboardState holds the counts shown on the first tab.
type dashboardState struct {
	loading  bool
	counts   map[string]int
	err      error
	updated  time.Time
	selected int
	activity []string
}

func (d *dashboardState) handleCounts(counts map[string]int, err error, now time.Time) {
	d.loading = false
	if err != nil {
		d.err = err
		return
	}
	d.err = nil
	d.counts = counts
	d.updated = now
}

// addActivity appends a timestamped line to the activity log.
func (d *dashboardState) addActivity(now time.Time, msg string) {
	d.activity = append(d.activity, fmt.Sprintf("[%s] %s", now.Format("15:04:05"), msg))
	if len(d.activity) > maxActivity {
		d.activity = d.activity[len(d.activity)-maxActivity:]
	}
}

func (m Model) renderDashboardView() string {
	var s strings.Builder
	d := m.dashboard

	s.WriteString(syncTitleStyle.Render("Hotel Dashboard"))
	s.WriteString("\n\n")

	switch {
	case d.loading && d.counts == nil:
		s.WriteString(m.spinner.View() + " Loading counts…\n")
	case d.err != nil:
		s.WriteString(errorStyle.Render("✗ Could not load counts: " + d.err.Error()))
		s.WriteString("\n")
		s.WriteString(messageStyle.Render("Press r to retry"))
		s.WriteString("\n")
	}

	if d.counts != nil {
		var cards []string
		for _, screen := range m.screens {
			body := lipgloss.JoinVertical(lipgloss.Center,
				cardCountStyle.Render(fmt.Sprintf("%d", d.counts[screen.schema.Collection])),
				screen.schema.Title,
			)
			cards = append(cards, cardStyle.Render(body))
		}
		for i := 0; i < len(cards); i += 4 {
			end := min(i+4, len(cards))
			s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
			s.WriteString("\n")
		}
		if !d.updated.IsZero() {
			s.WriteString(syncMessageStyle.Render("Updated " + formatTimeSince(d.updated, m.now())))
			s.WriteString("\n")
		}
	}
	s.WriteString("\n")

	// Mirror status table
	s.WriteString(syncHeaderStyle.Render("Collections"))
	s.WriteString("\n\n")
	for i, screen := range m.screens {
		var row strings.Builder

		if i == d.selected {
			row.WriteString("▶ ")
			row.WriteString(syncSelectedStyle.Render(syncServiceStyle.Render(screen.schema.Title)))
		} else {
			row.WriteString("  ")
			row.WriteString(syncServiceStyle.Render(screen.schema.Title))
		}
		row.WriteString(mirrorStatus(screen))

		s.WriteString(row.String())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(d.activity) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		for _, line := range d.activity {
			s.WriteString(syncMessageStyle.Render("  " + line))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderDashboardHelp())
	return s.String()
}

func mirrorStatus(screen *collectionScreen) string {
	state, err := screen.sync.LoadState()
	var out string
	switch state {
	case collection.LoadIdle:
		out = syncMessageStyle.Render("  Not loaded yet")
	case collection.Loading:
		out = syncSyncingStyle.Render("  ⟳ Loading...")
	case collection.LoadErrored:
		out = syncErrorStyle.Render(fmt.Sprintf("  ✗ Error: %v", err))
	default:
		out = syncIdleStyle.Render(fmt.Sprintf("  ✓ %d loaded", screen.sync.Len()))
	}
	if failures := len(screen.sync.Failures()); failures > 0 {
		out += syncErrorStyle.Render(fmt.Sprintf(" • %d unsaved", failures))
	}
	if submit, _ := screen.sync.SubmitState(); submit == collection.Submitting {
		out += syncSyncingStyle.Render(" • saving")
	}
	return out
}

func (m Model) renderDashboardHelp() string {
	help := []string{
		"↑/↓: Select collection",
		"Enter: Open",
		"r: Refresh counts",
		"Tab: Switch tabs",
		"L: Sign out",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.dashboard.selected > 0 {
			m.dashboard.selected--
		}
	case "down", "j":
		if m.dashboard.selected < len(m.screens)-1 {
			m.dashboard.selected++
		}
	case "enter":
		m.active = m.dashboard.selected + 1
		return m, m.activate()
	case "r":
		return m, m.activate()
	}
	return m, nil
}

// formatTimeSince formats the time elapsed since t in a human-readable way.
func formatTimeSince(t, now time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

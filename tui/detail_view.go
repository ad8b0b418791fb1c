// ABOUTME: Detail view for a single record
// ABOUTME: Shows the schema summary lines plus the record's sync status
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/innkeep/collection"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(24)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (c *collectionScreen) renderDetailView() string {
	var s strings.Builder

	entry, ok := c.sync.Get(c.selectedID)
	if !ok {
		s.WriteString(messageStyle.Render("This " + c.schema.Singular + " is no longer in the list."))
		s.WriteString("\n")
		s.WriteString(c.renderDetailHelp())
		return s.String()
	}

	title, lines := c.schema.Summary(entry.Record)
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	for _, line := range lines {
		s.WriteString(fieldLabelStyle.Render(line.Label + ":"))
		s.WriteString(fieldValueStyle.Render(line.Value))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	switch entry.Status {
	case collection.StatusPending:
		s.WriteString(pendingStyle.Render("… saving"))
	case collection.StatusFailed:
		s.WriteString(errorStyle.Render("✗ not saved: " + entry.Err.Error()))
	default:
		if entry.Record.UpdatedAt != nil {
			s.WriteString(messageStyle.Render("Last updated " + entry.Record.UpdatedAt.Local().Format("Jan 2, 2006 15:04")))
		}
	}
	s.WriteString("\n")

	s.WriteString(c.renderDetailHelp())
	return s.String()
}

func (c *collectionScreen) renderDetailHelp() string {
	help := []string{
		"e: Edit",
		"d: Delete",
		"Esc: Back",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (c *collectionScreen) handleDetailKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace":
		c.mode = ViewList
	case "e":
		c.openForm(c.selectedID)
	case "d":
		c.mode = ViewConfirmDelete
	}
	return nil
}

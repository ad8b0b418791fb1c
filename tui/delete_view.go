// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms, then removes the record from the mirror at once and deletes it remotely
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (c *collectionScreen) renderConfirmDeleteView(width, height int) string {
	name := c.selectedID
	if entry, ok := c.sync.Get(c.selectedID); ok {
		name, _ = c.schema.Summary(entry.Record)
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", c.schema.Singular)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(c.schema.Singular), name)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, confirmBoxStyle.Render(content))
}

func (c *collectionScreen) handleConfirmDeleteKeys(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		mut := c.sync.StageDelete(c.selectedID)
		c.selectedID = ""
		c.mode = ViewList
		c.refreshRows()
		return commitCmd(ctx, c.sync, mut)
	case "n", "N", "esc":
		c.mode = ViewList
	}
	return nil
}

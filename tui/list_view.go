// ABOUTME: Generic collection screen and its list view
// ABOUTME: Renders the mirror as a table with pending/failed markers, loading, empty, and error states
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/schema"
)

const columnWidth = 18

// collectionScreen is one screen parameterized by a schema.
type collectionScreen struct {
	schema *schema.Schema
	sync   *collection.Sync
	table  table.Model
	ids    []string
	mode   ViewMode

	selectedID string

	// Edit view state
	editingID  string
	formInputs []textinput.Model
	focusIndex int
	formErr    error

	banner  string
	failure *collection.Mutation
}

func newCollectionScreen(s *schema.Schema, sync *collection.Sync) *collectionScreen {
	columns := []table.Column{{Title: "", Width: 2}}
	for _, label := range s.ColumnLabels() {
		columns = append(columns, table.Column{Title: label, Width: columnWidth})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	return &collectionScreen{schema: s, sync: sync, table: t}
}

func (c *collectionScreen) resize(height int) {
	if h := height - 12; h > 3 {
		c.table.SetHeight(h)
	}
}

func (c *collectionScreen) load(ctx context.Context) tea.Cmd {
	c.banner = ""
	return loadCmd(ctx, c.sync)
}

func (c *collectionScreen) handleLoaded(err error) {
	if err != nil {
		c.banner = fmt.Sprintf("Could not load %s: %v", strings.ToLower(c.schema.Title), errors.Unwrap(err))
	}
	c.refreshRows()
}

func (c *collectionScreen) handleCommitted(mut *collection.Mutation, err error) {
	c.refreshRows()
	if err == nil {
		if c.failure == mut {
			c.failure = nil
			c.banner = ""
		}
		return
	}

	var werr *collection.WriteError
	if !errors.As(err, &werr) {
		c.failure = nil
		c.banner = err.Error()
		return
	}
	c.failure = werr.Mutation
	outcome := "kept locally"
	if werr.Reverted {
		outcome = "change undone"
	}
	c.banner = fmt.Sprintf("Could not %s %s %s (%s): %v", werr.Op, c.schema.Singular, werr.ID, outcome, werr.Err)
}

// refreshRows rebuilds the table from the mirror.
func (c *collectionScreen) refreshRows() {
	entries := c.sync.Entries()
	rows := make([]table.Row, 0, len(entries))
	c.ids = c.ids[:0]
	for _, e := range entries {
		row := table.Row{statusMarker(e.Status)}
		row = append(row, c.schema.Row(e.Record)...)
		rows = append(rows, row)
		c.ids = append(c.ids, e.Record.ID)
	}
	c.table.SetRows(rows)
	if cursor := c.table.Cursor(); cursor >= len(rows) && len(rows) > 0 {
		c.table.SetCursor(len(rows) - 1)
	}
}

func statusMarker(s collection.Status) string {
	switch s {
	case collection.StatusPending:
		return "…"
	case collection.StatusFailed:
		return "✗"
	default:
		return ""
	}
}

func (c *collectionScreen) selected() (string, bool) {
	cursor := c.table.Cursor()
	if cursor < 0 || cursor >= len(c.ids) {
		return "", false
	}
	return c.ids[cursor], true
}

func (c *collectionScreen) renderListView(spin string) string {
	var s strings.Builder
	name := strings.ToLower(c.schema.Title)

	state, _ := c.sync.LoadState()
	if state == collection.Loading {
		s.WriteString(fmt.Sprintf("%s Loading %s…\n", spin, name))
		return s.String()
	}

	if c.banner != "" {
		s.WriteString(errorStyle.Render("✗ " + c.banner))
		s.WriteString("\n")
		s.WriteString(messageStyle.Render("Press r to retry"))
		s.WriteString("\n\n")
	}

	if submit, _ := c.sync.SubmitState(); submit == collection.Submitting {
		s.WriteString(pendingStyle.Render(spin + " Saving…"))
		s.WriteString("\n\n")
	}

	if state == collection.Loaded && len(c.ids) == 0 {
		s.WriteString(messageStyle.Render(fmt.Sprintf("No %s yet. Press n to add one.", name)))
		s.WriteString("\n")
	} else if state == collection.Loaded || len(c.ids) > 0 {
		s.WriteString(c.table.View())
		s.WriteString("\n")
	}

	s.WriteString(c.renderListHelp())
	return s.String()
}

func (c *collectionScreen) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"n: New",
		"e: Edit",
		"d: Delete",
		"r: Retry",
		"L: Sign out",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (c *collectionScreen) handleListKeys(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if id, ok := c.selected(); ok {
			c.selectedID = id
			c.mode = ViewDetail
		}
		return nil
	case "n":
		c.openForm("")
		return nil
	case "e":
		if id, ok := c.selected(); ok {
			c.openForm(id)
		}
		return nil
	case "d":
		if id, ok := c.selected(); ok {
			c.selectedID = id
			c.mode = ViewConfirmDelete
		}
		return nil
	case "r":
		return c.retry(ctx)
	}

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	return cmd
}

// retry re-commits the last failed write, or reloads after a failed load.
func (c *collectionScreen) retry(ctx context.Context) tea.Cmd {
	if c.failure != nil {
		mut := c.failure
		c.failure = nil
		c.banner = ""
		return retryCmd(ctx, c.sync, mut)
	}
	if state, _ := c.sync.LoadState(); state == collection.LoadErrored || state == collection.Loaded {
		return c.load(ctx)
	}
	return nil
}

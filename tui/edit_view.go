// ABOUTME: Form view for creating and editing records
// ABOUTME: Builds inputs from the schema, validates on submit, and stages the write optimistically
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/schema"
)

var formLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Width(22)

func placeholder(f schema.Field) string {
	switch f.Kind {
	case schema.KindChoice:
		return strings.Join(f.Options, " / ")
	case schema.KindDate:
		return "YYYY-MM-DD"
	case schema.KindDateTime:
		return "YYYY-MM-DDTHH:MM"
	case schema.KindTime:
		return "HH:MM"
	case schema.KindBool:
		return "yes / no"
	case schema.KindMoney:
		return "0.00"
	case schema.KindNumber:
		return "0"
	case schema.KindImage:
		return "https://"
	}
	return f.Label
}

// openForm prepares the inputs. An empty id opens a blank form with defaults.
func (c *collectionScreen) openForm(id string) {
	values := c.schema.Defaults()
	if id != "" {
		entry, ok := c.sync.Get(id)
		if !ok {
			return
		}
		values = c.schema.FormValues(entry.Record)
	}

	inputs := make([]textinput.Model, len(c.schema.Fields))
	for i, f := range c.schema.Fields {
		input := textinput.New()
		input.Placeholder = placeholder(f)
		input.CharLimit = 500
		if f.Kind != schema.KindLongText {
			input.CharLimit = 100
		}
		input.SetValue(values[f.Key])
		inputs[i] = input
	}

	c.editingID = id
	c.formInputs = inputs
	c.formErr = nil
	c.focusIndex = 0
	c.mode = ViewEdit
	c.updateFormFocus()
}

func (c *collectionScreen) updateFormFocus() {
	for i := range c.formInputs {
		if i == c.focusIndex {
			c.formInputs[i].Focus()
		} else {
			c.formInputs[i].Blur()
		}
	}
}

func (c *collectionScreen) formValues() map[string]string {
	values := make(map[string]string, len(c.formInputs))
	for i, f := range c.schema.Fields {
		values[f.Key] = c.formInputs[i].Value()
	}
	return values
}

func (c *collectionScreen) renderEditView() string {
	var s strings.Builder

	// Title
	if c.editingID == "" {
		s.WriteString(titleStyle.Render("NEW " + strings.ToUpper(c.schema.Singular)))
	} else {
		s.WriteString(titleStyle.Render("EDIT " + strings.ToUpper(c.schema.Singular)))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range c.formInputs {
		f := c.schema.Fields[i]
		if i == c.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		label := f.Label
		if f.Required {
			label += " *"
		}
		s.WriteString(formLabelStyle.Render(label))
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if c.formErr != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(c.formErr.Error()))
		s.WriteString("\n")
	}

	s.WriteString(c.renderEditHelp())
	return s.String()
}

func (c *collectionScreen) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Shift+Tab: Previous field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (c *collectionScreen) handleEditKeys(ctx context.Context, msg tea.KeyMsg, now time.Time, newID func() string) tea.Cmd {
	switch msg.String() {
	case "esc":
		c.mode = ViewList
		return nil
	case "tab", "down":
		c.focusIndex = (c.focusIndex + 1) % len(c.formInputs)
		c.updateFormFocus()
		return nil
	case "shift+tab", "up":
		c.focusIndex = (c.focusIndex + len(c.formInputs) - 1) % len(c.formInputs)
		c.updateFormFocus()
		return nil
	case "enter":
		return c.submitForm(ctx, now, newID)
	}

	// Update current input
	var cmd tea.Cmd
	c.formInputs[c.focusIndex], cmd = c.formInputs[c.focusIndex].Update(msg)
	return cmd
}

// submitForm validates the form and stages the write. Validation failures
// keep the form open and never reach the store.
func (c *collectionScreen) submitForm(ctx context.Context, now time.Time, newID func() string) tea.Cmd {
	id := c.editingID
	if id == "" {
		id = newID()
	}

	rec, err := c.schema.Build(id, c.formValues(), now)
	if err != nil {
		c.formErr = err
		return nil
	}

	var mut *collection.Mutation
	if c.editingID == "" {
		mut, err = c.sync.StageCreate(rec)
	} else {
		mut, err = c.sync.StageUpdate(rec)
	}
	if err != nil {
		c.formErr = fmt.Errorf("could not save %s: %w", c.schema.Singular, err)
		return nil
	}

	c.mode = ViewList
	c.formErr = nil
	c.refreshRows()
	return commitCmd(ctx, c.sync, mut)
}

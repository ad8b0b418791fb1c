// ABOUTME: Sign-in form shown before any collection screen
// ABOUTME: Collects nickname and passcode and logs in through the shared session
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/innkeep/auth"
)

type loginForm struct {
	inputs     []textinput.Model
	focusIndex int
	submitting bool
	err        error
}

func newLoginForm() loginForm {
	nickname := textinput.New()
	nickname.Placeholder = "Nickname"
	nickname.CharLimit = 64
	nickname.Focus()

	passcode := textinput.New()
	passcode.Placeholder = "Passcode"
	passcode.CharLimit = 64
	passcode.EchoMode = textinput.EchoPassword
	passcode.EchoCharacter = '•'

	return loginForm{inputs: []textinput.Model{nickname, passcode}}
}

func (f *loginForm) reset() {
	*f = newLoginForm()
}

func (f *loginForm) focus(i int) {
	f.focusIndex = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (m Model) renderLoginView() string {
	var s strings.Builder

	target := "the hotel"
	if screen := m.current(); screen != nil {
		target = strings.ToLower(screen.schema.Title)
	}
	s.WriteString(titleStyle.Render("Sign in to manage " + target))
	s.WriteString("\n\n")

	labels := []string{"Nickname", "Passcode"}
	for i, input := range m.login.inputs {
		if i == m.login.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(formLabelStyle.Render(labels[i]))
		s.WriteString(input.View())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if m.login.submitting || m.session.IsLoading() {
		s.WriteString(m.spinner.View() + " Signing in…\n")
	} else if m.login.err != nil {
		s.WriteString(errorStyle.Render("✗ " + loginMessage(m.login.err)))
		s.WriteString("\n")
	}

	help := []string{
		"Tab: Next field",
		"Enter: Sign in",
		"Ctrl+C: Quit",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func loginMessage(err error) string {
	if errors.Is(err, auth.ErrBadCredentials) {
		return "Nickname or passcode is incorrect"
	}
	return err.Error()
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.login.focus((m.login.focusIndex + 1) % len(m.login.inputs))
		return m, nil
	case "enter":
		if m.login.focusIndex == 0 {
			m.login.focus(1)
			return m, nil
		}
		nickname := strings.TrimSpace(m.login.inputs[0].Value())
		passcode := m.login.inputs[1].Value()
		if nickname == "" || passcode == "" {
			m.login.err = errors.New("nickname and passcode are required")
			return m, nil
		}
		m.login.err = nil
		m.login.submitting = true
		return m, loginCmd(m.ctx, m.session, nickname, passcode)
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focusIndex], cmd = m.login.inputs[m.login.focusIndex].Update(msg)
	return m, cmd
}

func loginCmd(ctx context.Context, session *auth.Session, nickname, passcode string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{err: session.Login(ctx, nickname, passcode)}
	}
}

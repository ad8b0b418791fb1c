// ABOUTME: Session and member CLI commands
// ABOUTME: login, logout, whoami, and local member directory management with hidden passcode entry
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/harperreed/innkeep/auth"
)

// Prompter asks the user for a value. Secret input is not echoed.
type Prompter func(label string, secret bool) (string, error)

// TerminalPrompter reads from stdin, hiding secrets when stdin is a terminal.
func TerminalPrompter(out io.Writer) Prompter {
	reader := bufio.NewReader(os.Stdin)
	return func(label string, secret bool) (string, error) {
		_, _ = fmt.Fprintf(out, "%s: ", label)
		fd := int(os.Stdin.Fd())
		if secret && term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			_, _ = fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
			}
			return string(b), nil
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func (e *Env) ask(label string, secret bool) (string, error) {
	if e.Prompt == nil {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return e.Prompt(label, secret)
}

// LoginCommand signs a member in and saves the session.
func LoginCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	nickname := fs.String("nickname", "", "Member nickname (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	nick := strings.TrimSpace(*nickname)
	if nick == "" {
		var err error
		if nick, err = env.ask("Nickname", false); err != nil {
			return err
		}
		nick = strings.TrimSpace(nick)
	}
	passcode, err := env.ask("Passcode", true)
	if err != nil {
		return err
	}
	if nick == "" || passcode == "" {
		return errors.New("nickname and passcode are required")
	}

	if err := env.Session.Login(ctx, nick, passcode); err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			return errors.New("nickname or passcode is incorrect")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	member, _ := env.Session.CurrentMember()
	_, _ = fmt.Fprintf(env.Out, "✓ Signed in as %s\n", member.Nickname)
	return nil
}

// LogoutCommand clears the saved session.
func LogoutCommand(_ context.Context, env *Env, _ []string) error {
	if err := env.Session.Logout(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Out, "✓ Signed out")
	return nil
}

// WhoamiCommand prints the signed-in member.
func WhoamiCommand(_ context.Context, env *Env, _ []string) error {
	member, ok := env.Session.CurrentMember()
	if !ok {
		_, _ = fmt.Fprintln(env.Out, "Not signed in")
		return nil
	}
	_, _ = fmt.Fprintf(env.Out, "%s (ID: %s)\n", member.Nickname, member.ID)
	return nil
}

// MemberCommand manages the local member directory.
func MemberCommand(_ context.Context, env *Env, args []string) error {
	if env.Directory == nil {
		return errors.New("members are managed by the server for this backend")
	}
	if len(args) == 0 {
		return errors.New("usage: innkeep member <add|list|remove> [nickname]")
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return errors.New("usage: innkeep member add <nickname>")
		}
		passcode, err := env.ask("Passcode", true)
		if err != nil {
			return err
		}
		confirm, err := env.ask("Repeat passcode", true)
		if err != nil {
			return err
		}
		if passcode != confirm {
			return errors.New("passcodes do not match")
		}
		member, err := env.Directory.Add(args[1], passcode)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(env.Out, "✓ Member added: %s (ID: %s)\n", member.Nickname, member.ID)
	case "list":
		members, err := env.Directory.List()
		if err != nil {
			return err
		}
		if len(members) == 0 {
			_, _ = fmt.Fprintln(env.Out, "No members yet. Add one with 'innkeep member add <nickname>'.")
			return nil
		}
		w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NICKNAME\tID")
		_, _ = fmt.Fprintln(w, "--------\t--")
		for _, m := range members {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", m.Nickname, m.ID)
		}
		return w.Flush()
	case "remove":
		if len(args) < 2 {
			return errors.New("usage: innkeep member remove <nickname>")
		}
		if err := env.Directory.Remove(args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(env.Out, "✓ Member removed: %s\n", args[1])
	default:
		return fmt.Errorf("unknown member command: %s", args[0])
	}
	return nil
}

// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: Link, status, sync now, and wipe for the charm collection backend

package charm

import (
	"flag"
	"fmt"
	"io"

	"github.com/harperreed/innkeep/models"
)

// LinkCommand links this device to a Charm account. Charm authenticates
// with the device's SSH keys, so linking is a first sync.
func LinkCommand(c *Client, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm link", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	_, _ = fmt.Fprintf(w, "Linking to Charm Cloud (%s)...\n\n", cfg.Host)

	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		_, _ = fmt.Fprintln(w, "✓ Device linked (ID unavailable)")
	} else {
		_, _ = fmt.Fprintf(w, "✓ Linked to account: %s\n", id)
	}
	_, _ = fmt.Fprintf(w, "✓ Auto-sync: %v\n", cfg.AutoSync)
	return nil
}

// StatusCommand shows sync configuration and per-collection key counts.
func StatusCommand(c *Client, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	_, _ = fmt.Fprintln(w, "Charm Sync Status")
	_, _ = fmt.Fprintln(w, "─────────────────")
	_, _ = fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(w, "Status:    Not connected")
	} else {
		_, _ = fmt.Fprintf(w, "Status:    Connected (%s)\n", id)
	}

	_, _ = fmt.Fprintln(w)
	for _, name := range models.Collections {
		keys, err := c.KeysWithPrefix(collectionPrefix(name))
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(w, "%-20s %d\n", name, len(keys))
	}
	return nil
}

// NowCommand performs an immediate sync.
func NowCommand(c *Client, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_, _ = fmt.Fprintln(w, "✓ Synced")
	return nil
}

// WipeCommand completely resets the KV store.
// WARNING: This deletes all local data!
func WipeCommand(c *Client, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		_, _ = fmt.Fprintln(w, "WARNING: This will delete ALL local hotel data!")
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "To confirm, run:")
		_, _ = fmt.Fprintln(w, "  innkeep charm wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	_, _ = fmt.Fprintln(w, "✓ All data wiped")
	return nil
}

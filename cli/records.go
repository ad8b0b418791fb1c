// ABOUTME: Record CLI commands shared by every collection
// ABOUTME: list, show, add, update, delete, and counts validated through the collection schema
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/db"
	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/schema"
)

// Env is what every command runs against.
type Env struct {
	Store     collection.Store
	Session   *auth.Session
	Options   collection.Options
	Directory *auth.FileDirectory
	Records   *db.RecordStore
	Out       io.Writer
	Prompt    Prompter
	Now       func() time.Time
	NewID     func() string
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// requireSession fails unless a member is signed in.
func (e *Env) requireSession(s *schema.Schema) error {
	if err := e.Session.Require(); err != nil {
		return fmt.Errorf("sign in to manage %s: run 'innkeep login'", strings.ToLower(s.Title))
	}
	return nil
}

func (e *Env) mirror(ctx context.Context, s *schema.Schema) (*collection.Sync, error) {
	sync := collection.New(e.Store, s.Collection, e.Options)
	if err := sync.Load(ctx); err != nil {
		return nil, err
	}
	return sync, nil
}

func collectionArg(fs *flag.FlagSet, usage string) (*schema.Schema, error) {
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	s, ok := schema.For(fs.Arg(0))
	if !ok {
		return nil, fmt.Errorf("unknown collection %q (want one of: %s)", fs.Arg(0), strings.Join(models.Collections, ", "))
	}
	return s, nil
}

// parseAssignments turns key=value arguments into form values.
func parseAssignments(s *schema.Schema, args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if _, known := s.Field(key); !known {
			return nil, fmt.Errorf("unknown field %q for %s", key, strings.ToLower(s.Title))
		}
		values[key] = value
	}
	return values, nil
}

// ListCommand prints a collection as a table.
func ListCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Maximum rows to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := collectionArg(fs, "innkeep list <collection> [--limit n]")
	if err != nil {
		return err
	}
	if err := env.requireSession(s); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	res, err := env.Store.GetAll(ctx, s.Collection, models.ListOptions{Limit: *limit})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", strings.ToLower(s.Title), err)
	}

	if len(res.Items) == 0 {
		_, _ = fmt.Fprintf(env.Out, "No %s yet.\n", strings.ToLower(s.Title))
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\t"+strings.Join(s.ColumnLabels(), "\t"))
	_, _ = fmt.Fprintln(w, "--\t"+strings.Repeat("--\t", len(s.Columns)))
	items := res.Items
	if *limit > 0 && len(items) > *limit {
		items = items[:*limit]
	}
	for _, rec := range items {
		_, _ = fmt.Fprintln(w, rec.ID+"\t"+strings.Join(s.Row(rec), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Out, "\nShowing %d of %d %s\n", len(items), res.TotalCount, strings.ToLower(s.Title))
	return nil
}

// ShowCommand prints one record.
func ShowCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := collectionArg(fs, "innkeep show <collection> <id>")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: innkeep show <collection> <id>")
	}
	if err := env.requireSession(s); err != nil {
		return err
	}

	sync, err := env.mirror(ctx, s)
	if err != nil {
		return err
	}
	entry, ok := sync.Get(fs.Arg(1))
	if !ok {
		return fmt.Errorf("%s %s: %w", s.Singular, fs.Arg(1), models.ErrRecordNotFound)
	}

	title, lines := s.Summary(entry.Record)
	_, _ = fmt.Fprintln(env.Out, title)
	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	for _, line := range lines {
		_, _ = fmt.Fprintf(w, "  %s:\t%s\n", line.Label, line.Value)
	}
	return w.Flush()
}

// AddCommand creates a record from key=value arguments.
func AddCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	id := fs.String("id", "", "Record id (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := collectionArg(fs, "innkeep add [--id id] <collection> key=value...")
	if err != nil {
		return err
	}
	if err := env.requireSession(s); err != nil {
		return err
	}

	values := s.Defaults()
	given, err := parseAssignments(s, fs.Args()[1:])
	if err != nil {
		return err
	}
	for k, v := range given {
		values[k] = v
	}

	recID := *id
	if recID == "" {
		recID = env.newID()
	}
	rec, err := s.Build(recID, values, env.now())
	if err != nil {
		return err
	}

	sync := collection.New(env.Store, s.Collection, env.Options)
	created, err := sync.Create(ctx, rec)
	if err != nil {
		return err
	}

	title, _ := s.Summary(created)
	_, _ = fmt.Fprintf(env.Out, "✓ Created %s: %s (ID: %s)\n", s.Singular, title, created.ID)
	return nil
}

// UpdateCommand replaces a record, starting from its current values.
func UpdateCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := collectionArg(fs, "innkeep update <collection> <id> key=value...")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: innkeep update <collection> <id> key=value...")
	}
	if err := env.requireSession(s); err != nil {
		return err
	}
	id := fs.Arg(1)

	given, err := parseAssignments(s, fs.Args()[2:])
	if err != nil {
		return err
	}

	sync, err := env.mirror(ctx, s)
	if err != nil {
		return err
	}
	entry, ok := sync.Get(id)
	if !ok {
		return fmt.Errorf("%s %s: %w", s.Singular, id, models.ErrRecordNotFound)
	}

	values := s.FormValues(entry.Record)
	for k, v := range given {
		values[k] = v
	}
	rec, err := s.Build(id, values, env.now())
	if err != nil {
		return err
	}

	updated, err := sync.Update(ctx, rec)
	if err != nil {
		return err
	}
	title, _ := s.Summary(updated)
	_, _ = fmt.Fprintf(env.Out, "✓ Updated %s: %s (ID: %s)\n", s.Singular, title, updated.ID)
	return nil
}

// DeleteCommand removes a record. Deleting a missing record succeeds.
func DeleteCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := collectionArg(fs, "innkeep delete <collection> <id>")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: innkeep delete <collection> <id>")
	}
	if err := env.requireSession(s); err != nil {
		return err
	}

	sync := collection.New(env.Store, s.Collection, env.Options)
	if err := sync.Delete(ctx, fs.Arg(1)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Out, "✓ Deleted %s %s\n", s.Singular, fs.Arg(1))
	return nil
}

// CountsCommand prints the number of records in every collection.
func CountsCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("counts", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := env.Session.Require(); err != nil {
		return errors.New("sign in to see hotel counts: run 'innkeep login'")
	}

	counts, err := collection.Summarize(ctx, env.Store, models.Collections...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLLECTION\tCOUNT")
	_, _ = fmt.Fprintln(w, "----------\t-----")
	for _, s := range schema.All() {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", s.Title, counts[s.Collection])
	}
	return w.Flush()
}

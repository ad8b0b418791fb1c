// ABOUTME: Sync status command for SQL backends
// ABOUTME: Prints the last load and write outcome recorded per collection
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"
)

// StatusCommand shows the recorded sync state of every collection.
func StatusCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if env.Records == nil {
		return errors.New("status is only recorded by the sqlite and postgres backends")
	}

	states, err := env.Records.GetAllSyncStates(ctx)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No collection has been loaded or written yet.")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLLECTION\tSTATUS\tLAST LOAD\tLAST WRITE\tERROR")
	_, _ = fmt.Fprintln(w, "----------\t------\t---------\t----------\t-----")
	for _, st := range states {
		errMsg := ""
		if st.ErrorMessage != nil {
			errMsg = *st.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			st.Collection, st.Status, formatWhen(st.LastLoadTime), formatWhen(st.LastWriteTime), errMsg)
	}
	return w.Flush()
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

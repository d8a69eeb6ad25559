package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCommand(version string) *cobra.Command {
	var (
		action string
		byUser string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Long: `List recorded lifecycle transitions and structural edits, newest
first. Every draft creation, publish, discard, restore, and question or
step edit leaves an entry naming the actor.`,
		Example: `  # The latest fifty entries
  forma audit

  # Only publishes
  forma audit --action version.published

  # What did marie do?
  forma audit --by marie --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var actionFilter, actorFilter *string
			if action != "" {
				actionFilter = &action
			}
			if byUser != "" {
				actorFilter = &byUser
			}

			entries, err := a.store.ListAuditEntries(ctx, actionFilter, actorFilter, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No audit entries.")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "TIME\tACTION\tACTOR\tVERSION\tDETAILS")
			for _, e := range entries {
				versionID := "-"
				if e.VersionID != nil {
					versionID = shortID(*e.VersionID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					formatTime(e.Timestamp), e.Action, e.Actor, versionID, strOrDash(e.Details))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "filter by action (e.g. version.published)")
	cmd.Flags().StringVar(&byUser, "by", "", "filter by actor")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the version lineage",
		Long: `List every version of the questionnaire, newest first: the draft,
the published version, and the archived history.`,
		Example: `  # Show the lineage
  forma history

  # Machine-readable output
  forma history --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			versions, err := a.manager.History(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(versions)
			}

			if len(versions) == 0 {
				fmt.Println("No versions yet.")
				return nil
			}

			w := newTable()
			fmt.Fprintln(w, "VERSION\tSTATUS\tQUESTIONS\tCREATED BY\tCREATED\tPUBLISHED\tID")
			for _, v := range versions {
				published := "-"
				if v.PublishedAt != nil {
					published = formatTime(*v.PublishedAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					versionLabel(v), v.Status, v.QuestionCount,
					v.CreatedBy, formatTime(v.CreatedAt), published, v.ID)
			}
			return w.Flush()
		},
	}

	return cmd
}

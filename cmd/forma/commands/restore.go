package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRestoreCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <version-id>",
		Short: "Restore a historical version into a new draft",
		Long: `Create a new draft as a deep clone of a historical version. The
source version is never modified: restore is clone, not rollback. The
restored content goes live only when the draft is published.`,
		Example: `  # Find the version to restore
  forma history

  # Clone it into a draft
  forma restore 4f3c2a1b-... --actor marie

  # Review, then publish
  forma publish --actor marie`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			snap, err := a.manager.RestoreVersion(ctx, args[0], a.actor())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(snap)
			}
			fmt.Printf("Draft %s created from %s (%d questions).\n",
				shortID(snap.Version.ID), shortID(args[0]), snap.Version.QuestionCount)
			return nil
		},
	}

	return cmd
}

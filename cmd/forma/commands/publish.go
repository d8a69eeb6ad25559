package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [version-id]",
		Short: "Publish the current draft",
		Long: `Promote the draft to published. The draft receives the next version
number in the lineage and the previously published version, if any, is
archived in the same transaction. End users see the new version
immediately.

Naming a version id publishes that specific draft; naming a published
or archived version is an error.`,
		Example: `  # Publish the draft
  forma publish --actor marie`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			versionID := ""
			if len(args) == 1 {
				versionID = args[0]
			}
			published, err := a.manager.PublishDraft(ctx, versionID, a.actor())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(published)
			}
			fmt.Printf("Published %s (%d active questions).\n", versionLabel(published), published.QuestionCount)
			return nil
		},
	}

	return cmd
}

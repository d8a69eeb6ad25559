package commands

import (
	"github.com/spf13/cobra"
)

func newShowCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show one version of the lineage",
		Long: `Show a specific version by id, including its steps and questions.
Archived versions display exactly what was live when they were
published.`,
		Example: `  # Show an archived version
  forma show 4f3c2a1b-...

  # Render labels in English
  forma show 4f3c2a1b-... --locale en`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			snap, err := a.manager.GetVersion(ctx, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(snap)
			}

			locale, err := a.locale()
			if err != nil {
				return err
			}
			printSnapshot(snap, locale)
			return nil
		},
	}

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDraftCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft management",
		Long: `Create or discard the working draft.

At most one draft exists at a time. A new draft starts as a deep clone
of the published version (or empty when nothing has ever been
published); discarding it deletes the draft and everything it owns
without touching the published version.`,
	}

	cmd.AddCommand(newDraftCreateCommand(version))
	cmd.AddCommand(newDraftDiscardCommand(version))

	return cmd
}

func newDraftCreateCommand(version string) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new draft from the published version",
		Example: `  # Start editing
  forma draft create

  # With a note describing the intent
  forma draft create --notes "Add financing questions" --actor marie`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var notesPtr *string
			if notes != "" {
				notesPtr = &notes
			}
			snap, err := a.manager.CreateDraft(ctx, a.actor(), notesPtr)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(snap)
			}
			fmt.Printf("Draft %s created with %d question(s) across %d step(s).\n",
				shortID(snap.Version.ID), snap.Version.QuestionCount, len(snap.Steps))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "free-text note describing the draft")

	return cmd
}

func newDraftDiscardCommand(version string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "discard",
		Short: "Discard the current draft",
		Long: `Delete the current draft and all its steps and questions. The
published version is untouched. This cannot be undone.`,
		Example: `  # Discard with confirmation
  forma draft discard

  # Skip the confirmation prompt
  forma draft discard --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if !yes {
				fmt.Print("Discard the current draft? All unpublished edits will be lost. [y/N] ")
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := a.manager.DiscardDraft(ctx, "", a.actor()); err != nil {
				return err
			}
			fmt.Println("Draft discarded.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

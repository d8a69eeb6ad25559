package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openforma/openforma/pkg/questionnaire"
)

func newStatusCommand(version string) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active questionnaire version",
		Long: `Show the version the admin surface is working against: the draft when
one exists, otherwise the published version. Includes a per-step
summary of the active questions.`,
		Example: `  # Show the active version
  forma status

  # Machine-readable output
  forma status --json

  # Verify the store is reachable
  forma status --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if check {
				if err := a.store.HealthCheck(ctx); err != nil {
					return fmt.Errorf("store health check failed: %w", err)
				}
				fmt.Println("Store is healthy.")
				return nil
			}

			snap, err := a.manager.GetActive(ctx)
			if err != nil {
				if questionnaire.IsNotFound(err) {
					fmt.Println("No questionnaire version exists yet. Run 'forma draft create' to start one.")
					return nil
				}
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

	cmd.Flags().BoolVar(&check, "check", false, "verify the store connection and exit")

	return cmd
}

func printSnapshot(snap *questionnaire.Snapshot, locale questionnaire.Locale) {
	v := &snap.Version
	fmt.Printf("Version %s  [%s]\n", versionLabel(v), v.Status)
	fmt.Printf("  created by %s at %s\n", v.CreatedBy, formatTime(v.CreatedAt))
	if v.PublishedAt != nil {
		fmt.Printf("  published by %s at %s\n", strOrDash(v.PublishedBy), formatTime(*v.PublishedAt))
	}
	if v.Notes != nil && *v.Notes != "" {
		fmt.Printf("  notes: %s\n", *v.Notes)
	}
	fmt.Printf("  %d active question(s) across %d step(s)\n", v.QuestionCount, len(snap.Steps))

	for _, step := range snap.Steps {
		marker := ""
		if !step.IsActive {
			marker = " (inactive)"
		}
		fmt.Printf("\nStep %d: %s%s\n", step.StepNumber, step.TitleIn(locale), marker)
		if desc := step.DescriptionIn(locale); desc != "" {
			fmt.Printf("  %s\n", desc)
		}
		for _, q := range snap.QuestionsForStep(step.StepNumber) {
			required := ""
			if q.IsRequired {
				required = " *"
			}
			fmt.Printf("  %2d. [%s] %s%s  (%s)\n", q.Order, q.Type, q.TextIn(locale), required, shortID(q.ID))
		}
	}
}

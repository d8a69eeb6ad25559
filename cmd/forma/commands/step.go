package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openforma/openforma/pkg/questionnaire"
)

func newStepCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Step management",
		Long: `Edit step metadata in the current draft. Step numbers are stable
across versions and cannot be changed; only titles, descriptions, and
the active flag are editable.`,
	}

	cmd.AddCommand(newStepUpdateCommand(version))
	cmd.AddCommand(newStepListCommand(version))

	return cmd
}

func newStepUpdateCommand(version string) *cobra.Command {
	var (
		title   string
		titleEN string
		desc    string
		descEN  string
		active  bool
	)

	cmd := &cobra.Command{
		Use:   "update <step-number>",
		Short: "Edit a step of the draft",
		Long: `Apply a partial update to a step. Only the flags you pass change;
passing an empty string clears an optional field. The French title is
required and cannot be cleared.`,
		Example: `  # Retitle a step
  forma step update 2 --title "Votre financement"

  # Add an English title
  forma step update 2 --title-en "Your financing"

  # Hide a step from the wizard
  forma step update 3 --active=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stepNumber, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step number %q", args[0])
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			draftID, err := a.draftID(ctx)
			if err != nil {
				return err
			}

			patch := questionnaire.StepPatch{}
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.TitleFR = &title
			}
			if flags.Changed("title-en") {
				patch.TitleEN = &titleEN
			}
			if flags.Changed("desc") {
				patch.DescriptionFR = &desc
			}
			if flags.Changed("desc-en") {
				patch.DescriptionEN = &descEN
			}
			if flags.Changed("active") {
				patch.IsActive = &active
			}

			step, err := a.gateway.UpdateStep(ctx, draftID, a.actor(), stepNumber, patch)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(step)
			}
			fmt.Printf("Step %d updated: %s\n", step.StepNumber, step.TitleFR)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "step title (French)")
	cmd.Flags().StringVar(&titleEN, "title-en", "", "step title (English)")
	cmd.Flags().StringVar(&desc, "desc", "", "step description (French)")
	cmd.Flags().StringVar(&descEN, "desc-en", "", "step description (English)")
	cmd.Flags().BoolVar(&active, "active", true, "whether the step is active")

	return cmd
}

func newStepListCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the steps of the active version",
		Example: `  forma step list
  forma step list --locale en`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, version)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			snap, err := a.manager.GetActive(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(snap.Steps)
			}

			locale, err := a.locale()
			if err != nil {
				return err
			}
			w := newTable()
			fmt.Fprintln(w, "STEP\tTITLE\tQUESTIONS\tACTIVE")
			for _, s := range snap.Steps {
				fmt.Fprintf(w, "%d\t%s\t%d\t%t\n", s.StepNumber, s.TitleIn(locale), s.QuestionCount, s.IsActive)
			}
			return w.Flush()
		},
	}

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openforma/openforma/pkg/questionnaire"
)

func newQuestionCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Question management",
		Long: `Create, edit, remove, and reorder questions in the current draft.

Questions belong to a step and hold a dense 1..N position within it:
new questions append at the end, removals close the gap, and reorders
must name every active question of the step exactly once. All commands
here refuse to touch anything but the draft.`,
	}

	cmd.AddCommand(newQuestionAddCommand(version))
	cmd.AddCommand(newQuestionUpdateCommand(version))
	cmd.AddCommand(newQuestionRemoveCommand(version))
	cmd.AddCommand(newQuestionReorderCommand(version))

	return cmd
}

func newQuestionAddCommand(version string) *cobra.Command {
	var (
		step       int
		text       string
		textEN     string
		qType      string
		help       string
		helpEN     string
		required   bool
		section    string
		persona    string
		options    string
		optionsEN  string
		rules      string
		logic      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a question to a step of the draft",
		Long: `Append a question to a step of the draft. The question lands at the
end of the step's order.

Choice and scale types require --options with a serialized option list.`,
		Example: `  # A free-text question
  forma question add --step 1 --text "Décrivez votre projet." --type long_text --required

  # A bilingual single-choice question
  forma question add --step 2 --type single_choice \
    --text "Quelle est votre forme juridique ?" \
    --text-en "What is your legal form?" \
    --options '["SARL","SAS","EI","Association"]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			payload := questionnaire.NewQuestion{
				StepNumber:       step,
				QuestionText:     text,
				QuestionTextEN:   optStr(textEN),
				HelpText:         optStr(help),
				HelpTextEN:       optStr(helpEN),
				Type:             questionnaire.QuestionType(qType),
				IsRequired:       required,
				Section:          optStr(section),
				PersonaType:      optStr(persona),
				Options:          optStr(options),
				OptionsEN:        optStr(optionsEN),
				ValidationRules:  optStr(rules),
				ConditionalLogic: optStr(logic),
			}

			q, err := a.gateway.CreateQuestion(ctx, draftID, a.actor(), payload)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(q)
			}
			fmt.Printf("Question %s added to step %d at position %d.\n", shortID(q.ID), q.StepNumber, q.Order)
			return nil
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "step number the question belongs to")
	cmd.Flags().StringVar(&text, "text", "", "question text (French)")
	cmd.Flags().StringVar(&textEN, "text-en", "", "question text (English)")
	cmd.Flags().StringVar(&qType, "type", "", "question type (short_text, long_text, single_choice, multiple_choice, number, currency, percentage, date, yes_no, scale)")
	cmd.Flags().StringVar(&help, "help", "", "help text (French)")
	cmd.Flags().StringVar(&helpEN, "help-en", "", "help text (English)")
	cmd.Flags().BoolVar(&required, "required", false, "mark the question as required")
	cmd.Flags().StringVar(&section, "section", "", "section label within the step")
	cmd.Flags().StringVar(&persona, "persona", "", "restrict the question to one persona")
	cmd.Flags().StringVar(&options, "options", "", "serialized options list (French)")
	cmd.Flags().StringVar(&optionsEN, "options-en", "", "serialized options list (English)")
	cmd.Flags().StringVar(&rules, "validation", "", "serialized validation rules")
	cmd.Flags().StringVar(&logic, "logic", "", "serialized conditional logic")
	cmd.MarkFlagRequired("step")
	cmd.MarkFlagRequired("text")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newQuestionUpdateCommand(version string) *cobra.Command {
	var (
		text      string
		textEN    string
		qType     string
		help      string
		helpEN    string
		required  bool
		section   string
		persona   string
		options   string
		optionsEN string
		rules     string
		logic     string
		active    bool
	)

	cmd := &cobra.Command{
		Use:   "update <question-id>",
		Short: "Edit a question of the draft",
		Long: `Apply a partial update to a question. Only the flags you pass change;
passing an empty string clears an optional field. Deactivating a
question parks it outside the step's order and closes the gap;
reactivating appends it at the end.`,
		Example: `  # Reword a question
  forma question update 7c9e6679-... --text "Présentez votre projet en quelques lignes."

  # Clear the help text
  forma question update 7c9e6679-... --help ""

  # Temporarily hide a question
  forma question update 7c9e6679-... --active=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			patch := questionnaire.QuestionPatch{}
			flags := cmd.Flags()
			if flags.Changed("text") {
				patch.QuestionText = &text
			}
			if flags.Changed("text-en") {
				patch.QuestionTextEN = &textEN
			}
			if flags.Changed("type") {
				t := questionnaire.QuestionType(qType)
				patch.Type = &t
			}
			if flags.Changed("help") {
				patch.HelpText = &help
			}
			if flags.Changed("help-en") {
				patch.HelpTextEN = &helpEN
			}
			if flags.Changed("required") {
				patch.IsRequired = &required
			}
			if flags.Changed("section") {
				patch.Section = &section
			}
			if flags.Changed("persona") {
				patch.PersonaType = &persona
			}
			if flags.Changed("options") {
				patch.Options = &options
			}
			if flags.Changed("options-en") {
				patch.OptionsEN = &optionsEN
			}
			if flags.Changed("validation") {
				patch.ValidationRules = &rules
			}
			if flags.Changed("logic") {
				patch.ConditionalLogic = &logic
			}
			if flags.Changed("active") {
				patch.IsActive = &active
			}

			q, err := a.gateway.UpdateQuestion(ctx, draftID, a.actor(), args[0], patch)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(q)
			}
			if q.IsActive {
				fmt.Printf("Question %s updated (step %d, position %d).\n", shortID(q.ID), q.StepNumber, q.Order)
			} else {
				fmt.Printf("Question %s updated (step %d, inactive).\n", shortID(q.ID), q.StepNumber)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "question text (French)")
	cmd.Flags().StringVar(&textEN, "text-en", "", "question text (English)")
	cmd.Flags().StringVar(&qType, "type", "", "question type")
	cmd.Flags().StringVar(&help, "help", "", "help text (French)")
	cmd.Flags().StringVar(&helpEN, "help-en", "", "help text (English)")
	cmd.Flags().BoolVar(&required, "required", false, "mark the question as required")
	cmd.Flags().StringVar(&section, "section", "", "section label within the step")
	cmd.Flags().StringVar(&persona, "persona", "", "restrict the question to one persona")
	cmd.Flags().StringVar(&options, "options", "", "serialized options list (French)")
	cmd.Flags().StringVar(&optionsEN, "options-en", "", "serialized options list (English)")
	cmd.Flags().StringVar(&rules, "validation", "", "serialized validation rules")
	cmd.Flags().StringVar(&logic, "logic", "", "serialized conditional logic")
	cmd.Flags().BoolVar(&active, "active", true, "whether the question is active")

	return cmd
}

func newQuestionRemoveCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <question-id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a question from the draft",
		Long: `Delete a question from the draft. The remaining questions of its step
are renumbered so positions stay dense.`,
		Example: `  forma question rm 7c9e6679-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := a.gateway.DeleteQuestion(ctx, draftID, a.actor(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Question %s removed.\n", shortID(args[0]))
			return nil
		},
	}

	return cmd
}

func newQuestionReorderCommand(version string) *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "reorder --step <n> <question-id>...",
		Short: "Reorder the questions of one step",
		Long: `Apply a complete new ordering to one step of the draft. The ids given
become positions 1..N; every active question of the step must appear
exactly once.`,
		Example: `  # Move the third question first
  forma question reorder --step 1 id3 id1 id2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			reordered, err := a.gateway.ReorderQuestions(ctx, draftID, a.actor(), step, args)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(reordered)
			}
			locale, err := a.locale()
			if err != nil {
				return err
			}
			fmt.Printf("Step %d reordered:\n", step)
			for _, q := range reordered {
				fmt.Printf("  %2d. %s  (%s)\n", q.Order, q.TextIn(locale), shortID(q.ID))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "step number to reorder")
	cmd.MarkFlagRequired("step")

	return cmd
}

// optStr maps an empty flag value to nil.
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	actorFlag  string
	localeFlag string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forma",
		Short: "OpenForma - Questionnaire Versioning Engine",
		Long: `OpenForma manages the lifecycle of a versioned questionnaire.

The questionnaire lives as a lineage of versions: exactly one mutable
draft, at most one published version serving end users, and an immutable
archive of everything published before. Structural edits (questions,
steps, ordering) only ever touch the draft; publishing promotes the
draft atomically and archives its predecessor.

Features:
  - Draft / publish / discard / restore workflow
  - Dense per-step question ordering
  - Bilingual (FR/EN) labels with French fallback
  - Full audit trail of transitions and edits
  - SQLite persistence with embedded migrations`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "actor attributed to the operation (default from config)")
	rootCmd.PersistentFlags().StringVar(&localeFlag, "locale", "", "render locale: fr or en (default from config)")

	// Add subcommands
	rootCmd.AddCommand(newStatusCommand(version))
	rootCmd.AddCommand(newHistoryCommand(version))
	rootCmd.AddCommand(newShowCommand(version))
	rootCmd.AddCommand(newDraftCommand(version))
	rootCmd.AddCommand(newPublishCommand(version))
	rootCmd.AddCommand(newRestoreCommand(version))
	rootCmd.AddCommand(newQuestionCommand(version))
	rootCmd.AddCommand(newStepCommand(version))
	rootCmd.AddCommand(newAuditCommand(version))

	return rootCmd
}

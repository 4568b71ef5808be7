package cli

import (
	"context"

	"github.com/agentx-labs/tailor/internal/branding"
	"github.com/agentx-labs/tailor/internal/config"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` applies a recipe of ordered file mutations (copy, render, insert,
substitute, delete, append) to a freshly generated project, after checking
that the project meets the recipe's preconditions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostic detail to stderr")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return fang.Execute(context.Background(), rootCmd, fang.WithVersion(version), fang.WithCommit(commit))
}

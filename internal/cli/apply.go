package cli

import (
	"fmt"
	"strings"

	"github.com/agentx-labs/tailor/internal/config"
	"github.com/agentx-labs/tailor/internal/driver"
	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/report"
	"github.com/agentx-labs/tailor/internal/source"
	"github.com/spf13/cobra"
)

var (
	applyRecipe        string
	applySource        string
	applyOptions       []string
	applyPretend       bool
	applyTransactional bool
	applyConflict      string
	applyJSON          bool
)

func init() {
	applyCmd.Flags().StringVarP(&applyRecipe, "recipe", "r", "", "Recipe file (default: recipe.yaml or recipe.hcl in the source)")
	applyCmd.Flags().StringVarP(&applySource, "source", "s", "", "Template source: a directory or a git URL with optional #revision")
	applyCmd.Flags().StringArrayVarP(&applyOptions, "option", "o", nil, "Set a recipe option as key=value (repeatable)")
	applyCmd.Flags().BoolVarP(&applyPretend, "pretend", "p", false, "Show a diff of what would change without writing anything")
	applyCmd.Flags().BoolVar(&applyTransactional, "transactional", false, "Write files only after every action succeeded")
	applyCmd.Flags().StringVar(&applyConflict, "conflict", "", "Policy for existing files: skip, overwrite, prompt or abort")
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "Print the run report as JSON")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply <project-dir>",
	Short: "Apply a recipe to a project",
	Long: `Resolve the template source, check the recipe's preconditions, then apply
its actions to the project in order.

The source is a local directory or a git repository URL. Append #revision to
check out a branch, tag or commit, e.g.

  tailor apply ./shop --source https://github.com/acme/rails-recipe.git#v2

A strict anchor that does not match stops the run. Actions applied before the
failure stay applied unless --transactional is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(applyOptions)
	if err != nil {
		return err
	}

	conflictName := applyConflict
	if conflictName == "" {
		conflictName = config.Get(config.KeyConflict)
	}
	conflict, err := engine.ParseConflictPolicy(conflictName)
	if err != nil {
		return err
	}

	ref := applySource
	if ref == "" && applyRecipe == "" {
		ref = config.Get(config.KeySource)
	}

	req := driver.Request{
		ProjectDir:    args[0],
		RecipePath:    applyRecipe,
		Options:       opts,
		Pretend:       applyPretend,
		Transactional: applyTransactional,
		Conflict:      conflict,
		Git:           config.Get(config.KeyGit),
		Logger:        newLogger(cmd.ErrOrStderr()),
		Out:           cmd.OutOrStdout(),
	}
	if ref != "" {
		req.Source = source.ParseRef(ref)
	}
	if conflict == engine.ConflictPrompt && isInteractive() {
		req.Prompter = huhPrompter{}
	}

	res := driver.Run(req)

	if applyJSON {
		err = report.WriteJSON(cmd.OutOrStdout(), res.Summary)
	} else {
		err = report.WriteText(cmd.OutOrStdout(), res.Summary)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return res.Err
}

// parseOptions turns key=value pairs into a map. A bare key means "true".
func parseOptions(pairs []string) (map[string]string, error) {
	opts := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", p)
		}
		if !found {
			value = "true"
		}
		opts[key] = value
	}
	return opts, nil
}

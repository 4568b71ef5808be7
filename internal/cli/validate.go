package cli

import (
	"fmt"
	"io"

	"github.com/agentx-labs/tailor/internal/recipe"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <recipe-file>",
	Short: "Check a recipe against the schema",
	Long:  `Validate a recipe.yaml or recipe.hcl file and build its actions and preconditions without touching any project.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecipeCheck(cmd.OutOrStdout(), args[0])
	},
}

func runRecipeCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Recipe validation: %s\n", path)

	result, err := recipe.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("recipe validation failed: %w", err)
	}

	if !result.Valid {
		fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "    - %s\n", issue)
		}
		return fmt.Errorf("recipe %s has %d validation issue(s)", path, len(result.Issues))
	}

	r, err := recipe.Load(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	actions, err := r.BuildActions()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	checks, err := r.BuildChecks()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}

	fmt.Fprintf(w, "  [ OK ] Valid recipe: %s (%d actions, %d preconditions)\n", r.Name, len(actions), len(checks))
	return nil
}

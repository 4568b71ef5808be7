package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/agentx-labs/tailor/internal/config"
	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/precondition"
	"github.com/agentx-labs/tailor/internal/recipe"
	"github.com/agentx-labs/tailor/internal/source"
	"github.com/spf13/cobra"
)

// minGitVersion is the oldest git known to support the clone and checkout
// flags used for remote sources.
const minGitVersion = ">= 2.0.0"

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment for remote sources and configuration",
	Long:  `Run diagnostic checks: git availability and version, configuration values, and the default source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if failed := runAllChecks(cmd.OutOrStdout()); failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

// runAllChecks prints every check and returns the number of failures.
func runAllChecks(w io.Writer) int {
	failed := 0
	failed += runGitCheck(w)
	failed += runConfigCheck(w)
	failed += runSourceCheck(w)
	return failed
}

func runGitCheck(w io.Writer) int {
	fmt.Fprintln(w, "Git check:")
	git := config.Get(config.KeyGit)
	if git == "" {
		git = "git"
	}
	path, err := exec.LookPath(git)
	if err != nil {
		fmt.Fprintf(w, "  [MISS] %s not found; remote sources are unavailable\n", git)
		return 0
	}
	fmt.Fprintf(w, "  [ OK ] %s found at %s\n", git, path)

	v, err := precondition.DetectVersion(git, "--version")
	if err != nil {
		fmt.Fprintf(w, "  [WARN] could not read git version: %v\n", err)
		return 0
	}
	ok, err := precondition.Satisfies(v, minGitVersion)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  [WARN] could not compare git version %s: %v\n", v, err)
	case !ok:
		fmt.Fprintf(w, "  [FAIL] git %s is older than required (%s)\n", v, minGitVersion)
		return 1
	default:
		fmt.Fprintf(w, "  [ OK ] git %s\n", v)
	}
	return 0
}

func runConfigCheck(w io.Writer) int {
	fmt.Fprintln(w, "Config check:")
	if _, err := os.Stat(config.FilePath()); err != nil {
		fmt.Fprintf(w, "  [INFO] %s not found, using defaults\n", config.FilePath())
	} else {
		fmt.Fprintf(w, "  [ OK ] %s\n", config.FilePath())
	}

	if _, err := engine.ParseConflictPolicy(config.Get(config.KeyConflict)); err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", config.KeyConflict, err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s = %s\n", config.KeyConflict, config.Get(config.KeyConflict))
	return 0
}

func runSourceCheck(w io.Writer) int {
	fmt.Fprintln(w, "Default source check:")
	raw := config.Get(config.KeySource)
	if raw == "" {
		fmt.Fprintf(w, "  [INFO] no default source; pass --source or --recipe to apply\n")
		return 0
	}

	ref := source.ParseRef(raw)
	if ref.IsRemote() {
		fmt.Fprintf(w, "  [INFO] %s is remote and will be cloned at apply time\n", ref)
		return 0
	}

	info, err := os.Stat(ref.Path)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(w, "  [FAIL] %s is not a directory\n", ref.Path)
		return 1
	}
	path, err := recipe.Find(ref.Path)
	if err != nil {
		fmt.Fprintf(w, "  [WARN] %v\n", err)
		return 0
	}
	fmt.Fprintf(w, "  [ OK ] recipe found at %s\n", path)
	return 0
}

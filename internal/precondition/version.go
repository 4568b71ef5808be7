package precondition

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/tailor/internal/engine"
)

// runTool is replaced in tests.
var runTool = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

var versionToken = regexp.MustCompile(`v?\d+\.\d+(?:\.\d+)?(?:[-+][0-9A-Za-z.-]+)?`)

// MinVersion passes when the version returned by version satisfies
// constraint.
func MinVersion(name, constraint string, version func(ec *engine.ExecutionContext) (string, error), message string) Check {
	return Check{
		Name:    name,
		Message: message,
		Predicate: func(ec *engine.ExecutionContext) (bool, error) {
			v, err := version(ec)
			if err != nil {
				return false, err
			}
			return Satisfies(v, constraint)
		},
	}
}

// ToolVersion runs tool with args and checks the first version-looking token
// in its output against constraint.
func ToolVersion(name, tool string, args []string, constraint, message string) Check {
	return MinVersion(name, constraint, func(*engine.ExecutionContext) (string, error) {
		return DetectVersion(tool, args...)
	}, message)
}

// DetectVersion runs tool and extracts a version number from its output.
func DetectVersion(tool string, args ...string) (string, error) {
	out, err := runTool(tool, args...)
	if err != nil {
		return "", fmt.Errorf("running %s %s: %w", tool, strings.Join(args, " "), err)
	}
	v := versionToken.FindString(string(out))
	if v == "" {
		return "", fmt.Errorf("no version number in output of %s: %q", tool, strings.TrimSpace(string(out)))
	}
	return v, nil
}

// Satisfies reports whether version meets constraint. Constraints use
// Masterminds semver syntax, and RubyGems-style pessimistic "~>" clauses are
// also accepted.
func Satisfies(version, constraint string) (bool, error) {
	v, err := parseSemver(version)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	expr, err := TranslateConstraint(constraint)
	if err != nil {
		return false, err
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}

// TranslateConstraint rewrites each "~> x.y.z" clause into an explicit
// range: "~> 6.0.0" becomes ">= 6.0.0, < 6.1.0", "~> 6.0" becomes
// ">= 6.0, < 7.0.0" and "~> 6" becomes ">= 6, < 7.0.0". Other clauses pass
// through unchanged.
func TranslateConstraint(constraint string) (string, error) {
	clauses := strings.Split(constraint, ",")
	out := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if !strings.HasPrefix(clause, "~>") {
			out = append(out, clause)
			continue
		}
		base := strings.TrimSpace(strings.TrimPrefix(clause, "~>"))
		upper, err := pessimisticUpper(base)
		if err != nil {
			return "", fmt.Errorf("constraint %q: %w", clause, err)
		}
		out = append(out, ">= "+base, "< "+upper)
	}
	return strings.Join(out, ", "), nil
}

// pessimisticUpper bumps the second-to-last segment of base and zeroes the
// rest. A single-segment base bumps that segment.
func pessimisticUpper(base string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(base, "v"), ".")
	if len(parts) > 3 {
		return "", fmt.Errorf("%s has more than three segments", base)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid version segment %q", p)
		}
		nums[i] = n
	}
	if len(nums) == 3 {
		return fmt.Sprintf("%d.%d.0", nums[0], nums[1]+1), nil
	}
	return fmt.Sprintf("%d.0.0", nums[0]+1), nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	return semver.NewVersion(version)
}

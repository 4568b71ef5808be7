package precondition

import (
	"errors"
	"io/fs"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/pattern"
)

// FileExists passes when rel exists under the project root.
func FileExists(name, rel, message string) Check {
	return Check{
		Name:    name,
		Message: message,
		Predicate: func(ec *engine.ExecutionContext) (bool, error) {
			_, err := ec.StatTarget(rel)
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return err == nil, err
		},
	}
}

// FileMatches passes when rel exists under the project root and its content
// matches p. A missing file fails the check.
func FileMatches(name, rel string, p pattern.Pattern, message string) Check {
	return Check{
		Name:    name,
		Message: message,
		Predicate: func(ec *engine.ExecutionContext) (bool, error) {
			data, exists, err := ec.ReadTarget(rel)
			if err != nil || !exists {
				return false, err
			}
			return p.Matches(string(data)), nil
		},
	}
}

// OptionEquals passes when option key is unset or set to want. It guards
// options the recipe cannot honor, such as a flag that would skip a file
// later actions depend on.
func OptionEquals(name, key, want, message string) Check {
	return Check{
		Name:    name,
		Message: message,
		Predicate: func(ec *engine.ExecutionContext) (bool, error) {
			got, ok := ec.Option(key)
			return !ok || got == want, nil
		},
	}
}

// OptionRequired passes only when option key is set to want. Unlike
// OptionEquals an unset option fails.
func OptionRequired(name, key, want, message string) Check {
	return Check{
		Name:    name,
		Message: message,
		Predicate: func(ec *engine.ExecutionContext) (bool, error) {
			got, ok := ec.Option(key)
			return ok && got == want, nil
		},
	}
}

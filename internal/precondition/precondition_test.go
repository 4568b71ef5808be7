package precondition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertStopsAtFirstFailure(t *testing.T) {
	ec := newContext(t)
	var evaluated []string
	check := func(name string, ok bool) Check {
		return Check{
			Name:    name,
			Message: name + " failed",
			Predicate: func(*engine.ExecutionContext) (bool, error) {
				evaluated = append(evaluated, name)
				return ok, nil
			},
		}
	}

	err := Assert(ec, []Check{check("one", true), check("two", false), check("three", false)})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "two", pe.Check)
	assert.Equal(t, "two failed", pe.Message)
	assert.Equal(t, []string{"one", "two"}, evaluated)
}

func TestAssertPredicateError(t *testing.T) {
	boom := errors.New("boom")
	err := Assert(newContext(t), []Check{{
		Name:      "broken",
		Predicate: func(*engine.ExecutionContext) (bool, error) { return false, boom },
	}})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestAssertNilPredicate(t *testing.T) {
	err := Assert(newContext(t), []Check{{Name: "empty"}})
	var pe *Error
	require.ErrorAs(t, err, &pe)
}

func TestAssertNoChecks(t *testing.T) {
	require.NoError(t, Assert(newContext(t), nil))
}

func TestFileMatches(t *testing.T) {
	ec := newContext(t)
	gemfile := filepath.Join(ec.ProjectRoot, "Gemfile")
	require.NoError(t, os.WriteFile(gemfile, []byte("source 'https://rubygems.org'\n  gem \"pg\", \"~> 1.1\"\n"), 0644))

	pg := pattern.MustRegex(`^\s*gem ['"]pg['"]`)
	require.NoError(t, Assert(ec, []Check{FileMatches("postgres", "Gemfile", pg, "use --database=postgresql")}))

	mysql := pattern.MustRegex(`^\s*gem ['"]mysql2['"]`)
	err := Assert(ec, []Check{FileMatches("mysql", "Gemfile", mysql, "needs mysql2")})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "needs mysql2", pe.Message)

	err = Assert(ec, []Check{FileMatches("missing", "Gemfile.lock", pg, "no lockfile")})
	require.ErrorAs(t, err, &pe)
	assert.NoError(t, pe.Err)
}

func TestFileExists(t *testing.T) {
	ec := newContext(t)
	require.NoError(t, os.MkdirAll(filepath.Join(ec.ProjectRoot, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ec.ProjectRoot, "config", "application.rb"), nil, 0644))

	require.NoError(t, Assert(ec, []Check{FileExists("app", "config/application.rb", "")}))
	require.Error(t, Assert(ec, []Check{FileExists("routes", "config/routes.rb", "")}))
	require.Error(t, Assert(ec, []Check{FileExists("escape", "../x", "")}))
}

func TestOptionEquals(t *testing.T) {
	ec := newContext(t)
	check := OptionEquals("skip_gemfile", "skip_gemfile", "false", "this recipe needs a Gemfile")

	require.NoError(t, Assert(ec, []Check{check}), "unset options pass")

	ec.Options["skip_gemfile"] = "false"
	require.NoError(t, Assert(ec, []Check{check}))

	ec.Options["skip_gemfile"] = "true"
	err := Assert(ec, []Check{check})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "this recipe needs a Gemfile")
}

func TestOptionRequired(t *testing.T) {
	ec := newContext(t)
	check := OptionRequired("skip_spring", "skip_spring", "true", "this recipe needs --skip-spring")

	err := Assert(ec, []Check{check})
	require.Error(t, err, "unset required options fail")
	assert.Contains(t, err.Error(), "this recipe needs --skip-spring")

	ec.Options["skip_spring"] = "false"
	require.Error(t, Assert(ec, []Check{check}))

	ec.Options["skip_spring"] = "true"
	require.NoError(t, Assert(ec, []Check{check}))
}

func TestTranslateConstraint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"~> 6.0.0", ">= 6.0.0, < 6.1.0"},
		{"~> 6.0", ">= 6.0, < 7.0.0"},
		{"~> 2.7.1", ">= 2.7.1, < 2.8.0"},
		{"~> 6", ">= 6, < 7.0.0"},
		{">= 1.2.0", ">= 1.2.0"},
		{"~> 6.0.0, >= 6.0.3", ">= 6.0.0, < 6.1.0, >= 6.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TranslateConstraint(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := TranslateConstraint("~> six")
	assert.Error(t, err)

	_, err = TranslateConstraint("~> 6.0.3.1")
	assert.Error(t, err)
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version    string
		constraint string
		want       bool
	}{
		{"6.0.3", "~> 6.0.0", true},
		{"6.1.0", "~> 6.0.0", false},
		{"5.2.4", "~> 6.0.0", false},
		{"6.9.0", "~> 6.0", true},
		{"7.0.0", "~> 6.0", false},
		{"6.9.9", "~> 6", true},
		{"7.0.0", "~> 6", false},
		{"v1.21.0", ">= 1.20", true},
		{"3.2.2", "^3.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.version+" "+tt.constraint, func(t *testing.T) {
			got, err := Satisfies(tt.version, tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Satisfies("dev", ">= 1.0.0")
	assert.Error(t, err)
}

func TestToolVersion(t *testing.T) {
	stubTool(t, "Rails 6.0.3.4\n", nil)

	ec := newContext(t)
	err := Assert(ec, []Check{ToolVersion("rails", "rails", []string{"--version"}, "~> 6.0.0", "requires Rails 6.0")})
	require.NoError(t, err)

	stubTool(t, "Rails 7.1.2\n", nil)
	err = Assert(ec, []Check{ToolVersion("rails", "rails", []string{"--version"}, "~> 6.0.0", "requires Rails 6.0")})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "requires Rails 6.0", pe.Message)
}

func TestDetectVersion(t *testing.T) {
	stubTool(t, "git version 2.43.0\n", nil)
	v, err := DetectVersion("git", "--version")
	require.NoError(t, err)
	assert.Equal(t, "2.43.0", v)

	stubTool(t, "no digits here", nil)
	_, err = DetectVersion("tool")
	assert.Error(t, err)

	stubTool(t, "", errors.New("exit status 127"))
	_, err = DetectVersion("tool")
	assert.Error(t, err)
}

func TestMinVersion(t *testing.T) {
	ec := newContext(t)
	ec.Options["ruby_version"] = "2.7.2"
	fromOption := func(ec *engine.ExecutionContext) (string, error) {
		v, _ := ec.Option("ruby_version")
		return v, nil
	}

	require.NoError(t, Assert(ec, []Check{MinVersion("ruby", ">= 2.7.0", fromOption, "")}))
	require.Error(t, Assert(ec, []Check{MinVersion("ruby", ">= 3.0.0", fromOption, "")}))
}

// ─── Test Helpers ──────────────────────────────────────────────────

func newContext(t *testing.T) *engine.ExecutionContext {
	t.Helper()
	ec, err := engine.NewExecutionContext(t.TempDir())
	require.NoError(t, err)
	return ec
}

func stubTool(t *testing.T, output string, err error) {
	t.Helper()
	orig := runTool
	runTool = func(string, ...string) ([]byte, error) { return []byte(output), err }
	t.Cleanup(func() { runTool = orig })
}

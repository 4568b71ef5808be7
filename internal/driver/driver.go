package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/precondition"
	"github.com/agentx-labs/tailor/internal/recipe"
	"github.com/agentx-labs/tailor/internal/render"
	"github.com/agentx-labs/tailor/internal/report"
	"github.com/agentx-labs/tailor/internal/source"
	"github.com/google/uuid"
)

// State is a step of the run state machine.
type State string

const (
	StateStart               State = "Start"
	StateSourceResolved      State = "SourceResolved"
	StatePreconditionsPassed State = "PreconditionsPassed"
	StateActionsApplied      State = "ActionsApplied"
	StateReported            State = "Reported"
)

// Request describes one run.
type Request struct {
	// ProjectDir must already exist.
	ProjectDir string
	// Source is where templates and the recipe are read from. When zero, the
	// recipe's own source field or the recipe's directory is used.
	Source source.Ref
	// RecipePath overrides recipe discovery in the source root.
	RecipePath string
	// Options are merged over the recipe's defaults.
	Options       map[string]string
	Pretend       bool
	Transactional bool
	Conflict      engine.ConflictPolicy
	Git           string
	Prompter      engine.Prompter
	Logger        *slog.Logger
	// Out receives pretend-mode diffs.
	Out io.Writer
	// Exit is called after cleanup when the run is interrupted. Defaults to
	// os.Exit.
	Exit func(code int)
}

// Result is the terminal state of a run.
type Result struct {
	// State is the last state reached before Reported.
	State   State
	Err     error
	Recipe  *recipe.Recipe
	Context *engine.ExecutionContext
	Summary *report.Summary
}

// Success reports whether every state was reached without error.
func (r *Result) Success() bool { return r.Err == nil }

// Run executes req and always returns a result.
func Run(req Request) *Result {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := &Result{State: StateStart}

	scope := source.NewScope()
	exit := req.Exit
	if exit == nil {
		exit = os.Exit
	}
	release := scope.TrapSignals(exit)
	defer func() {
		release()
		if err := scope.Close(); err != nil {
			logger.Warn("cleanup failed", "error", err)
		}
	}()

	res.Err = run(req, res, scope, logger)

	name := ""
	if res.Recipe != nil {
		name = res.Recipe.Name
	}
	res.Summary = report.New(res.Context, name, string(res.State), res.Err)
	logger.Debug("run finished", "state", res.State, "success", res.Success())
	return res
}

func run(req Request, res *Result, scope *source.Scope, logger *slog.Logger) error {
	ec, err := newContext(req, logger)
	if err != nil {
		return err
	}
	res.Context = ec

	// Start -> SourceResolved
	rcp, err := resolve(req, ec, scope, logger)
	if err != nil {
		return err
	}
	res.Recipe = rcp
	ec.Options = mergeOptions(rcp.Options, req.Options)
	res.State = StateSourceResolved

	actions, err := rcp.BuildActions()
	if err != nil {
		return fmt.Errorf("recipe %s: %w", rcp.Path, err)
	}
	checks, err := rcp.BuildChecks()
	if err != nil {
		return fmt.Errorf("recipe %s: %w", rcp.Path, err)
	}

	// SourceResolved -> PreconditionsPassed
	if err := precondition.Assert(ec, checks); err != nil {
		return err
	}
	res.State = StatePreconditionsPassed

	// PreconditionsPassed -> ActionsApplied
	if err := engine.Execute(actions, ec); err != nil {
		return err
	}
	res.State = StateActionsApplied
	return nil
}

func newContext(req Request, logger *slog.Logger) (*engine.ExecutionContext, error) {
	ec, err := engine.NewExecutionContext(req.ProjectDir)
	if err != nil {
		return nil, err
	}
	ec.Pretend = req.Pretend
	ec.Transactional = req.Transactional
	if req.Conflict != "" {
		ec.Conflict = req.Conflict
	}
	ec.Prompter = req.Prompter
	ec.Renderer = render.New()
	ec.Logger = logger
	if req.Out != nil {
		ec.Out = req.Out
	}
	ec.RunID = uuid.NewString()
	return ec, nil
}

// resolve fetches the source and loads the recipe. An explicit recipe path
// is loaded first so its source field can name the templates.
func resolve(req Request, ec *engine.ExecutionContext, scope *source.Scope, logger *slog.Logger) (*recipe.Recipe, error) {
	var rcp *recipe.Recipe
	ref := req.Source

	if req.RecipePath != "" && fileExists(req.RecipePath) {
		r, err := recipe.Load(req.RecipePath)
		if err != nil {
			return nil, err
		}
		rcp = r
		if ref.IsZero() {
			if rcp.Source != "" {
				ref = source.ParseRef(rcp.Source)
			} else {
				ref = source.Local(filepath.Dir(req.RecipePath))
			}
		}
	}
	if ref.IsZero() {
		if req.RecipePath != "" {
			return nil, fmt.Errorf("recipe %s not found", req.RecipePath)
		}
		return nil, errors.New("no source given: pass a source or a recipe file")
	}

	resolver := &source.Resolver{Git: req.Git, Scope: scope, Logger: logger}
	root, err := resolver.Resolve(ref, ec)
	if err != nil {
		return nil, err
	}
	if rcp != nil {
		return rcp, nil
	}

	path := req.RecipePath
	if path != "" {
		path = filepath.Join(root, path)
	} else if path, err = recipe.Find(root); err != nil {
		return nil, err
	}
	return recipe.Load(path)
}

func mergeOptions(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

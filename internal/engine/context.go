package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ConflictPolicy decides what happens when a copy or render target already
// exists and the action is not forced.
type ConflictPolicy string

const (
	// ConflictSkip leaves the existing file and records a warning.
	ConflictSkip ConflictPolicy = "skip"
	// ConflictOverwrite replaces the existing file.
	ConflictOverwrite ConflictPolicy = "overwrite"
	// ConflictPrompt asks the Prompter.
	ConflictPrompt ConflictPolicy = "prompt"
	// ConflictAbort fails the run with a ConflictError.
	ConflictAbort ConflictPolicy = "abort"
)

// ParseConflictPolicy validates a policy name. The empty string means skip.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictSkip, nil
	case ConflictSkip, ConflictOverwrite, ConflictPrompt, ConflictAbort:
		return p, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q: use skip, overwrite, prompt or abort", s)
	}
}

// Outcome is the recorded result of one action.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeSkippedConflict Outcome = "skipped-conflict"
	OutcomeSkippedNoop     Outcome = "skipped-noop"
	OutcomeSkippedNoMatch  Outcome = "skipped-nomatch"
	OutcomeFailed          Outcome = "failed"
)

// Entry is one line of the action log.
type Entry struct {
	Index   int     `json:"index"`
	Label   string  `json:"label"`
	Kind    Kind    `json:"kind"`
	Target  string  `json:"target"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
	Pretend bool    `json:"pretend,omitempty"`
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Renderer turns a template source into file content.
type Renderer interface {
	Render(name string, src []byte, ec *ExecutionContext) ([]byte, error)
}

// ExecutionContext is the run-wide state shared by every component. The run
// driver creates it once and passes it by reference.
type ExecutionContext struct {
	ProjectRoot string
	// Pretend reads and validates everything but writes nothing.
	Pretend bool
	// Transactional applies every action in memory and writes files only
	// after the whole sequence succeeded.
	Transactional bool
	// Conflict is the default policy for existing copy/render targets.
	Conflict ConflictPolicy
	// Options are opaque named values supplied by the operator and recipe.
	Options  map[string]string
	Prompter Prompter
	Renderer Renderer
	Logger   *slog.Logger
	// Out receives pretend-mode diffs.
	Out   io.Writer
	RunID string

	sourceRoots []string
	log         []Entry
	originals   map[string]snapshot
}

// snapshot is a project file as it was before the run first changed it.
type snapshot struct {
	data   []byte
	exists bool
}

// NewExecutionContext returns a context rooted at an existing project
// directory.
func NewExecutionContext(projectRoot string) (*ExecutionContext, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root %s: %w", projectRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}
	return &ExecutionContext{
		ProjectRoot: abs,
		Conflict:    ConflictSkip,
		Options:     map[string]string{},
		Out:         io.Discard,
		originals:   map[string]snapshot{},
	}, nil
}

// PushSource makes root the first directory searched for sources.
func (ec *ExecutionContext) PushSource(root string) {
	ec.sourceRoots = append(ec.sourceRoots, root)
}

// SourceRoots returns the source stack, most recently pushed first.
func (ec *ExecutionContext) SourceRoots() []string {
	roots := make([]string, 0, len(ec.sourceRoots))
	for i := len(ec.sourceRoots) - 1; i >= 0; i-- {
		roots = append(roots, ec.sourceRoots[i])
	}
	return roots
}

// SourcePath finds rel in the source roots, most recently pushed first.
func (ec *ExecutionContext) SourcePath(rel string) (string, error) {
	if err := checkRelative("source", rel); err != nil {
		return "", err
	}
	if len(ec.sourceRoots) == 0 {
		return "", fmt.Errorf("no source root to read %s from", rel)
	}
	for _, root := range ec.SourceRoots() {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("source %s not found in %s", rel, strings.Join(ec.SourceRoots(), ", "))
}

// ReadTarget reads rel from the project as it is now. Reads go through an
// os.Root, so a symlink pointing outside the project is an error. A missing
// file returns exists == false and no error.
func (ec *ExecutionContext) ReadTarget(rel string) (data []byte, exists bool, err error) {
	if err := checkRelative("target", rel); err != nil {
		return nil, false, err
	}
	root, err := os.OpenRoot(ec.ProjectRoot)
	if err != nil {
		return nil, false, fmt.Errorf("opening project root: %w", err)
	}
	defer root.Close()

	data, err = root.ReadFile(filepath.FromSlash(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, true, nil
}

// StatTarget stats rel inside the project without following symlinks out
// of it.
func (ec *ExecutionContext) StatTarget(rel string) (os.FileInfo, error) {
	if err := checkRelative("target", rel); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(ec.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("opening project root: %w", err)
	}
	defer root.Close()
	return root.Stat(filepath.FromSlash(rel))
}

// OriginalFile returns rel as it was before this run changed it. Files the
// run has not touched are read from disk.
func (ec *ExecutionContext) OriginalFile(rel string) (data []byte, exists bool, err error) {
	if s, ok := ec.originals[rel]; ok {
		return s.data, s.exists, nil
	}
	return ec.ReadTarget(rel)
}

func (ec *ExecutionContext) snapshots() map[string]snapshot {
	if ec.originals == nil {
		ec.originals = map[string]snapshot{}
	}
	return ec.originals
}

// Option returns a named option.
func (ec *ExecutionContext) Option(key string) (string, bool) {
	v, ok := ec.Options[key]
	return v, ok
}

// OptionBool reports whether a named option is set to a truthy value.
func (ec *ExecutionContext) OptionBool(key string) bool {
	switch strings.ToLower(ec.Options[key]) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

// Log returns a copy of the action log.
func (ec *ExecutionContext) Log() []Entry {
	return append([]Entry(nil), ec.log...)
}

func (ec *ExecutionContext) record(e Entry) {
	e.Index = len(ec.log)
	e.Pretend = ec.Pretend
	ec.log = append(ec.log, e)
}

func (ec *ExecutionContext) logger() *slog.Logger {
	if ec.Logger != nil {
		return ec.Logger
	}
	return slog.Default()
}

func (ec *ExecutionContext) out() io.Writer {
	if ec.Out != nil {
		return ec.Out
	}
	return io.Discard
}

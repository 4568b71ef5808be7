package source

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/tailor/internal/branding"
)

// Stack receives resolved source roots. The engine's execution context
// implements it.
type Stack interface {
	PushSource(root string)
}

// FetchError reports a source that could not be made available: a failed
// clone or checkout, or a missing local directory.
type FetchError struct {
	Ref    Ref
	Step   string // "open", "clone" or "checkout"
	Output string // combined git output, if any
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching source %s: %s failed: %v", e.Ref, e.Step, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Resolver turns refs into directories on disk. Remote checkouts live in
// temporary directories owned by Scope.
type Resolver struct {
	Git    string // git binary; defaults to "git"
	Scope  *Scope
	Logger *slog.Logger
}

// Resolve makes ref available locally, pushes the resulting root onto
// stack, and returns it. Local refs are used in place. Remote refs are
// cloned once, without retries, into a directory that is registered for
// removal before the clone starts.
func (r *Resolver) Resolve(ref Ref, stack Stack) (string, error) {
	if ref.IsZero() {
		return "", &FetchError{Ref: ref, Step: "open", Err: fmt.Errorf("no source given")}
	}

	var root string
	var err error
	if ref.IsRemote() {
		root, err = r.checkout(ref)
	} else {
		root, err = openLocal(ref)
	}
	if err != nil {
		return "", err
	}

	stack.PushSource(root)
	r.logger().Debug("source resolved", "ref", ref.String(), "root", root)
	return root, nil
}

func openLocal(ref Ref) (string, error) {
	abs, err := filepath.Abs(ref.Path)
	if err != nil {
		return "", &FetchError{Ref: ref, Step: "open", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &FetchError{Ref: ref, Step: "open", Err: err}
	}
	if !info.IsDir() {
		return "", &FetchError{Ref: ref, Step: "open", Err: fmt.Errorf("%s is not a directory", abs)}
	}
	return abs, nil
}

func (r *Resolver) checkout(ref Ref) (string, error) {
	if r.Scope == nil {
		return "", fmt.Errorf("resolving remote source %s: no cleanup scope", ref)
	}
	git := r.git()
	if err := ensureGit(git); err != nil {
		return "", &FetchError{Ref: ref, Step: "clone", Err: err}
	}

	dir, err := r.Scope.TempDir(branding.CLIName() + "-source-")
	if err != nil {
		return "", &FetchError{Ref: ref, Step: "clone", Err: err}
	}

	r.logger().Info("cloning source", "url", ref.URL, "dir", dir)
	cmd := exec.Command(git, "clone", "--quiet", ref.URL, dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", &FetchError{Ref: ref, Step: "clone", Output: strings.TrimSpace(string(output)), Err: err}
	}

	if ref.Revision != "" {
		r.logger().Info("checking out revision", "revision", ref.Revision)
		cmd = exec.Command(git, "checkout", "--quiet", ref.Revision)
		cmd.Dir = dir
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", &FetchError{Ref: ref, Step: "checkout", Output: strings.TrimSpace(string(output)), Err: err}
		}
	}

	return dir, nil
}

func (r *Resolver) git() string {
	if r.Git != "" {
		return r.Git
	}
	return "git"
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ensureGit checks that git is available on PATH.
func ensureGit(git string) error {
	if _, err := exec.LookPath(git); err != nil {
		return fmt.Errorf("%s is required but not found in PATH", git)
	}
	return nil
}

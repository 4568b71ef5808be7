package engine

import "fmt"

// PatternNotFoundError reports a strict anchor that did not match its
// target, or a target that does not exist.
type PatternNotFoundError struct {
	Path    string
	Pattern string
	Kind    Kind
	Missing bool // the target file itself does not exist
}

func (e *PatternNotFoundError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s: %s does not exist, cannot locate %s", e.Kind, e.Path, e.Pattern)
	}
	return fmt.Sprintf("%s: pattern %s not found in %s", e.Kind, e.Pattern, e.Path)
}

// ConflictError reports an existing copy/render target under the abort
// policy.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists; pass force or choose another conflict policy", e.Path)
}

// WriteError reports a filesystem mutation that failed.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/tailor/internal/pattern"
)

// Kind is the type of mutation an Action performs.
type Kind string

const (
	// KindCopy copies a source file verbatim.
	KindCopy Kind = "copy"
	// KindRender passes a source file through the Renderer before writing.
	KindRender Kind = "render"
	// KindInsertBefore splices content before the first anchor match.
	KindInsertBefore Kind = "insert-before"
	// KindInsertAfter splices content after the first anchor match.
	KindInsertAfter Kind = "insert-after"
	// KindSubstitute replaces every anchor match.
	KindSubstitute Kind = "substitute"
	// KindDelete removes the target if present.
	KindDelete Kind = "delete"
	// KindAppend writes content at the end of the target.
	KindAppend Kind = "append"
)

// Kinds lists every supported kind in documentation order.
var Kinds = []Kind{KindCopy, KindRender, KindInsertBefore, KindInsertAfter, KindSubstitute, KindDelete, KindAppend}

// ParseKind validates a kind name. Underscores are accepted in place of
// dashes so HCL block labels can stay identifiers.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(s, "_", "-"))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// needsAnchor reports whether the kind operates at a pattern.
func (k Kind) needsAnchor() bool {
	return k == KindInsertBefore || k == KindInsertAfter || k == KindSubstitute
}

func (k Kind) op() pattern.Op {
	switch k {
	case KindInsertBefore:
		return pattern.InsertBefore
	case KindInsertAfter:
		return pattern.InsertAfter
	default:
		return pattern.Substitute
	}
}

// Content is the payload of an action. Exactly one source is used, in this
// order: Block, Produce, File, Text.
type Content struct {
	Text string
	// File is read from the source roots, relative like Action.Source.
	File string
	// Produce computes the payload from the run state.
	Produce func(ec *ExecutionContext) (string, error)
	// Block receives the matched anchor text (insert and substitute only).
	Block func(match string) string
}

// TextContent returns literal content.
func TextContent(s string) Content { return Content{Text: s} }

// IsZero reports whether no payload was provided.
func (c Content) IsZero() bool {
	return c.Text == "" && c.File == "" && c.Produce == nil && c.Block == nil
}

func (c Content) payload(ec *ExecutionContext) (pattern.Payload, error) {
	switch {
	case c.Block != nil:
		return pattern.Block(c.Block), nil
	case c.Produce != nil:
		s, err := c.Produce(ec)
		if err != nil {
			return pattern.Payload{}, fmt.Errorf("producing content: %w", err)
		}
		return pattern.Text(s), nil
	case c.File != "":
		path, err := ec.SourcePath(c.File)
		if err != nil {
			return pattern.Payload{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return pattern.Payload{}, fmt.Errorf("reading content file %s: %w", path, err)
		}
		return pattern.Text(string(data)), nil
	default:
		return pattern.Text(c.Text), nil
	}
}

// Action is one declarative mutation step. Actions are values: build them
// once and do not modify them during a run.
type Action struct {
	Name    string
	Kind    Kind
	Target  string // relative to the project root
	Source  string // relative to a source root; copy and render only
	Anchor  pattern.Pattern
	Content Content
	// Force overwrites existing copy/render targets and re-applies inserts
	// whose content is already present.
	Force bool
	// Lenient records an unmatched anchor as skipped instead of failing the
	// run. Actions are strict unless Lenient is set.
	Lenient bool
	// OnConflict overrides the run's conflict policy for this action.
	OnConflict ConflictPolicy
	// When names an option that must be truthy for the action to run.
	When string
}

// Strict reports whether an unmatched anchor aborts the run.
func (a Action) Strict() bool { return !a.Lenient }

// TargetPath returns the target, defaulting copy/render targets to the
// source path with any ".tt" template suffix removed.
func (a Action) TargetPath() string {
	if a.Target != "" {
		return a.Target
	}
	if a.Kind == KindCopy || a.Kind == KindRender {
		return strings.TrimSuffix(a.Source, ".tt")
	}
	return ""
}

// Label names the action in logs and reports.
func (a Action) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.Kind) + " " + a.TargetPath()
}

// Validate checks the structural invariants of an action.
func (a Action) Validate() error {
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return err
	}

	target := a.TargetPath()
	if target == "" {
		return fmt.Errorf("%s: target is required", a.Kind)
	}
	if err := checkRelative("target", target); err != nil {
		return err
	}

	switch a.Kind {
	case KindCopy, KindRender:
		if a.Source == "" {
			return fmt.Errorf("%s %s: source is required", a.Kind, target)
		}
		if err := checkRelative("source", a.Source); err != nil {
			return err
		}
	case KindAppend:
		if a.Content.IsZero() {
			return fmt.Errorf("append %s: content is required", target)
		}
		if a.Content.Block != nil {
			return fmt.Errorf("append %s: block content needs an anchor", target)
		}
	}

	if a.Kind.needsAnchor() {
		if a.Anchor.IsEmpty() {
			return fmt.Errorf("%s %s: anchor is required", a.Kind, target)
		}
		if a.Content.IsZero() && a.Kind != KindSubstitute {
			return fmt.Errorf("%s %s: content is required", a.Kind, target)
		}
	}

	if a.Content.File != "" {
		if err := checkRelative("content file", a.Content.File); err != nil {
			return err
		}
	}

	if a.OnConflict != "" {
		if _, err := ParseConflictPolicy(string(a.OnConflict)); err != nil {
			return err
		}
	}
	return nil
}

// checkRelative rejects absolute paths and paths escaping their root.
func checkRelative(what, p string) error {
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return fmt.Errorf("%s %q must be a relative path inside its root", what, p)
	}
	return nil
}

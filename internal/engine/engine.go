package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agentx-labs/tailor/internal/pattern"
	"github.com/agentx-labs/tailor/internal/platform"
)

// Execute applies actions strictly in order. The first fatal error stops the
// run; actions already written stay written unless the context is
// transactional, in which case nothing reaches disk until every action has
// succeeded. In pretend mode every action is evaluated against an in-memory
// overlay, a unified diff is written to ec.Out, and the project is left
// untouched.
func Execute(actions []Action, ec *ExecutionContext) error {
	if ec == nil {
		return errors.New("execute: nil execution context")
	}
	ws, err := newWorkspace(ec)
	if err != nil {
		return err
	}
	defer ws.close()
	buffered := ec.Pretend || ec.Transactional

	for i, a := range actions {
		if err := a.Validate(); err != nil {
			ec.record(Entry{Label: a.Label(), Kind: a.Kind, Target: a.TargetPath(), Outcome: OutcomeFailed, Detail: err.Error()})
			ws.discard()
			return fmt.Errorf("action %d (%s): %w", i+1, a.Label(), err)
		}

		if a.When != "" && !ec.OptionBool(a.When) {
			ec.record(Entry{Label: a.Label(), Kind: a.Kind, Target: a.TargetPath(), Outcome: OutcomeSkippedNoop, Detail: "option " + a.When + " is not set"})
			continue
		}

		entry, err := apply(a, ws, ec)
		if err == nil && !buffered {
			err = ws.commit()
		}
		if err != nil {
			entry.Outcome = OutcomeFailed
			entry.Detail = err.Error()
			ec.record(entry)
			ws.discard()
			return fmt.Errorf("action %d (%s): %w", i+1, a.Label(), err)
		}
		ec.record(entry)
		ec.logger().Debug("action finished", "index", i+1, "kind", a.Kind, "target", entry.Target, "outcome", entry.Outcome)
	}

	switch {
	case ec.Pretend:
		defer ws.discard()
		return ws.diff(ec.out())
	case ec.Transactional:
		return ws.commit()
	}
	return nil
}

func apply(a Action, ws *workspace, ec *ExecutionContext) (Entry, error) {
	entry := Entry{Label: a.Label(), Kind: a.Kind, Target: a.TargetPath()}
	var (
		outcome Outcome
		detail  string
		err     error
	)
	switch a.Kind {
	case KindCopy, KindRender:
		outcome, detail, err = applyCopy(a, ws, ec)
	case KindInsertBefore, KindInsertAfter, KindSubstitute:
		outcome, detail, err = applyPattern(a, ws, ec)
	case KindDelete:
		outcome, detail, err = applyDelete(a, ws)
	case KindAppend:
		outcome, detail, err = applyAppend(a, ws, ec)
	default:
		err = fmt.Errorf("unsupported action kind %q", a.Kind)
	}
	entry.Outcome = outcome
	entry.Detail = detail
	return entry, err
}

// applyCopy handles copy and render. Existing targets go through the
// conflict policy unless the action is forced.
func applyCopy(a Action, ws *workspace, ec *ExecutionContext) (Outcome, string, error) {
	target := a.TargetPath()
	srcPath, err := ec.SourcePath(a.Source)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", "", fmt.Errorf("reading source %s: %w", a.Source, err)
	}
	mode := platform.ModeOf(srcPath, platform.DefaultFileMode)

	if a.Kind == KindRender {
		if ec.Renderer == nil {
			return "", "", fmt.Errorf("render %s: no renderer configured", target)
		}
		data, err = ec.Renderer.Render(a.Source, data, ec)
		if err != nil {
			return "", "", fmt.Errorf("rendering %s: %w", a.Source, err)
		}
	}

	existing, exists, err := ws.read(target)
	if err != nil {
		return "", "", err
	}
	if exists && !a.Force {
		identical := bytes.Equal(existing, data)
		overwrite, err := resolveConflict(a, target, ec)
		if err != nil {
			return "", "", err
		}
		if !overwrite {
			detail := "target exists"
			if identical {
				detail = "target exists with identical content"
			}
			ec.logger().Warn("skipping existing file", "target", target, "identical", identical)
			return OutcomeSkippedConflict, detail, nil
		}
	}

	ws.write(target, data, mode)
	detail := "created"
	if exists {
		detail = "overwritten"
	}
	if platform.IsExecutable(mode) {
		detail += ", executable"
	}
	return OutcomeApplied, detail, nil
}

// resolveConflict reports whether an existing target should be overwritten.
func resolveConflict(a Action, target string, ec *ExecutionContext) (bool, error) {
	policy := a.OnConflict
	if policy == "" {
		policy = ec.Conflict
	}
	switch policy {
	case ConflictOverwrite:
		return true, nil
	case ConflictAbort:
		return false, &ConflictError{Path: target}
	case ConflictPrompt:
		if ec.Prompter == nil {
			ec.logger().Warn("no prompter available, skipping", "target", target)
			return false, nil
		}
		ok, err := ec.Prompter.Confirm(fmt.Sprintf("Overwrite %s?", target))
		if err != nil {
			return false, fmt.Errorf("prompting for %s: %w", target, err)
		}
		return ok, nil
	default:
		return false, nil
	}
}

// applyPattern handles insert-before, insert-after and substitute.
func applyPattern(a Action, ws *workspace, ec *ExecutionContext) (Outcome, string, error) {
	target := a.TargetPath()
	data, exists, err := ws.read(target)
	if err != nil {
		return "", "", err
	}
	if !exists {
		if a.Strict() {
			return "", "", &PatternNotFoundError{Path: target, Pattern: a.Anchor.String(), Kind: a.Kind, Missing: true}
		}
		ec.logger().Warn("target missing, skipping", "kind", a.Kind, "target", target)
		return OutcomeSkippedNoMatch, "target does not exist", nil
	}

	payload, err := a.Content.payload(ec)
	if err != nil {
		return "", "", err
	}

	content := string(data)
	op := a.Kind.op()
	if op != pattern.Substitute && payload.Func == nil && !a.Force && pattern.Present(content, a.Anchor, op, payload.Text) {
		return OutcomeSkippedNoop, "content already present", nil
	}

	updated, matched := pattern.Apply(content, a.Anchor, op, payload)
	if !matched {
		if a.Strict() {
			return "", "", &PatternNotFoundError{Path: target, Pattern: a.Anchor.String(), Kind: a.Kind}
		}
		ec.logger().Warn("pattern not found, skipping", "kind", a.Kind, "target", target, "pattern", a.Anchor.String())
		return OutcomeSkippedNoMatch, "pattern " + a.Anchor.String() + " not found", nil
	}
	if updated == content {
		return OutcomeSkippedNoop, "content unchanged", nil
	}

	ws.write(target, []byte(updated), ws.mode(target))
	return OutcomeApplied, "", nil
}

func applyDelete(a Action, ws *workspace) (Outcome, string, error) {
	target := a.TargetPath()
	exists, err := ws.exists(target)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return OutcomeSkippedNoop, "already absent", nil
	}
	ws.remove(target)
	return OutcomeApplied, "removed", nil
}

func applyAppend(a Action, ws *workspace, ec *ExecutionContext) (Outcome, string, error) {
	target := a.TargetPath()
	data, exists, err := ws.read(target)
	if err != nil {
		return "", "", err
	}
	payload, err := a.Content.payload(ec)
	if err != nil {
		return "", "", err
	}
	content := string(data)
	if !a.Force && payload.Text != "" && strings.HasSuffix(content, payload.Text) {
		return OutcomeSkippedNoop, "content already present", nil
	}

	mode := platform.DefaultFileMode
	detail := "created"
	if exists {
		mode = ws.mode(target)
		detail = ""
	}
	ws.write(target, []byte(content+payload.Text), mode)
	return OutcomeApplied, detail, nil
}

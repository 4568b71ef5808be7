package recipe

import (
	"fmt"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/pattern"
	"github.com/agentx-labs/tailor/internal/precondition"
)

// BuildActions converts the recipe's action specs into engine actions. Every
// action is validated so a bad recipe fails before anything runs.
func (r *Recipe) BuildActions() ([]engine.Action, error) {
	actions := make([]engine.Action, 0, len(r.Actions))
	for i, spec := range r.Actions {
		a, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, a.Label(), err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (s ActionSpec) build() (engine.Action, error) {
	kind, err := engine.ParseKind(s.Kind)
	if err != nil {
		return engine.Action{}, err
	}

	a := engine.Action{
		Name:    s.Name,
		Kind:    kind,
		Target:  s.Target,
		Source:  s.Source,
		Force:   s.Force,
		Lenient: s.Strict != nil && !*s.Strict,
		When:    s.When,
		Content: engine.Content{Text: s.Content, File: s.ContentFile},
	}
	if s.Anchor != "" {
		if a.Anchor, err = pattern.Parse(s.Anchor); err != nil {
			return engine.Action{}, fmt.Errorf("anchor: %w", err)
		}
	}
	if s.OnConflict != "" {
		if a.OnConflict, err = engine.ParseConflictPolicy(s.OnConflict); err != nil {
			return engine.Action{}, err
		}
	}
	return a, nil
}

// BuildChecks converts the recipe's requirements into preconditions, in
// declared order.
func (r *Recipe) BuildChecks() ([]precondition.Check, error) {
	checks := make([]precondition.Check, 0, len(r.Requires))
	for _, req := range r.Requires {
		c, err := req.build()
		if err != nil {
			return nil, fmt.Errorf("requirement %s: %w", req.Name, err)
		}
		checks = append(checks, c)
	}
	return checks, nil
}

func (req Requirement) build() (precondition.Check, error) {
	switch {
	case req.Tool != "":
		if req.Version == "" {
			return precondition.Check{}, fmt.Errorf("tool %s needs a version constraint", req.Tool)
		}
		msg := req.Message
		if msg == "" {
			msg = fmt.Sprintf("%s %s is required", req.Tool, req.Version)
		}
		return precondition.ToolVersion(req.Name, req.Tool, req.Args, req.Version, msg), nil

	case req.File != "" && req.Matches != "":
		p, err := pattern.Parse(req.Matches)
		if err != nil {
			return precondition.Check{}, fmt.Errorf("matches: %w", err)
		}
		msg := req.Message
		if msg == "" {
			msg = fmt.Sprintf("%s does not match %s", req.File, p)
		}
		return precondition.FileMatches(req.Name, req.File, p, msg), nil

	case req.File != "":
		msg := req.Message
		if msg == "" {
			msg = req.File + " does not exist"
		}
		return precondition.FileExists(req.Name, req.File, msg), nil

	case req.Option != "":
		msg := req.Message
		if msg == "" {
			msg = fmt.Sprintf("option %s must be %q", req.Option, req.Equals)
		}
		if req.Required {
			return precondition.OptionRequired(req.Name, req.Option, req.Equals, msg), nil
		}
		return precondition.OptionEquals(req.Name, req.Option, req.Equals, msg), nil

	default:
		return precondition.Check{}, fmt.Errorf("one of tool, file or option is required")
	}
}

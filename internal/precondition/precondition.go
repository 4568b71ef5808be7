package precondition

import (
	"fmt"

	"github.com/agentx-labs/tailor/internal/engine"
)

// Predicate inspects the run state and reports whether a check passes. A
// non-nil error means the predicate could not be evaluated and is treated
// as a failure.
type Predicate func(ec *engine.ExecutionContext) (bool, error)

// Check is one named precondition.
type Check struct {
	Name      string
	Predicate Predicate
	// Message is shown to the operator when the check fails.
	Message string
}

// Error reports the first failed check.
type Error struct {
	Check   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "check failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("precondition %s: %s: %v", e.Check, msg, e.Err)
	}
	return fmt.Sprintf("precondition %s: %s", e.Check, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Assert evaluates checks in order and returns an *Error for the first one
// that does not pass. Later checks are not evaluated.
func Assert(ec *engine.ExecutionContext, checks []Check) error {
	for _, c := range checks {
		if c.Predicate == nil {
			return &Error{Check: c.Name, Message: "no predicate defined"}
		}
		ok, err := c.Predicate(ec)
		if err != nil || !ok {
			return &Error{Check: c.Name, Message: c.Message, Err: err}
		}
		if ec != nil && ec.Logger != nil {
			ec.Logger.Debug("precondition passed", "check", c.Name)
		}
	}
	return nil
}

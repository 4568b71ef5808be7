package cli

import (
	"errors"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/precondition"
	"github.com/agentx-labs/tailor/internal/source"
)

// Exit codes returned by the process.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitPrecondition    = 2
	ExitPatternNotFound = 3
	ExitConflict        = 4
	ExitSourceFetch     = 5
	ExitWrite           = 6
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var (
		pe  *precondition.Error
		pnf *engine.PatternNotFoundError
		ce  *engine.ConflictError
		fe  *source.FetchError
		we  *engine.WriteError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &pe):
		return ExitPrecondition
	case errors.As(err, &pnf):
		return ExitPatternNotFound
	case errors.As(err, &ce):
		return ExitConflict
	case errors.As(err, &fe):
		return ExitSourceFetch
	case errors.As(err, &we):
		return ExitWrite
	default:
		return ExitError
	}
}

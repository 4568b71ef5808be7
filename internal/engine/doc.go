// Package engine applies ordered file-mutation actions to a project tree.
//
// Actions run one at a time in declared order, because later actions often
// depend on files left by earlier ones. Each mutation is written to a
// sibling temporary file and renamed over its target. An unmatched strict
// anchor stops the run with a PatternNotFoundError and leaves the target
// untouched.
//
// The ExecutionContext carries every run-wide setting (pretend,
// transactional, conflict policy, options) and the append-only action log.
package engine

// Package driver runs a recipe against a project from start to report.
//
// A run moves linearly through Start, SourceResolved, PreconditionsPassed
// and ActionsApplied to Reported. Any failure jumps straight to Reported
// with the action log gathered so far. The driver owns the
// ExecutionContext and the scope holding temporary checkouts, which is
// closed on every exit path including SIGINT and SIGTERM.
package driver

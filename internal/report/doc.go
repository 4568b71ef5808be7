// Package report summarizes a run for the operator, as styled text or as
// JSON for scripts.
package report

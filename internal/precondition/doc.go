// Package precondition evaluates ordered checks against the target project
// before any mutation runs. The first failing check stops evaluation.
package precondition

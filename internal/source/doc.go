// Package source resolves where recipes and templates are read from: a local
// directory used in place, or a git repository cloned at a revision into a
// temporary directory whose removal is guaranteed by a Scope.
package source

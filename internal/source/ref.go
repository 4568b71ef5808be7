package source

import (
	"regexp"
	"strings"
)

// remotePrefixes are the URL schemes git can clone from.
var remotePrefixes = []string{"https://", "http://", "ssh://", "git://", "file://"}

// scpLike matches git's scp-style remote syntax, e.g. git@github.com:org/repo.git.
var scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:`)

// Ref identifies where templates and recipes are read from: either a local
// directory, or a repository URL plus an optional revision.
type Ref struct {
	Path     string // local directory; empty for remote refs
	URL      string // repository URL; empty for local refs
	Revision string // branch, tag or commit; empty means the default branch
}

// Local returns a Ref for a local directory.
func Local(path string) Ref { return Ref{Path: path} }

// Remote returns a Ref for a repository at a revision.
func Remote(url, revision string) Ref { return Ref{URL: url, Revision: revision} }

// ParseRef parses the textual form of a ref. Remote refs are URLs
// (https, http, ssh, git, file, or scp-style) with an optional "#revision"
// suffix; anything else is a local path.
func ParseRef(s string) Ref {
	if !IsRemote(s) {
		return Local(s)
	}
	url, rev, _ := strings.Cut(s, "#")
	return Remote(url, rev)
}

// IsRemote reports whether s looks like a git remote rather than a path.
func IsRemote(s string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return scpLike.MatchString(s)
}

// IsRemote reports whether the ref needs a checkout.
func (r Ref) IsRemote() bool { return r.URL != "" }

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool { return r.URL == "" && r.Path == "" }

// String returns the textual form accepted by ParseRef.
func (r Ref) String() string {
	if !r.IsRemote() {
		return r.Path
	}
	if r.Revision == "" {
		return r.URL
	}
	return r.URL + "#" + r.Revision
}

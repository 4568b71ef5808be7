package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op selects the mutation Apply performs at the anchor.
type Op int

const (
	// Substitute replaces every occurrence of the pattern in one pass.
	Substitute Op = iota
	// InsertBefore splices the payload immediately before the first match.
	InsertBefore
	// InsertAfter splices the payload immediately after the first match.
	InsertAfter
)

// String returns the action-kind spelling of the operation.
func (o Op) String() string {
	switch o {
	case Substitute:
		return "substitute"
	case InsertBefore:
		return "insert-before"
	case InsertAfter:
		return "insert-after"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Pattern is an anchor: either a literal substring or a compiled regular
// expression. The zero value is an empty literal, which never matches.
type Pattern struct {
	literal string
	re      *regexp.Regexp
}

// Literal returns a pattern matching s verbatim.
func Literal(s string) Pattern {
	return Pattern{literal: s}
}

// Regex compiles expr in multi-line mode, so ^ and $ match at line
// boundaries.
func Regex(expr string) (Pattern, error) {
	if expr == "" {
		return Pattern{}, fmt.Errorf("empty regular expression")
	}
	re, err := regexp.Compile("(?m)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling /%s/: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

// MustRegex is like Regex but panics on an invalid expression.
func MustRegex(expr string) Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse treats /expr/ as a regular expression and anything else as a
// literal. A leading backslash before the slash, as in \/usr/local/bin/,
// keeps a slash-delimited anchor literal.
func Parse(s string) (Pattern, error) {
	if strings.HasPrefix(s, `\/`) {
		return Literal(s[1:]), nil
	}
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		return Regex(s[1 : len(s)-1])
	}
	return Literal(s), nil
}

// IsRegex reports whether p is a regular expression.
func (p Pattern) IsRegex() bool { return p.re != nil }

// IsEmpty reports whether p can never match.
func (p Pattern) IsEmpty() bool { return p.re == nil && p.literal == "" }

// String describes the pattern for error messages: /expr/ for regular
// expressions, a quoted string for literals.
func (p Pattern) String() string {
	if p.re != nil {
		return "/" + strings.TrimPrefix(p.re.String(), "(?m)") + "/"
	}
	return strconv.Quote(p.literal)
}

// Matches reports whether the pattern occurs anywhere in content.
func (p Pattern) Matches(content string) bool {
	_, _, ok := p.find(content)
	return ok
}

// Capture returns the first capture group of the first match, or the whole
// match when the pattern has no groups.
func (p Pattern) Capture(content string) (string, bool) {
	if p.re != nil {
		m := p.re.FindStringSubmatch(content)
		switch {
		case m == nil:
			return "", false
		case len(m) > 1:
			return m[1], true
		default:
			return m[0], true
		}
	}
	start, end, ok := p.find(content)
	return content[start:end], ok
}

// find returns the byte range of the first match.
func (p Pattern) find(content string) (int, int, bool) {
	if p.re != nil {
		loc := p.re.FindStringIndex(content)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}
	if p.literal == "" {
		return 0, 0, false
	}
	i := strings.Index(content, p.literal)
	if i < 0 {
		return 0, 0, false
	}
	return i, i + len(p.literal), true
}

package pattern

import "strings"

// Payload is the text spliced in at an anchor. When Func is set it wins over
// Text and receives the matched anchor text; for Substitute it is called once
// per match.
type Payload struct {
	Text string
	Func func(match string) string
}

// Text returns a literal payload.
func Text(s string) Payload { return Payload{Text: s} }

// Block returns a payload computed from the matched anchor text.
func Block(fn func(match string) string) Payload { return Payload{Func: fn} }

func (pl Payload) render(match string) string {
	if pl.Func != nil {
		return pl.Func(match)
	}
	return pl.Text
}

// Apply performs op on content and reports whether the anchor matched. It
// never performs I/O; deciding what an unmatched anchor means is up to the
// caller. When matched is false, the returned content equals the input.
func Apply(content string, p Pattern, op Op, payload Payload) (string, bool) {
	switch op {
	case Substitute:
		return substitute(content, p, payload)
	case InsertBefore, InsertAfter:
		start, end, ok := p.find(content)
		if !ok {
			return content, false
		}
		text := payload.render(content[start:end])
		if op == InsertBefore {
			return content[:start] + text + content[start:], true
		}
		return content[:end] + text + content[end:], true
	default:
		return content, false
	}
}

// substitute replaces every match. Payload text is inserted verbatim, $
// included; use a Block to build the replacement from the match.
func substitute(content string, p Pattern, payload Payload) (string, bool) {
	if !p.Matches(content) {
		return content, false
	}
	if p.re != nil {
		if payload.Func != nil {
			return p.re.ReplaceAllStringFunc(content, payload.Func), true
		}
		return p.re.ReplaceAllLiteralString(content, payload.Text), true
	}
	if payload.Func == nil {
		return strings.ReplaceAll(content, p.literal, payload.Text), true
	}

	var b strings.Builder
	rest := content
	for {
		i := strings.Index(rest, p.literal)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(payload.Func(p.literal))
		rest = rest[i+len(p.literal):]
	}
	return b.String(), true
}

// Present reports whether inserting text at the first match of p would be
// a no-op because text already sits on that side of the anchor.
func Present(content string, p Pattern, op Op, text string) bool {
	if text == "" {
		return true
	}
	start, end, ok := p.find(content)
	if !ok {
		return false
	}
	switch op {
	case InsertBefore:
		return strings.HasSuffix(content[:start], text)
	case InsertAfter:
		return strings.HasPrefix(content[end:], text)
	default:
		return false
	}
}

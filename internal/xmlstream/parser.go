package xmlstream

import "strings"

type tagKind int

const (
	tagStart tagKind = iota
	tagEnd
	tagSelfClosing
	tagSkippable // comment or processing instruction
)

// Parser accepts byte chunks appended over time and yields one (node,
// path, text, attrs) event per Parse call (spec §4.A). It never buffers
// more than the longest single text node the caller accepts, and never
// over-reads: a partial trailing tag leaves Parse returning false with the
// partial bytes retained for the next Write.
type Parser struct {
	buf  []byte
	path []string
}

// NewParser returns an empty streaming parser.
func NewParser() *Parser {
	return &Parser{}
}

// Write appends bytes to the parser's internal buffer.
func (p *Parser) Write(b []byte) {
	p.buf = append(p.buf, b...)
}

// Reset discards all buffered state, the only supported way to restart
// the parser mid-stream.
func (p *Parser) Reset() {
	p.buf = nil
	p.path = nil
}

// Parse advances the parser until it can report one event, returning ok
// false when more input is required. node is the element the event
// belongs to (empty at the top level); path is the current open-element
// stack, top last; text is trimmed inner/leaf text; attrs is the raw
// attribute substring of a start or self-closing tag.
func (p *Parser) Parse() (node string, path []string, text string, attrs string, ok bool) {
	for {
		if len(p.buf) == 0 {
			return "", nil, "", "", false
		}

		lt := strings.IndexByte(string(p.buf), '<')
		if lt < 0 {
			// No tag boundary buffered yet; wait for more bytes rather than
			// guessing whether this is a complete text run.
			return "", nil, "", "", false
		}

		if lt > 0 {
			leading := p.buf[:lt]
			trimmed := strings.TrimSpace(string(leading))
			kind, name, gt, tagOK := peekTag(p.buf, lt)
			if !tagOK {
				return "", nil, "", "", false
			}
			if trimmed == "" {
				// Pure whitespace between tags: discard and keep scanning.
				p.buf = p.buf[lt:]
				continue
			}
			if kind == tagEnd && len(p.path) > 0 && name == p.path[len(p.path)-1] {
				// Leaf node: fold the preceding text into the end-tag event.
				poppedNode := p.path[len(p.path)-1]
				p.path = p.path[:len(p.path)-1]
				p.buf = p.buf[gt+1:]
				return poppedNode, clonePath(p.path), trimmed, "", true
			}
			// Text run as a sibling of upcoming markup: emit now, leave the
			// tag itself for the next call.
			p.buf = p.buf[lt:]
			cur := ""
			if len(p.path) > 0 {
				cur = p.path[len(p.path)-1]
			}
			return cur, clonePath(p.path), trimmed, "", true
		}

		// p.buf[0] == '<'
		kind, name, gt, tagOK := peekTag(p.buf, 0)
		if !tagOK {
			return "", nil, "", "", false
		}

		switch kind {
		case tagSkippable:
			p.buf = p.buf[gt+1:]
			continue
		case tagEnd:
			if len(p.path) == 0 {
				// Unmatched end tag: discard and recover.
				p.buf = p.buf[gt+1:]
				continue
			}
			poppedNode := p.path[len(p.path)-1]
			p.path = p.path[:len(p.path)-1]
			p.buf = p.buf[gt+1:]
			return poppedNode, clonePath(p.path), "", "", true
		case tagSelfClosing:
			a := extractAttrs(p.buf, name, gt, true)
			p.buf = p.buf[gt+1:]
			return name, clonePath(p.path), "", a, true
		default: // tagStart
			a := extractAttrs(p.buf, name, gt, false)
			p.path = append(p.path, name)
			p.buf = p.buf[gt+1:]
			return name, clonePath(p.path), "", a, true
		}
	}
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}

// peekTag inspects the tag starting at buf[start] (which must be '<') and
// reports its kind, name (for start/end/self-closing), and the index of
// its closing '>'. ok is false when the tag is not yet fully buffered.
func peekTag(buf []byte, start int) (kind tagKind, name string, gt int, ok bool) {
	n := len(buf)
	if start+1 >= n {
		return 0, "", 0, false
	}

	if buf[start+1] == '!' && start+3 < n && buf[start+2] == '-' && buf[start+3] == '-' {
		rest := string(buf[start+4:])
		idx := strings.Index(rest, "-->")
		if idx < 0 {
			return 0, "", 0, false
		}
		return tagSkippable, "", start + 4 + idx + 2, true
	}
	if buf[start+1] == '?' {
		rest := string(buf[start+2:])
		idx := strings.Index(rest, "?>")
		if idx < 0 {
			return 0, "", 0, false
		}
		return tagSkippable, "", start + 2 + idx + 1, true
	}

	isEnd := buf[start+1] == '/'
	nameStart := start + 1
	if isEnd {
		nameStart++
	}

	gtIdx := findGT(buf, start)
	if gtIdx < 0 {
		return 0, "", 0, false
	}

	selfClosing := false
	trailer := gtIdx - 1
	for trailer > start && isSpaceByte(buf[trailer]) {
		trailer--
	}
	if trailer > start && buf[trailer] == '/' && !isEnd {
		selfClosing = true
	}

	nameEnd := nameStart
	for nameEnd < gtIdx && !isSpaceByte(buf[nameEnd]) && buf[nameEnd] != '/' && buf[nameEnd] != '>' {
		nameEnd++
	}
	name = string(buf[nameStart:nameEnd])

	switch {
	case isEnd:
		return tagEnd, name, gtIdx, true
	case selfClosing:
		return tagSelfClosing, name, gtIdx, true
	default:
		return tagStart, name, gtIdx, true
	}
}

// findGT locates the '>' terminating the tag opened at buf[start],
// tracking quote state so a '>' inside an attribute value is not mistaken
// for the tag end (spec §4.A).
func findGT(buf []byte, start int) int {
	inQuote := false
	var quoteChar byte
	for i := start + 1; i < len(buf); i++ {
		c := buf[i]
		switch {
		case !inQuote && (c == '"' || c == '\''):
			inQuote = true
			quoteChar = c
		case inQuote && c == quoteChar:
			inQuote = false
		case !inQuote && c == '>':
			return i
		}
	}
	return -1
}

func extractAttrs(buf []byte, name string, gt int, selfClosing bool) string {
	nameStart := strings.IndexByte(string(buf[:gt]), '<')
	if nameStart < 0 {
		return ""
	}
	afterName := nameStart + 1
	if len(buf) > afterName && buf[afterName] == '/' {
		afterName++
	}
	afterName += len(name)

	end := gt
	if selfClosing {
		trailer := end - 1
		for trailer > afterName && isSpaceByte(buf[trailer]) {
			trailer--
		}
		if trailer > afterName && buf[trailer] == '/' {
			end = trailer
		}
	}
	if afterName >= end {
		return ""
	}
	return strings.TrimSpace(string(buf[afterName:end]))
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

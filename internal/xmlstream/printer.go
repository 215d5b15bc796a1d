// Package xmlstream implements the engine's incremental XML printer and
// parser (spec §4.A): no whole-document buffering, one event per Parse
// call, and an escaping sink for embedding XML inside XML text.
package xmlstream

import (
	"fmt"
	"io"
	"strconv"
)

// Printer writes balanced XML fragments to an io.Writer. It carries no
// state beyond the sink: callers are responsible for producing balanced
// output by construction, exactly as the original's stateless Print-based
// emitter does.
type Printer struct {
	w io.Writer
}

// NewPrinter wraps w for incremental XML emission.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Declaration writes the standard XML declaration line.
func (p *Printer) Declaration() error {
	_, err := io.WriteString(p.w, "<?xml version=\"1.0\"?>\n")
	return err
}

// StartTag writes "<[prefix:]name[ attrs]>" with no trailing newline.
func (p *Printer) StartTag(prefix, name, attrs string) error {
	tag := qualify(prefix, name)
	if attrs != "" {
		_, err := fmt.Fprintf(p.w, "<%s %s>", tag, attrs)
		return err
	}
	_, err := fmt.Fprintf(p.w, "<%s>", tag)
	return err
}

// EndTag writes "</[prefix:]name>".
func (p *Printer) EndTag(prefix, name string) error {
	_, err := fmt.Fprintf(p.w, "</%s>", qualify(prefix, name))
	return err
}

// Leaf writes a complete "<[prefix:]name[ attrs]>text</[prefix:]name>" node.
func (p *Printer) Leaf(prefix, name, attrs, text string) error {
	if err := p.StartTag(prefix, name, attrs); err != nil {
		return err
	}
	if _, err := io.WriteString(p.w, text); err != nil {
		return err
	}
	return p.EndTag(prefix, name)
}

// Argument writes a SOAP/SCPD <argument> element with its name/direction/
// relatedStateVariable triple (spec §4.A, used by the Service Descriptor
// Emitters).
func (p *Printer) Argument(name, direction, relatedStateVariable string) error {
	if err := p.StartTag("", "argument", ""); err != nil {
		return err
	}
	if err := p.Leaf("", "name", "", name); err != nil {
		return err
	}
	if err := p.Leaf("", "direction", "", direction); err != nil {
		return err
	}
	if err := p.Leaf("", "relatedStateVariable", "", relatedStateVariable); err != nil {
		return err
	}
	return p.EndTag("", "argument")
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

// EscapingWriter wraps an io.Writer, substituting &, <, > on every byte
// written through it. Used when embedding XML as text inside an XML text
// node (DIDL-Lite inside SOAP <Result>, the device-side NOTIFY <LastChange>
// wrapper).
type EscapingWriter struct {
	w io.Writer
}

// NewEscapingWriter wraps w.
func NewEscapingWriter(w io.Writer) *EscapingWriter {
	return &EscapingWriter{w: w}
}

func (e *EscapingWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		var err error
		switch b {
		case '&':
			_, err = io.WriteString(e.w, "&amp;")
		case '<':
			_, err = io.WriteString(e.w, "&lt;")
		case '>':
			_, err = io.WriteString(e.w, "&gt;")
		default:
			_, err = e.w.Write([]byte{b})
		}
		if err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// WriteString is a convenience wrapper around Write for string input.
func (e *EscapingWriter) WriteString(s string) (int, error) {
	return e.Write([]byte(s))
}

// EscapeText replaces &, <, > with their entity forms; the printer-side
// counterpart to Unescape.
func EscapeText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// Unescape replaces &amp; &lt; &gt; &quot; &apos; with their literal
// characters (spec §4.A: "entity decoding is the caller's job").
func Unescape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			out = append(out, s[i])
			continue
		}
		rest := s[i:]
		switch {
		case hasPrefix(rest, "&amp;"):
			out = append(out, '&')
			i += 4
		case hasPrefix(rest, "&lt;"):
			out = append(out, '<')
			i += 3
		case hasPrefix(rest, "&gt;"):
			out = append(out, '>')
			i += 3
		case hasPrefix(rest, "&quot;"):
			out = append(out, '"')
			i += 5
		case hasPrefix(rest, "&apos;"):
			out = append(out, '\'')
			i += 5
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// FormatDuration renders seconds as HH:MM:SS with two-digit fields, the
// playback time format required by spec §4.H.
func FormatDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// BoolArg renders a boolean as the "1"/"0" UPnP convention (spec §4.H).
func BoolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

package xmlstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type event struct {
	node  string
	path  []string
	text  string
	attrs string
}

func drain(t *testing.T, p *Parser) []event {
	t.Helper()
	var events []event
	for {
		node, path, text, attrs, ok := p.Parse()
		if !ok {
			break
		}
		events = append(events, event{node, append([]string(nil), path...), text, attrs})
	}
	return events
}

func TestParserLeafAndSelfClosing(t *testing.T) {
	p := NewParser()
	p.Write([]byte(`<root><a>hello</a><b/></root>`))

	events := drain(t, p)

	require.Len(t, events, 5)
	require.Equal(t, "root", events[0].node)
	require.Equal(t, "a", events[1].node)
	require.Equal(t, "hello", events[2].text)
	require.Equal(t, "b", events[3].node)
	require.Equal(t, "root", events[4].node)
}

func TestParserWaitsOnPartialTag(t *testing.T) {
	p := NewParser()
	p.Write([]byte(`<root><a>hello</a`))

	_, _, _, _, ok := p.Parse()
	require.True(t, ok) // <root>
	_, _, _, _, ok = p.Parse()
	require.True(t, ok) // <a>
	_, _, _, _, ok = p.Parse()
	require.False(t, ok) // </a> not fully buffered yet

	p.Write([]byte(`></root>`))
	node, _, text, _, ok := p.Parse()
	require.True(t, ok)
	require.Equal(t, "a", node)
	require.Equal(t, "hello", text)
}

func TestParserAttrsWithQuotedGT(t *testing.T) {
	p := NewParser()
	p.Write([]byte(`<stateVariable sendEvents="yes" note="a &gt; b"><name>X</name></stateVariable>`))

	node, _, _, attrs, ok := p.Parse()
	require.True(t, ok)
	require.Equal(t, "stateVariable", node)
	require.Contains(t, attrs, `sendEvents="yes"`)
}

func TestParserSkipsCommentsAndPIs(t *testing.T) {
	p := NewParser()
	p.Write([]byte(`<?xml version="1.0"?><root><!-- note --><a>x</a></root>`))

	events := drain(t, p)
	var names []string
	for _, e := range events {
		names = append(names, e.node)
	}
	require.Equal(t, []string{"root", "a", "a", "root"}, names)
}

func TestParserSiblingTextAroundNestedElement(t *testing.T) {
	p := NewParser()
	p.Write([]byte(`<a>before<b>x</b>after</a>`))

	events := drain(t, p)
	require.Len(t, events, 5)
	require.Equal(t, "a", events[0].node)
	require.Equal(t, "before", events[1].text)
	require.Equal(t, "b", events[2].node)
	require.Equal(t, "x", events[3].text)
	require.Equal(t, "a", events[4].node)
	require.Equal(t, "after", events[4].text)
}

func TestUnescapeAndEscapeRoundtrip(t *testing.T) {
	raw := `Tom & Jerry <say "hi">`
	escaped := EscapeText(raw)
	require.NotContains(t, escaped, "<")
	require.Equal(t, raw, Unescape(escaped))
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "00:00:05", FormatDuration(5))
	require.Equal(t, "01:02:03", FormatDuration(3723))
}

package scpd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAllFixtures(t *testing.T) {
	for _, name := range []ServiceName{AVTransport, RenderingControl, ConnectionManager, ContentDirectory} {
		d, err := Load(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, d.Actions, name)
		require.NotEmpty(t, d.StateVariables, name)
	}
}

func TestLoadUnknownService(t *testing.T) {
	_, err := Load(ServiceName("bogus"))
	require.Error(t, err)
}

func TestEmitAVTransportContainsKeyActions(t *testing.T) {
	d, err := Load(AVTransport)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, d))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, `<?xml version="1.0"?>`))
	require.Contains(t, out, "<name>Play</name>")
	require.Contains(t, out, "<name>SetAVTransportURI</name>")
	require.Contains(t, out, "<relatedStateVariable>A_ARG_TYPE_InstanceID</relatedStateVariable>")
	require.Contains(t, out, `<stateVariable sendEvents="yes">`)
}

func TestEmitBrowseArgumentOrderPreserved(t *testing.T) {
	d, err := Load(ContentDirectory)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, d))

	out := buf.String()
	result := strings.Index(out, "<name>Result</name>")
	updateID := strings.Index(out, "<name>UpdateID</name>")
	require.Greater(t, result, 0)
	require.Greater(t, updateID, result)
}

func TestDebugTreeMatchesActionCount(t *testing.T) {
	d, err := Load(RenderingControl)
	require.NoError(t, err)

	doc := DebugTree(d)
	actions := doc.FindElements("//actionList/action")
	require.Len(t, actions, len(d.Actions))
}

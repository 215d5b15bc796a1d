package httpheader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeoutRoundtrip(t *testing.T) {
	require.Equal(t, "Second-1800", FormatTimeout(1800))
	require.Equal(t, 1800, ParseTimeout("Second-1800"))
	require.Equal(t, DefaultTimeoutS, ParseTimeout("garbage"))
	require.Equal(t, DefaultTimeoutS, ParseTimeout("Second-0"))
}

func TestCallbackRoundtrip(t *testing.T) {
	require.Equal(t, "<http://10.0.0.5:8200/notify>", FormatCallback("http://10.0.0.5:8200/notify"))
	require.Equal(t, "http://10.0.0.5:8200/notify", ParseCallback(" <http://10.0.0.5:8200/notify> "))
}

func TestSeqRoundtrip(t *testing.T) {
	require.Equal(t, "0", FormatSeq(0))
	require.Equal(t, 42, ParseSeq("42"))
	require.Equal(t, 0, ParseSeq("nope"))
}

func TestSoapActionRoundtrip(t *testing.T) {
	v := SoapActionValue("urn:schemas-upnp-org:service:AVTransport:1", "Play")
	serviceType, action, ok := ParseSoapAction(v)
	require.True(t, ok)
	require.Equal(t, "urn:schemas-upnp-org:service:AVTransport:1", serviceType)
	require.Equal(t, "Play", action)
}

package registry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>Living Room</friendlyName>
    <manufacturer>Example Corp</manufacturer>
    <modelName>Speaker</modelName>
    <UDN>uuid:1234-5678</UDN>
    <iconList>
      <icon>
        <mimetype>image/png</mimetype>
        <width>64</width>
        <height>64</height>
        <depth>24</depth>
        <url>/icon.png</url>
      </icon>
    </iconList>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:AVTransport</serviceId>
        <SCPDURL>/AVTransport.xml</SCPDURL>
        <controlURL>/AVTransport/control</controlURL>
        <eventSubURL>/AVTransport/event</eventSubURL>
      </service>
    </serviceList>
  </device>
</root>`

func TestParseDescription(t *testing.T) {
	device, err := ParseDescription([]byte(sampleDescription))
	require.NoError(t, err)
	require.Equal(t, "uuid:1234-5678", device.UDN)
	require.Equal(t, "Living Room", device.FriendlyName)
	require.Len(t, device.Icons, 1)
	require.Equal(t, "image/png", device.Icons[0].Mime)
	require.Equal(t, 64, device.Icons[0].Width)
	require.Len(t, device.Services, 1)
	require.Equal(t, "urn:schemas-upnp-org:service:AVTransport:1", device.Services[0].ServiceType)
	require.Equal(t, "/AVTransport/control", device.Services[0].ControlURL)
}

func TestParseDescriptionMissingUDN(t *testing.T) {
	_, err := ParseDescription([]byte(`<root><device><friendlyName>X</friendlyName></device></root>`))
	require.Error(t, err)
}

func TestAddFromLocationDedupesByUDN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDescription))
	}))
	defer srv.Close()

	reg := New(nil)
	d1, err := reg.AddFromLocation(srv.URL + "/desc.xml")
	require.NoError(t, err)
	d2, err := reg.AddFromLocation(srv.URL + "/desc.xml")
	require.NoError(t, err)

	require.Equal(t, d1.UDN, d2.UDN)
	require.Equal(t, 1, reg.Count())
}

func TestRemove(t *testing.T) {
	reg := New(nil)
	reg.devices["uuid:x"] = nil
	reg.Remove("uuid:x")
	_, ok := reg.Get("uuid:x")
	require.False(t, ok)
}

package gena

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/model"
)

func newTestDevice(eventSubURL string) *model.DeviceInfo {
	return &model.DeviceInfo{
		UDN: "uuid:cp-test",
		Services: []model.ServiceInfo{
			{ServiceType: "urn:av", EventSubURL: eventSubURL},
		},
	}
}

func TestSubscribeToDeviceSetsSubscribedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "SUBSCRIBE", r.Method)
		w.Header().Set("SID", "uuid:sub-1")
		w.Header().Set("TIMEOUT", "Second-1800")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	device := newTestDevice(srv.URL)
	m := NewControlPointManager(device, "http://localhost:8081/notify", srv.Client(), nil)

	m.SubscribeToDevice(context.Background())

	require.Equal(t, model.Subscribed, device.Services[0].SubscriptionState)
	require.Equal(t, "uuid:sub-1", device.Services[0].EventSubSID)
}

func TestUnsubscribeFromDeviceClearsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	device := newTestDevice(srv.URL)
	device.Services[0].SubscriptionState = model.Subscribed
	device.Services[0].EventSubSID = "uuid:sub-1"

	m := NewControlPointManager(device, "http://localhost:8081/notify", srv.Client(), nil)
	m.UnsubscribeFromDevice(context.Background())

	require.Equal(t, model.Unsubscribed, device.Services[0].SubscriptionState)
	require.Empty(t, device.Services[0].EventSubSID)
}

func TestHandleNotifyInvokesCallbackPerVariable(t *testing.T) {
	device := newTestDevice("/event")
	device.Services[0].EventSubSID = "uuid:sub-1"
	device.Services[0].SubscriptionState = model.Subscribed

	m := NewControlPointManager(device, "http://localhost:8081/notify", nil, nil)

	var got []string
	m.SetEventCallback(func(sid, varName, newValue string) {
		got = append(got, sid+":"+varName+"="+newValue)
	})

	body := `<?xml version="1.0"?><e:propertyset xmlns:e="urn:schemas-upnp-org:metadata-1-0/events"><e:property><Volume>42</Volume></e:property></e:propertyset>`
	req := httptest.NewRequest("NOTIFY", "/event", strings.NewReader(body))
	req.Header.Set("SID", "uuid:sub-1")
	w := httptest.NewRecorder()

	m.HandleNotify(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, got, "uuid:sub-1:Volume=42")
}

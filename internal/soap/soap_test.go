package soap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/model"
)

func TestBuildEnvelopeAndParseRequestRoundtrip(t *testing.T) {
	envelope := BuildEnvelope("urn:av", "SetVolume", []model.Argument{
		{Name: "InstanceID", Value: "0"},
		{Name: "DesiredVolume", Value: "42"},
	})

	args, err := ParseRequest(envelope, "SetVolume")
	require.NoError(t, err)
	require.Equal(t, []model.Argument{
		{Name: "InstanceID", Value: "0"},
		{Name: "DesiredVolume", Value: "42"},
	}, args)
}

func TestBuildResponseEnvelopeAndParseResponseRoundtrip(t *testing.T) {
	envelope := BuildResponseEnvelope("urn:av", "GetVolume", []model.Argument{
		{Name: "CurrentVolume", Value: "17"},
	})

	args, err := ParseResponse(envelope, "GetVolume")
	require.NoError(t, err)
	require.Equal(t, []model.Argument{{Name: "CurrentVolume", Value: "17"}}, args)
}

func TestParseFaultExtractsUPnPError(t *testing.T) {
	envelope := BuildFaultEnvelope(401, "Invalid Action")
	code, desc := ParseFault(envelope)
	require.Equal(t, "401", code)
	require.Equal(t, "Invalid Action", desc)
}

func TestClientInvokeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, `"urn:av#GetVolume"`, r.Header.Get("SOAPACTION"))
		w.Write(BuildResponseEnvelope("urn:av", "GetVolume", []model.Argument{{Name: "CurrentVolume", Value: "5"}}))
	}))
	defer srv.Close()

	c := NewClient(0)
	reply, err := c.Invoke(context.Background(), model.ActionRequest{
		ServiceType: "urn:av",
		ActionName:  "GetVolume",
		ControlURL:  srv.URL,
	})
	require.NoError(t, err)
	require.True(t, reply.Valid)
	v, ok := reply.Get("CurrentVolume")
	require.True(t, ok)
	require.Equal(t, "5", v)
}

func TestClientInvokeFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(BuildFaultEnvelope(402, "Invalid Args"))
	}))
	defer srv.Close()

	c := NewClient(0)
	reply, err := c.Invoke(context.Background(), model.ActionRequest{
		ServiceType: "urn:av",
		ActionName:  "SetVolume",
		ControlURL:  srv.URL,
	})
	require.Error(t, err)
	require.False(t, reply.Valid)
	require.Contains(t, err.Error(), "402")
}

func TestDispatcherServeControlInvokesHandler(t *testing.T) {
	device := &model.DeviceInfo{
		Services: []model.ServiceInfo{
			{
				ServiceType: "urn:av",
				Handler: func(req model.ActionRequest) (model.ActionReply, error) {
					iid, _ := req.Get("InstanceID")
					require.Equal(t, "0", iid)
					return model.NewActionReply(model.Argument{Name: "CurrentVolume", Value: "9"}), nil
				},
			},
		},
	}
	d := NewDispatcher(device)

	body := BuildEnvelope("urn:av", "GetVolume", []model.Argument{{Name: "InstanceID", Value: "0"}})
	req := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(body))
	req.Header.Set("SOAPACTION", `"urn:av#GetVolume"`)
	w := httptest.NewRecorder()

	d.ServeControl(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	args, err := ParseResponse(w.Body.Bytes(), "GetVolume")
	require.NoError(t, err)
	require.Equal(t, []model.Argument{{Name: "CurrentVolume", Value: "9"}}, args)
}

func TestDispatcherServeControlUnknownAction(t *testing.T) {
	device := &model.DeviceInfo{Services: []model.ServiceInfo{{ServiceType: "urn:av"}}}
	d := NewDispatcher(device)

	req := httptest.NewRequest(http.MethodPost, "/control", bytes.NewReader(nil))
	req.Header.Set("SOAPACTION", `"urn:other#Foo"`)
	w := httptest.NewRecorder()

	d.ServeControl(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	code, _ := ParseFault(w.Body.Bytes())
	require.Equal(t, "401", code)
}

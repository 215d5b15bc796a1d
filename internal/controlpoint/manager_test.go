package controlpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/registry"
)

func TestUdnPrefixSplitsOnDoubleColon(t *testing.T) {
	require.Equal(t, "uuid:device-1", udnPrefix("uuid:device-1::urn:schemas-upnp-org:service:AVTransport:1"))
	require.Equal(t, "uuid:device-1", udnPrefix("uuid:device-1"))
}

func TestExecuteActionsOverwritesReplyBetweenActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.Header.Get("SOAPACTION")
		w.Header().Set("Content-Type", "text/xml")
		if action == `"urn:test#First"` {
			w.Write([]byte(`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:FirstResponse xmlns:u="urn:test"><A>1</A></u:FirstResponse></s:Body></s:Envelope>`))
			return
		}
		w.Write([]byte(`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:SecondResponse xmlns:u="urn:test"><B>2</B></u:SecondResponse></s:Body></s:Envelope>`))
	}))
	defer server.Close()

	reg := registry.New(nil)
	mgr := NewManager(reg, config.Load(), "", nil)

	actions := []model.ActionRequest{
		{ServiceType: "urn:test", ControlURL: server.URL, ActionName: "First"},
		{ServiceType: "urn:test", ControlURL: server.URL, ActionName: "Second"},
	}

	reply, err := mgr.ExecuteActions(context.Background(), actions)
	require.NoError(t, err)
	require.True(t, reply.Valid)
	_, hasA := reply.Get("A")
	require.False(t, hasA, "reply from the first action must not survive into the final result")
	v, ok := reply.Get("B")
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestExecuteActionsStopsOnFirstFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reg := registry.New(nil)
	mgr := NewManager(reg, config.Load(), "", nil)

	actions := []model.ActionRequest{
		{ServiceType: "urn:test", ControlURL: server.URL, ActionName: "First"},
	}

	reply, err := mgr.ExecuteActions(context.Background(), actions)
	require.Error(t, err)
	require.False(t, reply.Valid)
}

func TestCallbackURLEmptyWithoutAddr(t *testing.T) {
	reg := registry.New(nil)
	mgr := NewManager(reg, config.Load(), "", nil)
	require.Equal(t, "", mgr.CallbackURL())
}


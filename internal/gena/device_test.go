package gena

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/model"
)

func TestSubscribeRejectsMissingCallback(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	sid := m.Subscribe(svc, "", "", 1800)
	require.Empty(t, sid)
}

func TestSubscribeMintsAndRenewsBySID(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	sid := m.Subscribe(svc, "", "http://caller/notify", 1800)
	require.NotEmpty(t, sid)
	require.Equal(t, 1, m.SubscriptionsCount())

	renewedSID := m.Subscribe(svc, sid, "", 60)
	require.Equal(t, sid, renewedSID)
	require.Equal(t, 1, m.SubscriptionsCount())
}

func TestSubscribeRenewsExistingByServiceAndCallback(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	sid1 := m.Subscribe(svc, "", "http://caller/notify", 1800)
	sid2 := m.Subscribe(svc, "", "http://caller/notify", 60)
	require.Equal(t, sid1, sid2)
	require.Equal(t, 1, m.SubscriptionsCount())
}

func TestUnsubscribeRemovesSubscription(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	sid := m.Subscribe(svc, "", "http://caller/notify", 1800)
	m.Unsubscribe(svc, sid)
	require.Equal(t, 0, m.SubscriptionsCount())
}

func TestAddChangeCapturesSeqBeforeIncrement(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	m.Subscribe(svc, "", "http://caller/notify", 1800)

	m.AddChange(svc, "<Event/>")
	require.Equal(t, 1, m.PendingCount())

	m.AddChange(svc, "<Event/>")
	require.Equal(t, 2, m.PendingCount())
	require.Equal(t, 0, m.pending[0].seq)
	require.Equal(t, 1, m.pending[1].seq)
}

func TestPublishDeliversAndClearsQueue(t *testing.T) {
	var gotSeq, gotNTS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSeq = r.Header.Get("SEQ")
		gotNTS = r.Header.Get("NTS")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewDeviceManager(srv.Client(), nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	m.Subscribe(svc, "", srv.URL, 1800)
	m.AddChange(svc, "<Event/>")

	delivered := m.Publish(context.Background())
	require.Equal(t, 1, delivered)
	require.Equal(t, "0", gotSeq)
	require.Equal(t, "upnp:propchange", gotNTS)
	require.Equal(t, 0, m.PendingCount())
}

func TestPublishDropsAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewDeviceManager(srv.Client(), nil)
	m.SetMaxRetries(1)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	m.Subscribe(svc, "", srv.URL, 1800)
	m.AddChange(svc, "<Event/>")

	m.Publish(context.Background())
	require.Equal(t, 1, m.PendingCount())
	m.Publish(context.Background())
	require.Equal(t, 0, m.PendingCount())
}

func TestSetActiveFalseClearsPending(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	m.Subscribe(svc, "", "http://caller/notify", 1800)
	m.AddChange(svc, "<Event/>")
	require.Equal(t, 1, m.PendingCount())

	m.SetActive(false)
	require.Equal(t, 0, m.PendingCount())

	m.AddChange(svc, "<Event/>")
	require.Equal(t, 0, m.PendingCount()) // inactive: AddChange is a no-op
}

func TestRemoveExpired(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}
	sid := m.Subscribe(svc, "", "http://caller/notify", 1)
	m.RemoveExpired(time.Now().Add(2 * time.Second))
	require.Equal(t, 0, m.SubscriptionsCount())
	_ = sid
}

func TestHandleSubscribeAndUnsubscribeHTTP(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}

	req := httptest.NewRequest("SUBSCRIBE", "/event", nil)
	req.Header.Set("CALLBACK", "<http://caller/notify>")
	req.Header.Set("NT", "upnp:event")
	w := httptest.NewRecorder()
	m.HandleSubscribe(w, req, svc)
	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Header().Get("SID")
	require.NotEmpty(t, sid)

	req2 := httptest.NewRequest("UNSUBSCRIBE", "/event", nil)
	req2.Header.Set("SID", sid)
	w2 := httptest.NewRecorder()
	m.HandleUnsubscribe(w2, req2, svc)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestUnsubscribeIgnoresSIDFromDifferentService(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svcA := &model.ServiceInfo{ServiceType: "urn:av"}
	svcB := &model.ServiceInfo{ServiceType: "urn:rc"}

	sid := m.Subscribe(svcA, "", "http://caller/notify", 1800)
	require.NotEmpty(t, sid)

	req := httptest.NewRequest("UNSUBSCRIBE", "/event", nil)
	req.Header.Set("SID", sid)
	w := httptest.NewRecorder()
	m.HandleUnsubscribe(w, req, svcB)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 1, m.SubscriptionsCount())

	renewed := m.Subscribe(svcB, sid, "", 60)
	require.Empty(t, renewed)
}

func TestHandleSubscribeRejectsMissingCallback(t *testing.T) {
	m := NewDeviceManager(nil, nil)
	svc := &model.ServiceInfo{ServiceType: "urn:av"}

	req := httptest.NewRequest("SUBSCRIBE", "/event", nil)
	w := httptest.NewRecorder()
	m.HandleSubscribe(w, req, svc)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

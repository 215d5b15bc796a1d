package gena

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tinydlna/dlna-engine-go/internal/httpheader"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// EventCallback is invoked for each state-variable change parsed out of a
// received NOTIFY body: sid identifies the subscription, varName/newValue
// are the element name and text content (spec §4.G, grounded on
// SubscriptionMgrControlPoint's event_callback signature).
type EventCallback func(sid, varName, newValue string)

// ControlPointManager issues SUBSCRIBE/UNSUBSCRIBE requests to remote
// device services on behalf of a control point and parses inbound NOTIFY
// deliveries (spec §4.G, grounded on
// original_source/src/dlna/SubscriptionMgrControlPoint.h).
type ControlPointManager struct {
	mu             sync.Mutex
	device         *model.DeviceInfo
	localCallback  string
	durationSec    int
	retryMs        int
	active         bool
	httpClient     *http.Client
	eventCallback  EventCallback
	lastProcessing time.Time
	logger         Logger
}

// NewControlPointManager returns a manager bound to device, delivering
// NOTIFYs to localCallback (this process's own HTTP callback URL).
func NewControlPointManager(device *model.DeviceInfo, localCallback string, httpClient *http.Client, logger Logger) *ControlPointManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &ControlPointManager{
		device:        device,
		localCallback: localCallback,
		durationSec:   3600,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// SetEventCallback registers the handler invoked for parsed NOTIFY
// property changes.
func (m *ControlPointManager) SetEventCallback(cb EventCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCallback = cb
}

// SetSubscriptionDurationSec overrides the requested TIMEOUT (default
// 3600, grounded on setEventSubscriptionDurationSec).
func (m *ControlPointManager) SetSubscriptionDurationSec(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seconds > 0 {
		m.durationSec = seconds
	}
}

// SetRetryMs sets the minimum spacing between Loop-driven subscription
// maintenance passes; 0 disables throttling (grounded on
// setEventSubscriptionRetryMs).
func (m *ControlPointManager) SetRetryMs(ms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryMs = ms
}

// SetActive drives subscribe-all or unsubscribe-all immediately (grounded
// on setEventSubscriptionActive).
func (m *ControlPointManager) SetActive(ctx context.Context, active bool) {
	m.mu.Lock()
	m.active = active
	m.mu.Unlock()
	if active {
		m.SubscribeToDevice(ctx)
	} else {
		m.UnsubscribeFromDevice(ctx)
	}
}

func (m *ControlPointManager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Loop performs due subscription maintenance (renewals, catching up
// services that aren't yet subscribed), throttled by RetryMs (spec §5,
// grounded on SubscriptionMgrControlPoint::loop).
func (m *ControlPointManager) Loop(ctx context.Context, now time.Time) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	if m.retryMs > 0 && !m.lastProcessing.IsZero() && now.Sub(m.lastProcessing) < time.Duration(m.retryMs)*time.Millisecond {
		m.mu.Unlock()
		return
	}
	m.lastProcessing = now
	m.mu.Unlock()

	m.updateSubscriptions(ctx, now)
}

func (m *ControlPointManager) updateSubscriptions(ctx context.Context, now time.Time) {
	if m.device == nil {
		return
	}
	for i := range m.device.Services {
		svc := &m.device.Services[i]
		switch svc.SubscriptionState {
		case model.Unsubscribed:
			m.subscribeToService(ctx, svc)
		case model.Subscribed:
			if !svc.TimeSubscriptionExpires.IsZero() && now.After(svc.TimeSubscriptionExpires) {
				m.subscribeToService(ctx, svc)
			}
		}
	}
}

// SubscribeToDevice subscribes to every service of the bound device
// (grounded on subscribeToDevice/subscribeNotifications(true)).
func (m *ControlPointManager) SubscribeToDevice(ctx context.Context) {
	if m.device == nil {
		return
	}
	for i := range m.device.Services {
		m.subscribeToService(ctx, &m.device.Services[i])
	}
}

// UnsubscribeFromDevice unsubscribes from every service of the bound
// device (grounded on unsubscribeFromDevice).
func (m *ControlPointManager) UnsubscribeFromDevice(ctx context.Context) {
	if m.device == nil {
		return
	}
	for i := range m.device.Services {
		m.unsubscribeFromService(ctx, &m.device.Services[i])
	}
}

func (m *ControlPointManager) subscribeToService(ctx context.Context, svc *model.ServiceInfo) {
	if svc.SubscriptionState == model.Subscribed && !svc.TimeSubscriptionExpires.IsZero() && time.Now().Before(svc.TimeSubscriptionExpires) {
		return
	}

	url := svc.EventSubURL
	if m.device.BaseURL != "" && !hasScheme(url) {
		url = m.device.BaseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", url, nil)
	if err != nil {
		m.logger.Printf("gena: subscribe request build failed: %v", err)
		return
	}
	req.Header.Set(httpheader.Timeout, httpheader.FormatTimeout(m.durationSec))
	if svc.EventSubSID != "" {
		req.Header.Set(httpheader.SID, svc.EventSubSID)
	} else {
		req.Header.Set(httpheader.NT, httpheader.NTEvent)
		req.Header.Set(httpheader.Callback, httpheader.FormatCallback(m.localCallback))
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Printf("gena: subscribe to %s failed: %v", url, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		m.logger.Printf("gena: subscribe to %s: status %d", url, resp.StatusCode)
		return
	}

	now := time.Now()
	svc.EventSubSID = resp.Header.Get(httpheader.SID)
	svc.SubscriptionState = model.Subscribed
	svc.TimeSubscriptionStarted = now
	svc.TimeSubscriptionConfirmed = now
	svc.TimeSubscriptionExpires = now.Add(time.Duration(httpheader.ParseTimeout(resp.Header.Get(httpheader.Timeout))) * time.Second)
}

func (m *ControlPointManager) unsubscribeFromService(ctx context.Context, svc *model.ServiceInfo) {
	if svc.SubscriptionState == model.Unsubscribed {
		return
	}

	url := svc.EventSubURL
	if m.device.BaseURL != "" && !hasScheme(url) {
		url = m.device.BaseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", url, nil)
	if err != nil {
		return
	}
	req.Header.Set(httpheader.SID, svc.EventSubSID)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		svc.EventSubSID = ""
		svc.SubscriptionState = model.Unsubscribed
		svc.TimeSubscriptionStarted = time.Time{}
		svc.TimeSubscriptionConfirmed = time.Time{}
		svc.TimeSubscriptionExpires = time.Time{}
	}
}

// GetServiceBySID returns the service whose current SID matches sid.
func (m *ControlPointManager) GetServiceBySID(sid string) (*model.ServiceInfo, bool) {
	if m.device == nil {
		return nil, false
	}
	for i := range m.device.Services {
		if m.device.Services[i].EventSubSID == sid {
			return &m.device.Services[i], true
		}
	}
	return nil, false
}

// UpdateReceived records that a NOTIFY was just received for sid, bumping
// the matching service's confirmation timestamp (grounded on
// updateReceived).
func (m *ControlPointManager) UpdateReceived(sid string) {
	svc, ok := m.GetServiceBySID(sid)
	if !ok {
		return
	}
	svc.TimeSubscriptionConfirmed = time.Now()
	svc.SubscriptionState = model.Subscribed
}

// HandleNotify implements the HTTP handler a control point registers for
// its GENA callback path: it updates the matching service's confirmation
// timestamp, streams the body through the XML parser, and invokes
// EventCallback once per non-empty leaf text value (grounded on
// SubscriptionMgrControlPoint::notifyHandler).
func (m *ControlPointManager) HandleNotify(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(httpheader.SID)
	m.UpdateReceived(sid)

	body, _ := io.ReadAll(r.Body)

	p := xmlstream.NewParser()
	p.Write(body)
	m.mu.Lock()
	cb := m.eventCallback
	m.mu.Unlock()

	for {
		node, _, text, _, ok := p.Parse()
		if !ok {
			break
		}
		if text == "" {
			continue
		}
		if cb != nil {
			cb(sid, node, text)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func hasScheme(url string) bool {
	for i := 0; i < len(url); i++ {
		if url[i] == ':' {
			return i+2 < len(url) && url[i+1] == '/' && url[i+2] == '/'
		}
		if url[i] == '/' {
			return false
		}
	}
	return false
}

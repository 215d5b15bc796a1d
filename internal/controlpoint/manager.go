// Package controlpoint implements the control-point runtime (spec §4.K):
// it drives discovery against the Device Registry, maintains one GENA
// subscription manager per discovered device, and executes queued SOAP
// actions against remote services. Grounded on the teacher's
// internal/discovery (SSDP request/reply loop) and internal/sonos (action
// queuing idiom), generalized from "poll Sonos speakers" to "poll any
// UPnP control target".
package controlpoint

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/gena"
	"github.com/tinydlna/dlna-engine-go/internal/httpd"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/registry"
	"github.com/tinydlna/dlna-engine-go/internal/schedule"
	"github.com/tinydlna/dlna-engine-go/internal/soap"
	"github.com/tinydlna/dlna-engine-go/internal/ssdp"
)

// Manager drives discovery and per-device GENA subscription maintenance
// for a control point (spec §4.K). One Manager serves one search session;
// callers wanting to keep discovering after Discover returns can call
// Loop indefinitely.
type Manager struct {
	cfg      config.Config
	registry *registry.Registry
	sched    *schedule.Scheduler
	client   *soap.Client
	logger   *log.Logger

	conn *net.UDPConn

	callbackAddr string
	httpServer   *http.Server

	cpByUDN map[string]*gena.ControlPointManager

	lastSchedulerTick     time.Time
	lastSubscriptionsTick time.Time
}

// NewManager returns a Manager backed by reg (a shared Device Registry) and
// cfg. callbackAddr, when non-empty, is the local address
// (e.g. ":8201") the NOTIFY callback server listens on; an empty value
// means this control point never subscribes to events.
func NewManager(reg *registry.Registry, cfg config.Config, callbackAddr string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		cfg:          cfg,
		registry:     reg,
		sched:        schedule.NewScheduler(logger),
		client:       soap.NewClient(time.Duration(cfg.HTTPRequestTimeoutMs) * time.Millisecond),
		logger:       logger,
		callbackAddr: callbackAddr,
		cpByUDN:      make(map[string]*gena.ControlPointManager),
	}
}

// Discover runs spec §4.K begin(): it configures the HTTP timeout
// (constructor time), optionally starts the NOTIFY callback server, joins
// UDP multicast, seeds an M-SEARCH burst, and blocks calling Loop until
// either maxWait elapses or at least one device has been found and minWait
// has elapsed. It returns whether at least one device was found.
func (m *Manager) Discover(ctx context.Context, searchTarget string, minWait, maxWait time.Duration) (bool, error) {
	if m.callbackAddr != "" {
		m.startCallbackServer()
	}

	conn, err := joinMulticast()
	if err != nil {
		return false, fmt.Errorf("controlpoint: %w", err)
	}
	m.conn = conn

	start := time.Now()
	mx := int(maxWait.Seconds())
	if mx < 1 {
		mx = 1
	}
	m.sched.Add(&schedule.Entry{
		Name:     "MSearch",
		NextFire: start,
		RepeatMs: m.cfg.MSearchRepeatMs,
		EndTime:  start.Add(maxWait),
		Process:  m.sendMSearch(searchTarget, mx),
	})

	for {
		now := time.Now()
		m.Loop(ctx, now)

		elapsed := now.Sub(start)
		found := m.registry.Count() > 0
		if elapsed >= maxWait {
			break
		}
		if found && elapsed >= minWait {
			break
		}

		select {
		case <-ctx.Done():
			return found, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	m.sched.SetActive(false)
	return m.registry.Count() > 0, nil
}

func joinMulticast() (*net.UDPConn, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", ssdp.MulticastAddr)
	if err != nil {
		return nil, err
	}
	return net.ListenMulticastUDP("udp4", nil, groupAddr)
}

func (m *Manager) sendMSearch(searchTarget string, mx int) func(time.Time) error {
	return func(time.Time) error {
		if m.conn == nil {
			return nil
		}
		groupAddr, err := net.ResolveUDPAddr("udp4", ssdp.MulticastAddr)
		if err != nil {
			return err
		}
		msg := ssdp.BuildMSearch(searchTarget, mx)
		_, err = m.conn.WriteToUDP([]byte(msg), groupAddr)
		return err
	}
}

func (m *Manager) startCallbackServer() {
	router := httpd.NewRouter(m.logger, "")
	router.Method("NOTIFY", "/notify", http.HandlerFunc(m.handleNotify))
	m.httpServer = &http.Server{
		Addr:              m.callbackAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := m.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Printf("controlpoint: callback server stopped: %v", err)
		}
	}()
}

func (m *Manager) handleNotify(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get("SID")
	for _, cp := range m.cpByUDN {
		if _, ok := cp.GetServiceBySID(sid); ok {
			cp.HandleNotify(w, r)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// CallbackURL returns the URL this control point's NOTIFY callback server
// listens on, for use as the CALLBACK header value during subscription.
func (m *Manager) CallbackURL() string {
	if m.callbackAddr == "" {
		return ""
	}
	return "http://" + m.callbackAddr + "/notify"
}

// Loop runs one cooperative cycle (spec §4.K loop()): read one UDP
// datagram and dispatch it by USN UDN prefix, then drive the scheduler and
// every device's GENA subscription manager.
func (m *Manager) Loop(ctx context.Context, now time.Time) {
	m.readOneDatagram(ctx, now)
	m.sched.Execute(now)

	for _, cp := range m.cpByUDN {
		cp.Loop(ctx, now)
	}
}

func (m *Manager) readOneDatagram(ctx context.Context, now time.Time) {
	if m.conn == nil {
		return
	}
	buf := make([]byte, 4096)
	_ = m.conn.SetReadDeadline(now)
	n, _, err := m.conn.ReadFromUDP(buf)
	if err != nil {
		return
	}
	msg := ssdp.Parse(string(buf[:n]))
	m.dispatch(ctx, msg)
}

// dispatch handles one parsed SSDP message per spec §4.K loop(): alive or
// search-reply means "device is live, look it up by UDN or add it";
// byebye means "mark its services inactive".
func (m *Manager) dispatch(ctx context.Context, msg ssdp.Message) {
	usn := msg.Get("USN")
	udn := udnPrefix(usn)
	if udn == "" {
		return
	}

	switch {
	case msg.IsSearchReply(), msg.Get("NTS") == "ssdp:alive":
		m.handleAlive(ctx, udn, msg.Get("LOCATION"))
	case msg.Get("NTS") == "ssdp:byebye":
		m.handleByebye(udn)
	}
}

func (m *Manager) handleAlive(ctx context.Context, udn, location string) {
	if dev, ok := m.registry.Get(udn); ok {
		dev.Active = true
		dev.LastSeen = time.Now()
		return
	}
	if location == "" {
		return
	}
	dev, err := m.registry.AddFromLocation(location)
	if err != nil {
		m.logger.Printf("controlpoint: add %s: %v", location, err)
		return
	}
	m.cpByUDN[dev.UDN] = gena.NewControlPointManager(dev, m.CallbackURL(), m.client.HTTPClient(), m.logger)
}

func (m *Manager) handleByebye(udn string) {
	if dev, ok := m.registry.Get(udn); ok {
		dev.Active = false
		for i := range dev.Services {
			dev.Services[i].Active = false
		}
	}
}

func udnPrefix(usn string) string {
	if idx := strings.Index(usn, "::"); idx >= 0 {
		return usn[:idx]
	}
	return usn
}

// ExecuteActions POSTs each queued action in order against its own
// ControlURL/ServiceType (spec §4.H), returning the reply from the last
// action executed: spec §4.K explicitly overwrites rather than
// accumulates the ActionReply between actions (see DESIGN.md's decided
// Open Question on this point). Returns an InvalidActionReply as soon as
// any action fails, without executing the remainder.
func (m *Manager) ExecuteActions(ctx context.Context, actions []model.ActionRequest) (model.ActionReply, error) {
	reply := model.InvalidActionReply()
	for _, action := range actions {
		r, err := m.client.Invoke(ctx, action)
		if err != nil {
			return model.InvalidActionReply(), err
		}
		reply = r
	}
	return reply, nil
}

// RegisterRoutes is exposed for callers that want to host the NOTIFY
// callback on a router they already manage instead of the Manager's own
// server (e.g. sharing one process-wide HTTP listener with a device
// Manager). Mutually exclusive with Discover's internal callback server.
func (m *Manager) RegisterRoutes(router chi.Router) {
	router.Method("NOTIFY", "/notify", http.HandlerFunc(m.handleNotify))
}

// Shutdown tears down the callback server and UDP socket.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.conn != nil {
		_ = m.conn.Close()
	}
	if m.httpServer != nil {
		return m.httpServer.Shutdown(ctx)
	}
	return nil
}

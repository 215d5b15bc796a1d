// Package device implements the device-side runtime (spec §4.J): it owns
// one model.DeviceInfo, registers the HTTP routes a UPnP device must serve,
// advertises itself over SSDP, and drains the GENA subscription manager on
// every cooperative loop tick. Grounded on the teacher's
// internal/discovery (UDP idiom) and internal/server (HTTP wiring),
// generalized from "poll one Sonos system" to "serve one arbitrary UPnP
// device".
package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/dlnaerr"
	"github.com/tinydlna/dlna-engine-go/internal/gena"
	"github.com/tinydlna/dlna-engine-go/internal/httpd"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/schedule"
	"github.com/tinydlna/dlna-engine-go/internal/scpd"
	"github.com/tinydlna/dlna-engine-go/internal/soap"
	"github.com/tinydlna/dlna-engine-go/internal/ssdp"
)

// postAliveStagger is the delay between the two PostAlive entries seeded at
// startup (spec §4.J step 7: "two copies raise delivery odds").
const postAliveStagger = 100 * time.Millisecond

// byeRepeat is the number of ssdp:byebye bursts end() sends, spaced
// byeInterval apart (spec §4.J end()).
const byeRepeat = 3

var byeInterval = 2 * time.Second / byeRepeat

// scpdNames maps a substring of a service's serviceType URN to the
// embedded fixture that describes it (internal/scpd.Load).
var scpdNames = map[string]scpd.ServiceName{
	"AVTransport":       scpd.AVTransport,
	"RenderingControl":  scpd.RenderingControl,
	"ConnectionManager": scpd.ConnectionManager,
	"ContentDirectory":  scpd.ContentDirectory,
}

func scpdNameForServiceType(serviceType string) (scpd.ServiceName, bool) {
	for substr, name := range scpdNames {
		if strings.Contains(serviceType, substr) {
			return name, true
		}
	}
	return "", false
}

// Manager owns one device's HTTP surface, SSDP advertisement, and GENA
// subscription table, driven by a caller's cooperative Loop calls (spec
// §4.J, §5).
type Manager struct {
	device *model.DeviceInfo
	cfg    config.Config
	gena   *gena.DeviceManager
	ctrl   *soap.Dispatcher
	sched  *schedule.Scheduler
	logger *log.Logger

	conn       *net.UDPConn
	httpServer *http.Server

	lastSchedulerTick     time.Time
	lastSubscriptionsTick time.Time
}

// NewManager validates device and returns a Manager ready to Start (spec
// §4.J begin() steps 1-2). It returns a dlnaerr-wrapped error when the base
// URL is localhost or a registered service is missing required fields.
func NewManager(dev *model.DeviceInfo, cfg config.Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := validateBaseURL(dev.BaseURL); err != nil {
		return nil, err
	}
	if err := validateServices(dev.Services); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPRequestTimeoutMs) * time.Millisecond}
	gm := gena.NewDeviceManager(httpClient, logger)
	gm.SetMaxRetries(cfg.MaxNotifyRetries)

	return &Manager{
		device: dev,
		cfg:    cfg,
		gena:   gm,
		ctrl:   soap.NewDispatcher(dev),
		sched:  schedule.NewScheduler(logger),
		logger: logger,
	}, nil
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return dlnaerr.New(dlnaerr.CodeInvalidArgs, "device base URL is required", 402)
	}
	u, err := model.ParseUrl(baseURL)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if u.Host == "localhost" || u.Host == "127.0.0.1" || u.Host == "::1" {
		return dlnaerr.New(dlnaerr.CodeInvalidArgs, "device base URL must not be localhost", 402)
	}
	return nil
}

func validateServices(services []model.ServiceInfo) error {
	for i := range services {
		s := &services[i]
		if s.SCPDURL == "" || s.ControlURL == "" || s.EventSubURL == "" {
			return dlnaerr.New(dlnaerr.CodeInvalidArgs, fmt.Sprintf("service %s is missing a required URL", s.ServiceType), 402)
		}
		if s.Handler == nil {
			return dlnaerr.New(dlnaerr.CodeInvalidArgs, fmt.Sprintf("service %s has no action handler", s.ServiceType), 402)
		}
	}
	return nil
}

// RegisterRoutes mounts every route spec §4.J steps 3-4 describe onto
// router: the device description, each service's SCPD/control/event-sub
// endpoints, and the `/`, `/index.html`, `/dlna/device.xml` rewrites to the
// device's own description path.
func (m *Manager) RegisterRoutes(router chi.Router) {
	descPath := m.device.DeviceDescriptionURL
	if descPath == "" {
		descPath = "/dlna/device.xml"
		m.device.DeviceDescriptionURL = descPath
	}

	descHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write(renderDescription(m.device))
	}
	router.Get(descPath, descHandler)
	for _, rewrite := range []string{"/", "/index.html", "/dlna/device.xml"} {
		if rewrite != descPath {
			router.Get(rewrite, descHandler)
		}
	}

	for i := range m.device.Services {
		svc := &m.device.Services[i]
		router.Get(svc.SCPDURL, m.scpdHandler(svc))
		router.Post(svc.ControlURL, m.ctrl.ServeControl)
		router.Method("SUBSCRIBE", svc.EventSubURL, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.gena.HandleSubscribe(w, r, svc)
		}))
		router.Method("UNSUBSCRIBE", svc.EventSubURL, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.gena.HandleUnsubscribe(w, r, svc)
		}))
	}
}

func (m *Manager) scpdHandler(svc *model.ServiceInfo) http.HandlerFunc {
	name, ok := scpdNameForServiceType(svc.ServiceType)
	return func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			http.NotFound(w, r)
			return
		}
		descriptor, err := scpd.Load(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := scpd.Emit(&buf, descriptor); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = io.Copy(w, &buf)
	}
}

// Start registers routes on a fresh router, begins serving HTTP, joins the
// SSDP multicast group, and seeds the two staggered PostAlive entries
// (spec §4.J begin() steps 3, 5-7). addr is the device's own HTTP listen
// address, e.g. ":8200".
func (m *Manager) Start(ctx context.Context, addr string) error {
	router := httpd.NewRouter(m.logger, "")
	m.RegisterRoutes(router)

	m.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := m.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Printf("device: http server stopped: %v", err)
		}
	}()

	conn, err := joinMulticast()
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	m.conn = conn

	now := time.Now()
	m.seedPostAlive(now)
	m.seedPostAlive(now.Add(postAliveStagger))

	return nil
}

func joinMulticast() (*net.UDPConn, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", ssdp.MulticastAddr)
	if err != nil {
		return nil, err
	}
	return net.ListenMulticastUDP("udp4", nil, groupAddr)
}

func (m *Manager) seedPostAlive(fireAt time.Time) {
	m.sched.Add(&schedule.Entry{
		Name:     "PostAlive",
		NextFire: fireAt,
		RepeatMs: m.cfg.PostAliveRepeatMs,
		Process:  m.postAlive,
	})
}

func (m *Manager) postAlive(now time.Time) error {
	if m.conn == nil {
		return nil
	}
	groupAddr, err := net.ResolveUDPAddr("udp4", ssdp.MulticastAddr)
	if err != nil {
		return err
	}
	location := m.device.BaseURL + m.device.DeviceDescriptionURL

	rootMsg := ssdp.BuildNotifyAlive(1800, location, ssdp.RootDeviceNT, m.device.USN(ssdp.RootDeviceNT))
	_, _ = m.conn.WriteToUDP([]byte(rootMsg), groupAddr)

	udnMsg := ssdp.BuildNotifyAlive(1800, location, m.device.UDN, m.device.USN(""))
	_, _ = m.conn.WriteToUDP([]byte(udnMsg), groupAddr)

	if m.device.DeviceType != "" {
		typeMsg := ssdp.BuildNotifyAlive(1800, location, m.device.DeviceType, m.device.USN(m.device.DeviceType))
		_, _ = m.conn.WriteToUDP([]byte(typeMsg), groupAddr)
	}

	for i := range m.device.Services {
		st := m.device.Services[i].ServiceType
		msg := ssdp.BuildNotifyAlive(1800, location, st, m.device.USN(st))
		_, _ = m.conn.WriteToUDP([]byte(msg), groupAddr)
	}
	return nil
}

// Loop runs one cooperative cycle (spec §4.J loop()): on a
// scheduler-interval boundary, read one inbound UDP datagram, reply to any
// M-SEARCH it carries, and execute the scheduler; on a
// subscriptions-interval boundary, publish pending NOTIFYs.
func (m *Manager) Loop(ctx context.Context, now time.Time) {
	if now.Sub(m.lastSchedulerTick) >= time.Duration(m.cfg.SchedulerIntervalMs)*time.Millisecond {
		m.lastSchedulerTick = now
		m.readOneDatagram(now)
		m.sched.Execute(now)
	}

	if now.Sub(m.lastSubscriptionsTick) >= time.Duration(m.cfg.SubscriptionsIntervalMs)*time.Millisecond {
		m.lastSubscriptionsTick = now
		m.gena.Publish(ctx)
	}
}

func (m *Manager) readOneDatagram(now time.Time) {
	if m.conn == nil {
		return
	}
	buf := make([]byte, 4096)
	_ = m.conn.SetReadDeadline(now)
	n, peer, err := m.conn.ReadFromUDP(buf)
	if err != nil {
		return
	}
	msg := ssdp.Parse(string(buf[:n]))
	if !msg.IsMSearch() {
		return
	}
	m.replyToSearch(peer, msg)
}

func (m *Manager) replyToSearch(peer *net.UDPAddr, msg ssdp.Message) {
	if !ssdp.InSameSubnet(localHost(m.conn), peer.IP.String(), m.cfg.DiscoveryNetmask) {
		return
	}
	st := msg.Get("ST")
	reply := ssdp.BuildMSearchReply(1800, m.device.BaseURL+m.device.DeviceDescriptionURL, st, m.device.USN(st))
	_, _ = m.conn.WriteToUDP([]byte(reply), peer)
}

func localHost(conn *net.UDPConn) string {
	if conn == nil {
		return ""
	}
	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || local.IP == nil {
		return ""
	}
	return local.IP.String()
}

// Shutdown sends three ssdp:byebye bursts byeInterval (2s/byeRepeat, about
// 667ms) apart (spec §4.J end()) then closes the HTTP server and UDP socket.
func (m *Manager) Shutdown(ctx context.Context) error {
	for i := 0; i < byeRepeat; i++ {
		m.sendByebye()
		if i < byeRepeat-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(byeInterval):
			}
		}
	}

	if m.conn != nil {
		_ = m.conn.Close()
	}
	if m.httpServer != nil {
		return m.httpServer.Shutdown(ctx)
	}
	return nil
}

func (m *Manager) sendByebye() {
	if m.conn == nil {
		return
	}
	groupAddr, err := net.ResolveUDPAddr("udp4", ssdp.MulticastAddr)
	if err != nil {
		return
	}
	msg := ssdp.BuildNotifyByebye(ssdp.RootDeviceNT, m.device.USN(ssdp.RootDeviceNT))
	_, _ = m.conn.WriteToUDP([]byte(msg), groupAddr)

	for i := range m.device.Services {
		svcMsg := ssdp.BuildNotifyByebye(m.device.Services[i].ServiceType, m.device.USN(m.device.Services[i].ServiceType))
		_, _ = m.conn.WriteToUDP([]byte(svcMsg), groupAddr)
	}
}

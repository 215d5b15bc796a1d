// Package registry implements the engine's Device Registry (spec §4.E): a
// deduplicated, UDN-keyed table of known UPnP devices, populated by
// fetching and parsing each device's description XML over HTTP.
package registry

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tinydlna/dlna-engine-go/internal/dlnaerr"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// Registry holds the set of devices discovered so far, keyed by UDN.
// Safe for concurrent use: device description fetches happen off the
// Control Point's single-threaded loop (spec §5 only constrains the
// cooperative engine loop itself, not the blocking HTTP fetch a caller
// chooses to run on its own goroutine).
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*model.DeviceInfo
	client  *http.Client
}

// New builds an empty Registry using client for description fetches. A nil
// client defaults to a 20 second timeout, matching spec §6's
// DLNA_HTTP_REQUEST_TIMEOUT_MS default.
func New(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Registry{devices: make(map[string]*model.DeviceInfo), client: client}
}

// Get returns the device registered under udn, if any.
func (r *Registry) Get(udn string) (*model.DeviceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[udn]
	return d, ok
}

// List returns a snapshot of all known devices.
func (r *Registry) List() []*model.DeviceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.DeviceInfo, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// Remove deletes a device from the registry.
func (r *Registry) Remove(udn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, udn)
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// AddFromLocation fetches and parses the device description XML at
// location, registering (or refreshing) the device under its UDN. Devices
// already known by UDN are replaced by the newly parsed record rather than
// duplicated (spec
// §3 invariant: one DeviceInfo per UDN).
func (r *Registry) AddFromLocation(location string) (*model.DeviceInfo, error) {
	resp, err := r.client.Get(location)
	if err != nil {
		return nil, dlnaerr.DeviceAddFailed(fmt.Sprintf("fetch %s: %v", location, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, dlnaerr.DeviceAddFailed(fmt.Sprintf("fetch %s: status %d", location, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dlnaerr.DeviceAddFailed(fmt.Sprintf("read %s: %v", location, err))
	}

	device, err := ParseDescription(body)
	if err != nil {
		return nil, dlnaerr.MalformedDescription(fmt.Sprintf("parse %s: %v", location, err))
	}
	device.DeviceDescriptionURL = location
	device.Active = true
	device.LastSeen = time.Now()
	if device.BaseURL == "" {
		device.BaseURL = deriveBaseURL(location)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[device.UDN] = device
	return device, nil
}

// deriveBaseURL falls back to the description URL's scheme://host:port
// when the description omits a URLBase element (spec §4.E edge case).
func deriveBaseURL(location string) string {
	idx := strings.Index(location, "://")
	if idx < 0 {
		return location
	}
	rest := location[idx+3:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return location
	}
	return location[:idx+3+slash]
}

// ParseDescription streams a device description document into a
// model.DeviceInfo using the incremental XML parser (spec §4.A/§4.E). It
// recognizes the top-level device fields, one level of <iconList>/<icon>,
// and <serviceList>/<service> entries.
func ParseDescription(data []byte) (*model.DeviceInfo, error) {
	p := xmlstream.NewParser()
	p.Write(data)

	device := &model.DeviceInfo{}
	var icon *model.Icon
	var service *model.ServiceInfo

	for {
		node, path, text, _, ok := p.Parse()
		if !ok {
			break
		}

		// A direct (non-leaf) </icon> or </service> end tag always carries
		// empty text; flush the in-progress record before the text-driven
		// field assignment below, which would otherwise skip it.
		if node == "icon" && !inPath(path, "icon") {
			if icon != nil {
				device.Icons = append(device.Icons, *icon)
				icon = nil
			}
			continue
		}
		if node == "service" && !inPath(path, "service") {
			if service != nil {
				device.Services = append(device.Services, *service)
				service = nil
			}
			continue
		}

		if text == "" {
			continue
		}

		switch {
		case inPath(path, "icon"):
			if icon == nil {
				icon = &model.Icon{}
			}
			applyIconField(icon, node, text)
		case inPath(path, "service"):
			if service == nil {
				service = &model.ServiceInfo{}
			}
			applyServiceField(service, node, text)
		case node == "URLBase":
			device.BaseURL = strings.TrimRight(text, "/")
		default:
			applyDeviceField(device, node, text)
		}
	}

	if device.UDN == "" {
		return nil, dlnaerr.MalformedDescription("device description missing UDN")
	}
	return device, nil
}

func inPath(path []string, name string) bool {
	for _, p := range path {
		if p == name {
			return true
		}
	}
	return false
}

func applyDeviceField(d *model.DeviceInfo, node, text string) {
	switch node {
	case "deviceType":
		d.DeviceType = text
	case "friendlyName":
		d.FriendlyName = text
	case "manufacturer":
		d.Manufacturer = text
	case "manufacturerURL":
		d.ManufacturerURL = text
	case "modelName":
		d.ModelName = text
	case "modelNumber":
		d.ModelNumber = text
	case "modelDescription":
		d.ModelDescription = text
	case "modelURL":
		d.ModelURL = text
	case "serialNumber":
		d.SerialNumber = text
	case "UDN":
		d.UDN = text
	}
}

func applyIconField(icon *model.Icon, node, text string) {
	switch node {
	case "mimetype":
		icon.Mime = text
	case "width":
		icon.Width = atoiSafe(text)
	case "height":
		icon.Height = atoiSafe(text)
	case "depth":
		icon.Depth = atoiSafe(text)
	case "url":
		icon.URL = text
	}
}

func applyServiceField(s *model.ServiceInfo, node, text string) {
	switch node {
	case "serviceType":
		s.ServiceType = text
	case "serviceId":
		s.ServiceID = text
	case "SCPDURL":
		s.SCPDURL = text
	case "controlURL":
		s.ControlURL = text
	case "eventSubURL":
		s.EventSubURL = text
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

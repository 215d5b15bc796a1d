package main

import (
	"strconv"
	"sync"

	"github.com/tinydlna/dlna-engine-go/internal/dlnaerr"
	"github.com/tinydlna/dlna-engine-go/internal/model"
)

const (
	avTransportType       = "urn:schemas-upnp-org:service:AVTransport:1"
	renderingControlType  = "urn:schemas-upnp-org:service:RenderingControl:1"
	connectionManagerType = "urn:schemas-upnp-org:service:ConnectionManager:1"
)

// rendererState is the in-memory transport/volume state the reference
// handlers below track; a real renderer would back this with an actual
// media pipeline, out of scope here (spec's Non-goals).
type rendererState struct {
	mu               sync.Mutex
	transportState   string
	currentURI       string
	volume           int
	mute             bool
}

func newRendererState() *rendererState {
	return &rendererState{transportState: "STOPPED", volume: 50}
}

func referenceRenderer(udn, friendlyName, baseURL string) *model.DeviceInfo {
	state := newRendererState()

	return &model.DeviceInfo{
		UDN:                  udn,
		DeviceType:           "urn:schemas-upnp-org:device:MediaRenderer:1",
		FriendlyName:         friendlyName,
		Manufacturer:         "tinydlna",
		ModelName:            "dlna-engine-go reference renderer",
		BaseURL:              baseURL,
		DeviceDescriptionURL: "/dlna/device.xml",
		Services: []model.ServiceInfo{
			{
				ServiceType:                 avTransportType,
				ServiceID:                   "urn:upnp-org:serviceId:AVTransport",
				SCPDURL:                     "/avt/scpd.xml",
				ControlURL:                  "/avt/control",
				EventSubURL:                 "/avt/event",
				SubscriptionNamespaceAbbrev: "AVT",
				Handler:                     state.handleAVTransport,
			},
			{
				ServiceType:                 renderingControlType,
				ServiceID:                   "urn:upnp-org:serviceId:RenderingControl",
				SCPDURL:                     "/rcs/scpd.xml",
				ControlURL:                  "/rcs/control",
				EventSubURL:                 "/rcs/event",
				SubscriptionNamespaceAbbrev: "RCS",
				Handler:                     state.handleRenderingControl,
			},
			{
				ServiceType:                 connectionManagerType,
				ServiceID:                   "urn:upnp-org:serviceId:ConnectionManager",
				SCPDURL:                     "/cms/scpd.xml",
				ControlURL:                  "/cms/control",
				EventSubURL:                 "/cms/event",
				SubscriptionNamespaceAbbrev: "CMS",
				Handler:                     state.handleConnectionManager,
			},
		},
	}
}

func (s *rendererState) handleAVTransport(req model.ActionRequest) (model.ActionReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.ActionName {
	case "SetAVTransportURI":
		uri, _ := req.Get("CurrentURI")
		s.currentURI = uri
		s.transportState = "STOPPED"
		return model.NewActionReply(), nil
	case "Play":
		s.transportState = "PLAYING"
		return model.NewActionReply(), nil
	case "Pause":
		s.transportState = "PAUSED_PLAYBACK"
		return model.NewActionReply(), nil
	case "Stop":
		s.transportState = "STOPPED"
		return model.NewActionReply(), nil
	case "GetTransportInfo":
		return model.NewActionReply(
			model.Argument{Name: "CurrentTransportState", Value: s.transportState},
			model.Argument{Name: "CurrentTransportStatus", Value: "OK"},
			model.Argument{Name: "CurrentSpeed", Value: "1"},
		), nil
	case "GetMediaInfo":
		return model.NewActionReply(
			model.Argument{Name: "NrTracks", Value: "1"},
			model.Argument{Name: "MediaDuration", Value: "0:00:00"},
			model.Argument{Name: "CurrentURI", Value: s.currentURI},
			model.Argument{Name: "CurrentURIMetaData", Value: ""},
			model.Argument{Name: "PlayMedium", Value: "NETWORK"},
		), nil
	case "GetPositionInfo":
		return model.NewActionReply(
			model.Argument{Name: "Track", Value: "1"},
			model.Argument{Name: "TrackDuration", Value: "0:00:00"},
			model.Argument{Name: "TrackURI", Value: s.currentURI},
			model.Argument{Name: "RelTime", Value: "0:00:00"},
			model.Argument{Name: "AbsTime", Value: "0:00:00"},
		), nil
	default:
		return model.ActionReply{}, dlnaerr.New(dlnaerr.CodeInvalidAction, "unsupported AVTransport action: "+req.ActionName, 401)
	}
}

func (s *rendererState) handleRenderingControl(req model.ActionRequest) (model.ActionReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.ActionName {
	case "GetVolume":
		return model.NewActionReply(model.Argument{Name: "CurrentVolume", Value: strconv.Itoa(s.volume)}), nil
	case "SetVolume":
		v, _ := req.Get("DesiredVolume")
		if n, ok := parseVolume(v); ok {
			s.volume = n
		}
		return model.NewActionReply(), nil
	case "GetMute":
		return model.NewActionReply(model.Argument{Name: "CurrentMute", Value: boolStr(s.mute)}), nil
	case "SetMute":
		v, _ := req.Get("DesiredMute")
		s.mute = v == "1" || v == "true"
		return model.NewActionReply(), nil
	default:
		return model.ActionReply{}, dlnaerr.New(dlnaerr.CodeInvalidAction, "unsupported RenderingControl action: "+req.ActionName, 401)
	}
}

func (s *rendererState) handleConnectionManager(req model.ActionRequest) (model.ActionReply, error) {
	switch req.ActionName {
	case "GetProtocolInfo":
		return model.NewActionReply(
			model.Argument{Name: "Source", Value: ""},
			model.Argument{Name: "Sink", Value: "http-get:*:audio/mpeg:*,http-get:*:video/mp4:*"},
		), nil
	case "GetCurrentConnectionIDs":
		return model.NewActionReply(model.Argument{Name: "ConnectionIDs", Value: "0"}), nil
	case "GetCurrentConnectionInfo":
		return model.NewActionReply(
			model.Argument{Name: "RcsID", Value: "-1"},
			model.Argument{Name: "AVTransportID", Value: "-1"},
			model.Argument{Name: "ProtocolInfo", Value: ""},
			model.Argument{Name: "PeerConnectionManager", Value: ""},
			model.Argument{Name: "PeerConnectionID", Value: "-1"},
			model.Argument{Name: "Direction", Value: "Input"},
			model.Argument{Name: "Status", Value: "OK"},
		), nil
	default:
		return model.ActionReply{}, dlnaerr.New(dlnaerr.CodeInvalidAction, "unsupported ConnectionManager action: "+req.ActionName, 401)
	}
}

func parseVolume(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}


package model

import "time"

// SubscriptionState is the control-point side per-service subscription
// state machine (spec §4.G).
type SubscriptionState int

const (
	Unsubscribed SubscriptionState = iota
	Subscribing
	Subscribed
	Unsubscribing
)

func (s SubscriptionState) String() string {
	switch s {
	case Unsubscribed:
		return "Unsubscribed"
	case Subscribing:
		return "Subscribing"
	case Subscribed:
		return "Subscribed"
	case Unsubscribing:
		return "Unsubscribing"
	default:
		return "Unknown"
	}
}

// Icon describes one device icon advertised in a device description.
type Icon struct {
	Mime   string
	Width  int
	Height int
	Depth  int
	URL    string
	// Data holds inline icon bytes when the device embeds them instead of
	// serving them from URL; nil when the icon is fetched separately.
	Data []byte
}

// ActionHandler invokes a device-side service action; it is the typed
// replacement for the legacy function-pointer+void* control callback
// (spec §9).
type ActionHandler func(req ActionRequest) (ActionReply, error)

// ServiceInfo describes one UPnP service exposed by a device, or (on the
// control-point side) discovered from one. It is owned by its DeviceInfo
// and never outlives it. Components such as gena's subscriptions and the
// device HTTP routes hold *ServiceInfo pointers into the owning
// DeviceInfo.Services rather than an ID.
type ServiceInfo struct {
	ServiceType string
	ServiceID   string
	SCPDURL     string
	ControlURL  string
	EventSubURL string

	// EventSubSID is the current subscription id held on the control-point
	// side, empty when unsubscribed.
	EventSubSID               string
	SubscriptionState         SubscriptionState
	TimeSubscriptionStarted   time.Time
	TimeSubscriptionConfirmed time.Time
	TimeSubscriptionExpires   time.Time

	// SubscriptionNamespaceAbbrev is the short service tag, e.g. "AVT",
	// "RCS", "CMS". gena.DeviceManager's NOTIFY body does not read it: the
	// LastChange text given to AddChange is embedded as given (escaped),
	// with no <Event>/<InstanceID> wrapper added.
	SubscriptionNamespaceAbbrev string
	InstanceID                  int
	Active                      bool

	// Handler is invoked by the SOAP dispatcher's device direction when a
	// control request matches one of this service's actions.
	Handler ActionHandler
}

// DeviceInfo describes a UPnP root device, either owned locally (device
// side) or discovered remotely (control-point side). Identity is UDN: two
// DeviceInfo values with equal UDN are the same device (spec §3).
type DeviceInfo struct {
	UDN                  string
	DeviceType           string
	FriendlyName         string
	Manufacturer         string
	ManufacturerURL      string
	ModelName            string
	ModelNumber          string
	ModelDescription     string
	ModelURL             string
	SerialNumber         string
	BaseURL              string
	DeviceDescriptionURL string
	Icons                []Icon
	Services             []ServiceInfo
	Active               bool
	LastSeen             time.Time
}

// ServiceByType returns a pointer into d.Services matching serviceType, or
// nil. The pointer is only valid until the next structural mutation of
// d.Services (append may reallocate); callers that need a stable handle
// across device-vector reallocations should use a Registry id instead.
func (d *DeviceInfo) ServiceByType(serviceType string) *ServiceInfo {
	for i := range d.Services {
		if d.Services[i].ServiceType == serviceType {
			return &d.Services[i]
		}
	}
	return nil
}

// USN renders the composite Unique Service Name "<UDN>::<notificationType>",
// or the bare UDN when notificationType is empty.
func (d *DeviceInfo) USN(notificationType string) string {
	if notificationType == "" {
		return d.UDN
	}
	return d.UDN + "::" + notificationType
}

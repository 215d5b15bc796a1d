package model

// Argument is a single ordered name/value pair inside an ActionRequest or
// ActionReply.
type Argument struct {
	Name  string
	Value string
}

// ActionRequest is built by the caller and consumed once by the SOAP
// dispatcher (spec §3).
type ActionRequest struct {
	ServiceType string
	ControlURL  string
	ActionName  string
	Arguments   []Argument
}

// Get returns the value of the named argument and whether it was present.
func (r ActionRequest) Get(name string) (string, bool) {
	for _, a := range r.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ActionReply preserves argument order from the SOAP response. The
// special argument named "Result" carries raw, unescaped DIDL-Lite and is
// never re-escaped when forwarded (spec §3, §4.H).
type ActionReply struct {
	Valid     bool
	Arguments []Argument
}

// Get returns the value of the named reply argument and whether it was
// present.
func (r ActionReply) Get(name string) (string, bool) {
	for _, a := range r.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// NewActionReply builds a valid reply from ordered arguments.
func NewActionReply(args ...Argument) ActionReply {
	return ActionReply{Valid: true, Arguments: args}
}

// InvalidActionReply is returned when the SOAP POST failed outright
// (non-200): valid=false, no arguments (spec §4.H.4, §7).
func InvalidActionReply() ActionReply {
	return ActionReply{Valid: false}
}

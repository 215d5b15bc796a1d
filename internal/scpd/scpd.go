// Package scpd renders the fixed Service Control Protocol Description XML
// for the engine's four built-in services (spec §4.I): ContentDirectory,
// ConnectionManager, AVTransport, RenderingControl. The action and state
// variable tables are loaded from embedded YAML fixtures — data the
// original hard-codes in printDescr()-style C++ methods
// (original_source/src/dlna/devices/MediaRenderer/DLNAMediaRendererDescr.h,
// original_source/src/dlna/devices/MediaServer/ms_connmgr.h,
// ms_content_dir.h) — so the emitter itself stays a small, generic,
// data-driven walker instead of four near-identical hand-written methods.
package scpd

// Argument is one <argument> entry inside an action's <argumentList>.
type Argument struct {
	Name                 string `yaml:"name"`
	Direction            string `yaml:"direction"`
	RelatedStateVariable string `yaml:"relatedStateVariable"`
}

// Action is one <action> entry inside <actionList>.
type Action struct {
	Name      string     `yaml:"name"`
	Arguments []Argument `yaml:"arguments"`
}

// StateVariable is one <stateVariable> entry inside
// <serviceStateTable>.
type StateVariable struct {
	Name          string   `yaml:"name"`
	DataType      string   `yaml:"dataType"`
	SendEvents    bool     `yaml:"sendEvents"`
	DefaultValue  string   `yaml:"defaultValue,omitempty"`
	AllowedValues []string `yaml:"allowedValues,omitempty"`
	Minimum       string   `yaml:"minimum,omitempty"`
	Maximum       string   `yaml:"maximum,omitempty"`
	Step          string   `yaml:"step,omitempty"`
}

// ServiceDescriptor is the parsed contents of one service's SCPD fixture.
type ServiceDescriptor struct {
	SpecMajor      int             `yaml:"specMajor"`
	SpecMinor      int             `yaml:"specMinor"`
	Actions        []Action        `yaml:"actions"`
	StateVariables []StateVariable `yaml:"stateVariables"`
}

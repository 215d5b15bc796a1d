package scpd

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixturesFS embed.FS

// ServiceName identifies one of the engine's four built-in services.
type ServiceName string

const (
	AVTransport       ServiceName = "avtransport"
	RenderingControl  ServiceName = "renderingcontrol"
	ConnectionManager ServiceName = "connectionmanager"
	ContentDirectory  ServiceName = "contentdirectory"
)

// Load parses the embedded YAML fixture for name.
func Load(name ServiceName) (*ServiceDescriptor, error) {
	data, err := fixturesFS.ReadFile("fixtures/" + string(name) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("scpd: unknown service %q: %w", name, err)
	}
	var d ServiceDescriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("scpd: malformed fixture %q: %w", name, err)
	}
	return &d, nil
}

package cluster

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ServiceKind names one of the two services a cluster can describe.
type ServiceKind string

const (
	ServiceChefServer ServiceKind = "chef-server"
	ServiceAnalytics  ServiceKind = "analytics"
)

// Topology describes how a service is deployed.
type Topology string

const (
	TopologyOpenSource Topology = "open-source" // Single node, open source build (chef-server only)
	TopologyStandalone Topology = "standalone"  // Single node
	TopologyTier       Topology = "tier"        // Split backend and frontend roles
)

// Server roles recognised in a server's attributes.
const (
	RoleBackend  = "backend"
	RoleFrontend = "frontend"
)

// Config is the cluster definition as read from the cluster's YAML file.
// Keys other than the two service sections are ignored.
type Config struct {
	ChefServer *ChefServerConfig `yaml:"chef-server"`
	Analytics  *AnalyticsConfig  `yaml:"analytics"`
}

// ServiceConfig holds the keys shared by both service sections.
type ServiceConfig struct {
	Topology Topology   `yaml:"topology" validate:"required"`
	Servers  ServerList `yaml:"servers" validate:"required"`
}

// ChefServerConfig is the "chef-server" section.
type ChefServerConfig struct {
	ServiceConfig `yaml:",inline"`
	APIFQDN       string `yaml:"api_fqdn" validate:"required"`
}

// AnalyticsConfig is the "analytics" section.
type AnalyticsConfig struct {
	ServiceConfig `yaml:",inline"`
	AnalyticsFQDN string `yaml:"analytics_fqdn" validate:"required"`
}

// ServerEntry is one named entry of a "servers" mapping.
type ServerEntry struct {
	Name       string
	Attributes ServerAttributes
}

// ServerList is a "servers" mapping that keeps the order in which the
// servers were written. A nil list means the key was absent.
type ServerList []ServerEntry

// UnmarshalYAML decodes a mapping node entry by entry so insertion order
// survives. A null server value yields nil attributes (no role).
func (l *ServerList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: servers must be a mapping", node.Line)
	}

	list := make(ServerList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var name string
		if err := key.Decode(&name); err != nil {
			return fmt.Errorf("line %d: server name: %w", key.Line, err)
		}

		var attrs ServerAttributes
		if err := value.Decode(&attrs); err != nil {
			return fmt.Errorf("server %q: %w", name, err)
		}

		list = append(list, ServerEntry{Name: name, Attributes: attrs})
	}

	*l = list
	return nil
}

// Lookup returns the attributes of the named server.
func (l ServerList) Lookup(name string) (ServerAttributes, bool) {
	for _, s := range l {
		if s.Name == name {
			return s.Attributes, true
		}
	}
	return nil, false
}

// Names returns the server names in insertion order.
func (l ServerList) Names() []string {
	names := make([]string, 0, len(l))
	for _, s := range l {
		names = append(names, s.Name)
	}
	return names
}

// ServerAttributes is the free-form attribute map of a server. Only role,
// bootstrap and ipaddress are interpreted.
type ServerAttributes map[string]any

// Role returns the server's role. A missing or null role reports false.
func (a ServerAttributes) Role() (string, bool) {
	v, ok := a["role"]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), true
	}
	return s, true
}

// Bootstrap reports whether the server is flagged as the bootstrap backend.
// Only a boolean true counts; strings such as "true" do not.
func (a ServerAttributes) Bootstrap() bool {
	b, ok := a["bootstrap"].(bool)
	return ok && b
}

// IPAddress returns the server's "ipaddress" attribute, or "" when unset.
func (a ServerAttributes) IPAddress() string {
	v, ok := a["ipaddress"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

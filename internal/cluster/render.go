package cluster

import (
	"fmt"
	"strings"
)

// ChefServerConfig renders the chef-server.rb text for the cluster's
// chef-server service. Only tier topologies get explicit server blocks.
func (c *Cluster) ChefServerConfig() (string, error) {
	svc, err := c.Service(ServiceChefServer)
	if err != nil {
		return "", err
	}

	var cb configBuilder
	cb.directive("api_fqdn", svc.FQDN)
	if svc.Topology != TopologyTier {
		return cb.String(), nil
	}

	cb.blank()
	cb.directive("topology", string(svc.Topology))
	if err := cb.tierBlocks(svc); err != nil {
		return "", err
	}
	return cb.String(), nil
}

// AnalyticsConfig renders the opscode-analytics.rb text for the cluster's
// analytics service. The topology line is always present.
func (c *Cluster) AnalyticsConfig() (string, error) {
	svc, err := c.Service(ServiceAnalytics)
	if err != nil {
		return "", err
	}

	var cb configBuilder
	cb.directive("analytics_fqdn", svc.FQDN)
	cb.directive("topology", string(svc.Topology))
	if svc.Topology != TopologyTier {
		return cb.String(), nil
	}

	if err := cb.tierBlocks(svc); err != nil {
		return "", err
	}
	return cb.String(), nil
}

// ServiceConfig renders the configuration text for the given service.
func (c *Cluster) ServiceConfig(kind ServiceKind) (string, error) {
	switch kind {
	case ServiceChefServer:
		return c.ChefServerConfig()
	case ServiceAnalytics:
		return c.AnalyticsConfig()
	}
	return "", fmt.Errorf("%s: %w", kind, ErrServiceNotDefined)
}

// configField is one ":key => value" line of a declaration block. Value is
// written as-is, so strings must already be quoted.
type configField struct {
	key   string
	value string
}

// configBuilder appends declarations in the order they are added.
type configBuilder struct {
	sb strings.Builder
}

func (cb *configBuilder) String() string { return cb.sb.String() }

func (cb *configBuilder) blank() { cb.sb.WriteString("\n") }

// directive writes `key "value"`.
func (cb *configBuilder) directive(key, value string) {
	fmt.Fprintf(&cb.sb, "%s %s\n", key, quote(value))
}

// block writes a blank line followed by `kind "name",` and its fields, one
// per line, separated by commas.
func (cb *configBuilder) block(kind, name string, fields ...configField) {
	cb.blank()
	fmt.Fprintf(&cb.sb, "%s %s", kind, quote(name))
	for _, f := range fields {
		fmt.Fprintf(&cb.sb, ",\n  :%s => %s", f.key, f.value)
	}
	cb.sb.WriteString("\n")
}

// tierBlocks writes the backend server, the backend vip and one block per
// frontend, in that order.
func (cb *configBuilder) tierBlocks(svc *ResolvedService) error {
	if !svc.HasBootstrapBackend() {
		return fmt.Errorf("%s: %w", svc.Kind, ErrNoBootstrapBackend)
	}

	backend := svc.BootstrapBackend
	backendIP := quote(svc.Attributes(backend).IPAddress())

	cb.block("server", backend,
		configField{"ipaddress", backendIP},
		configField{"role", quote(RoleBackend)},
		configField{"bootstrap", "true"},
	)
	cb.block("backend_vip", backend,
		configField{"ipaddress", backendIP},
	)

	for _, name := range svc.Frontends {
		cb.block("server", name,
			configField{"ipaddress", quote(svc.Attributes(name).IPAddress())},
			configField{"role", quote(RoleFrontend)},
		)
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}

package cluster

// Server is one machine the cluster needs, named by the service it belongs
// to. Servers are plain values built on demand by Cluster.Servers.
type Server struct {
	Name    string
	Service ServiceKind
	Config  *Config
}

// Servers returns every server of the cluster in bring-up order: the
// chef-server bootstrap backend, the chef-server frontends, then the same
// for analytics. Frontends are only listed for tier topologies.
func (c *Cluster) Servers() []Server {
	var servers []Server
	for _, svc := range []*ResolvedService{c.chefServer, c.analytics} {
		if svc == nil {
			continue
		}
		if svc.HasBootstrapBackend() {
			servers = append(servers, Server{Name: svc.BootstrapBackend, Service: svc.Kind, Config: c.config})
		}
		if svc.Topology == TopologyTier {
			for _, name := range svc.Frontends {
				servers = append(servers, Server{Name: name, Service: svc.Kind, Config: c.config})
			}
		}
	}
	return servers
}

// ServerNames returns the names from Servers in the same order.
func (c *Cluster) ServerNames() []string {
	servers := c.Servers()
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}
	return names
}

// Attributes returns the raw attributes of the server from its service
// section.
func (s Server) Attributes() ServerAttributes {
	if s.Config == nil {
		return nil
	}
	var list ServerList
	switch s.Service {
	case ServiceChefServer:
		if s.Config.ChefServer != nil {
			list = s.Config.ChefServer.Servers
		}
	case ServiceAnalytics:
		if s.Config.Analytics != nil {
			list = s.Config.Analytics.Servers
		}
	}
	attrs, _ := list.Lookup(s.Name)
	return attrs
}

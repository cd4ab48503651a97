package cluster

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTopology    = errors.New("topology is not defined")
	ErrServiceNotDefined  = errors.New("service is not defined in the cluster config")
	ErrNoBootstrapBackend = errors.New("bootstrap backend is not defined in the cluster config")
)

// ResolvedService is the role assignment derived from one service section.
type ResolvedService struct {
	Kind     ServiceKind
	Topology Topology
	FQDN     string

	// BootstrapBackend is empty when no server matched the backend rule.
	BootstrapBackend string
	Frontends        []string

	servers ServerList
}

// HasBootstrapBackend reports whether a bootstrap backend was resolved.
func (s *ResolvedService) HasBootstrapBackend() bool {
	return s.BootstrapBackend != ""
}

// Attributes returns the raw attributes of one of the service's servers.
func (s *ResolvedService) Attributes(name string) ServerAttributes {
	attrs, _ := s.servers.Lookup(name)
	return attrs
}

// Cluster holds a cluster definition together with its resolved services.
// It is immutable once built; build a new one to pick up config changes.
type Cluster struct {
	config     *Config
	chefServer *ResolvedService
	analytics  *ResolvedService
}

// NewCluster resolves the services defined in cfg. A present section without
// a topology, or missing one of its required keys, is an error.
func NewCluster(cfg *Config) (*Cluster, error) {
	c := &Cluster{config: cfg}

	if cfg.ChefServer != nil {
		svc, err := resolve(ServiceChefServer, &cfg.ChefServer.ServiceConfig, cfg.ChefServer.APIFQDN)
		if err != nil {
			return nil, err
		}
		if errs := requiredKeys(ServiceChefServer, cfg.ChefServer); len(errs) > 0 {
			return nil, errs[0]
		}
		c.chefServer = svc
	}

	if cfg.Analytics != nil {
		svc, err := resolve(ServiceAnalytics, &cfg.Analytics.ServiceConfig, cfg.Analytics.AnalyticsFQDN)
		if err != nil {
			return nil, err
		}
		if errs := requiredKeys(ServiceAnalytics, cfg.Analytics); len(errs) > 0 {
			return nil, errs[0]
		}
		c.analytics = svc
	}

	return c, nil
}

// Config returns the definition the cluster was built from.
func (c *Cluster) Config() *Config { return c.config }

// ChefServer returns the resolved chef-server service, or nil when the
// cluster config has no chef-server section.
func (c *Cluster) ChefServer() *ResolvedService { return c.chefServer }

// Analytics returns the resolved analytics service, or nil when the cluster
// config has no analytics section.
func (c *Cluster) Analytics() *ResolvedService { return c.analytics }

// Service returns the resolved service of the given kind.
func (c *Cluster) Service(kind ServiceKind) (*ResolvedService, error) {
	var svc *ResolvedService
	switch kind {
	case ServiceChefServer:
		svc = c.chefServer
	case ServiceAnalytics:
		svc = c.analytics
	}
	if svc == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrServiceNotDefined)
	}
	return svc, nil
}

// resolve assigns roles for one service section. Servers are visited in the
// order they were written. When several servers match the backend rule the
// last one wins.
func resolve(kind ServiceKind, svc *ServiceConfig, fqdn string) (*ResolvedService, error) {
	if svc.Topology == "" {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingTopology)
	}

	rs := &ResolvedService{
		Kind:      kind,
		Topology:  svc.Topology,
		FQDN:      fqdn,
		Frontends: []string{},
		servers:   svc.Servers,
	}

	for _, s := range svc.Servers {
		role, hasRole := s.Attributes.Role()

		switch {
		case svc.Topology == TopologyTier:
			if role == RoleBackend && s.Attributes.Bootstrap() {
				rs.BootstrapBackend = s.Name
			}
			if role == RoleFrontend {
				rs.Frontends = append(rs.Frontends, s.Name)
			}
		case kind.Supports(svc.Topology):
			// open-source and standalone run everything on the one
			// server that carries no role.
			if !hasRole {
				rs.BootstrapBackend = s.Name
			}
		}
	}

	return rs, nil
}

package cluster

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report yaml key names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError represents a field-level problem in a cluster definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks a cluster definition and returns every problem found.
// Besides missing required keys it flags topologies and roles the resolver
// will not match; those are not fatal to NewCluster.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.ChefServer == nil && cfg.Analytics == nil {
		add("", "No chef-server or analytics section is defined")
	}

	if cfg.ChefServer != nil {
		errs = append(errs, requiredKeys(ServiceChefServer, cfg.ChefServer)...)
		checkService(ServiceChefServer, &cfg.ChefServer.ServiceConfig, add)
	}
	if cfg.Analytics != nil {
		errs = append(errs, requiredKeys(ServiceAnalytics, cfg.Analytics)...)
		checkService(ServiceAnalytics, &cfg.Analytics.ServiceConfig, add)
	}

	return errs
}

// requiredKeys runs the struct tag validation for one service section.
func requiredKeys(kind ServiceKind, section any) []ValidationError {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: string(kind), Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fmt.Sprintf("%s.%s", kind, fe.Field()),
			Message: fmt.Sprintf("%q is required", fe.Field()),
		})
	}
	return out
}

func checkService(kind ServiceKind, svc *ServiceConfig, add func(field, msg string)) {
	if svc.Topology != "" && !kind.Supports(svc.Topology) {
		add(fmt.Sprintf("%s.topology", kind),
			fmt.Sprintf("Unknown topology %q, no server will be resolved", svc.Topology))
	}

	backends := 0
	for _, s := range svc.Servers {
		prefix := fmt.Sprintf("%s.servers.%s", kind, s.Name)
		role, ok := s.Attributes.Role()
		switch {
		case !ok:
			if svc.Topology != TopologyTier && kind.Supports(svc.Topology) {
				backends++
			}
		case role == RoleBackend:
			if svc.Topology == TopologyTier && s.Attributes.Bootstrap() {
				backends++
			}
		case role == RoleFrontend:
		default:
			add(prefix+".role", fmt.Sprintf("Unknown role %q, server will be ignored", role))
		}
	}

	if backends > 1 {
		add(fmt.Sprintf("%s.servers", kind),
			fmt.Sprintf("%d servers qualify as bootstrap backend, the last one wins", backends))
	}
}

// Supports reports whether the service has a resolution rule for t.
func (k ServiceKind) Supports(t Topology) bool {
	switch t {
	case TopologyStandalone, TopologyTier:
		return true
	case TopologyOpenSource:
		return k == ServiceChefServer
	}
	return false
}

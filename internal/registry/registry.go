package registry

import (
	"sync"

	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
)

// Registry maps service identities to their registered policies.
//
// It is populated during plugin registration at startup and read-only
// afterwards, except for further appends. Registration order is
// preserved: it decides short-name resolution and bulk-operation order.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]domain.ServicePolicy // identity -> policy
	order    []string                        // identities in registration order
	logger   logger.Logger
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	return &Registry{
		policies: make(map[string]domain.ServicePolicy),
		logger:   log,
	}
}

// Register adds a service policy. Registering the same identity again
// overwrites the previous policy (last registration wins) and is logged;
// the identity keeps its original position in the order.
func (r *Registry) Register(pol domain.ServicePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[pol.Identity]; exists {
		r.logger.Warn("duplicate service registration, overwriting policy",
			logger.String("identity", pol.Identity))
	} else {
		r.order = append(r.order, pol.Identity)
	}
	r.policies[pol.Identity] = pol
}

// Get retrieves a policy by identity.
func (r *Registry) Get(identity string) (domain.ServicePolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pol, ok := r.policies[identity]
	return pol, ok
}

// ResolveShortName returns the identity of the first registered service
// whose unqualified name matches. Ambiguous short names resolve to
// registration order; callers surface unresolved names as failures.
func (r *Registry) ResolveShortName(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, identity := range r.order {
		if r.policies[identity].ShortName() == name {
			return identity, true
		}
	}
	return "", false
}

// ListAll returns every registered policy in registration order.
// Used by the bulk enable/disable admin commands.
func (r *Registry) ListAll() []domain.ServicePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ServicePolicy, 0, len(r.order))
	for _, identity := range r.order {
		out = append(out, r.policies[identity])
	}
	return out
}

// ListVisible returns registered policies that are not marked
// invisible, in registration order. Used by listing surfaces.
func (r *Registry) ListVisible() []domain.ServicePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ServicePolicy, 0, len(r.order))
	for _, identity := range r.order {
		if pol := r.policies[identity]; !pol.Invisible {
			out = append(out, pol)
		}
	}
	return out
}

// Count returns the number of registered services.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.policies)
}

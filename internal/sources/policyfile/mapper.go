package policyfile

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/warden/internal/domain"
)

// Mapper converts policy file declarations to domain.ServicePolicy entities
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapPolicies converts a parsed policy file to []domain.ServicePolicy
func (m *Mapper) MapPolicies(file File) ([]domain.ServicePolicy, error) {
	policies := make([]domain.ServicePolicy, 0, len(file.Services)+len(file.Scheduled))

	for _, decl := range file.Services {
		if decl.Identity == "" {
			return nil, fmt.Errorf("service declaration without identity")
		}
		if decl.CD < 0 || decl.Limit < 0 {
			return nil, fmt.Errorf("service %s: cd and limit must not be negative", decl.Identity)
		}

		policies = append(policies, domain.ServicePolicy{
			Identity:        decl.Identity,
			Kind:            domain.KindHandler,
			Cooldown:        decl.CD,
			Limit:           decl.Limit,
			EnableOnDefault: enableOnDefault(decl.EnableOnDefault),
			Invisible:       decl.Invisible,
			Help:            decl.Help,
			CDPrompt:        decl.CDPrompt,
			LimitPrompt:     decl.LimitPrompt,
		})
	}

	for _, decl := range file.Scheduled {
		if decl.Identity == "" {
			return nil, fmt.Errorf("scheduled declaration without identity")
		}

		var interval time.Duration
		if decl.Interval != "" {
			d, err := time.ParseDuration(decl.Interval)
			if err != nil {
				return nil, fmt.Errorf("scheduled %s: invalid interval %q: %w", decl.Identity, decl.Interval, err)
			}
			interval = d
		}

		policies = append(policies, domain.ServicePolicy{
			Identity:        decl.Identity,
			Kind:            domain.KindScheduled,
			EnableOnDefault: enableOnDefault(decl.EnableOnDefault),
			Invisible:       decl.Invisible,
			Help:            decl.Help,
			Interval:        interval,
		})
	}

	if len(policies) == 0 {
		return nil, fmt.Errorf("no services declared in policy file")
	}

	return policies, nil
}

// enableOnDefault resolves the optional flag; services run by default
// unless the file says otherwise.
func enableOnDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

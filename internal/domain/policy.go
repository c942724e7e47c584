package domain

import (
	"strings"
	"time"
)

// ServiceKind distinguishes how a service is triggered.
type ServiceKind string

const (
	// KindHandler is a message-triggered command handler.
	// Subject to the group gate, cooldown and quota.
	KindHandler ServiceKind = "handler"

	// KindScheduled is a timer-triggered job.
	// Subject to the group gate only.
	KindScheduled ServiceKind = "scheduled"
)

// ServicePolicy is the registration-time configuration of a service.
// It is immutable after registration; per-group runtime state lives in
// the ServiceRecord.
type ServicePolicy struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Identity uniquely names the service, conventionally
	// "<module>.<service>" (or "<module>.<bundle>.<name>" for
	// sub-scoped variants). It is the persistence key and must be
	// stable across restarts.
	Identity string

	// Kind selects which gates apply.
	Kind ServiceKind

	// ─────────────────────────────
	// Throttling
	// ─────────────────────────────

	// Cooldown is the minimum pause between allowed invocations for a
	// given (group, user), in seconds. Zero disables the cooldown gate.
	Cooldown int

	// Limit is the maximum allowed invocations per calendar day for a
	// given (group, user). Zero disables the quota gate.
	Limit int

	// ─────────────────────────────
	// Availability & presentation
	// ─────────────────────────────

	// EnableOnDefault makes the service run in groups that have no
	// explicit enable/disable override.
	EnableOnDefault bool

	// Invisible hides the service from listing surfaces. It stays
	// reachable by exact short name.
	Invisible bool

	// Help is optional operator-facing help text.
	Help string

	// CDPrompt is the optional message template sent when the cooldown
	// gate denies. Placeholders: {cd}, {user}. Empty means deny silently.
	CDPrompt string

	// LimitPrompt is the optional template for quota denials.
	// Placeholders: {limit}, {user}. Empty means deny silently.
	LimitPrompt string

	// Interval is the firing period for scheduled services.
	// Ignored for handlers.
	Interval time.Duration
}

// ShortName returns the unqualified service name, the last segment of
// the identity. Used by the admin enable/disable commands.
func (p ServicePolicy) ShortName() string {
	if idx := strings.LastIndex(p.Identity, "."); idx != -1 {
		return p.Identity[idx+1:]
	}
	return p.Identity
}

// CooldownDuration returns the cooldown as a time.Duration.
func (p ServicePolicy) CooldownDuration() time.Duration {
	return time.Duration(p.Cooldown) * time.Second
}

package domain

// EventKind classifies the host-framework events this subsystem cares about.
type EventKind string

const (
	// KindMessage is a user-authored chat message routed to a handler.
	KindMessage EventKind = "message"

	// KindNotify is a framework notification carrying a user identity
	// (poke, honor change, ...). Throttled like messages.
	KindNotify EventKind = "notify"

	// KindMeta covers everything else (heartbeats, lifecycle, requests).
	// Meta events never consume cooldown or quota.
	KindMeta EventKind = "meta"
)

// Role is the requester's standing inside the group the event came from.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Event is the slice of a host-framework event this subsystem consumes.
//
// The host dispatches the full event to its handler; warden only needs
// the requester identity, the optional group context and the group role.
type Event struct {
	// Kind of the originating event.
	Kind EventKind

	// UserID identifies the requester.
	UserID int64

	// GroupID is the chat group the event was sent in.
	// Zero means a group-less (private) context.
	GroupID int64

	// Role is the requester's group role. Empty outside groups.
	Role Role
}

// HasGroup reports whether the event carries a group context.
func (e Event) HasGroup() bool {
	return e.GroupID != 0
}

// IsAdmin reports whether the requester is a group admin or owner.
func (e Event) IsAdmin() bool {
	return e.Role == RoleAdmin || e.Role == RoleOwner
}

// Throttled reports whether cooldown and quota accounting apply to
// this event kind at all.
func (e Event) Throttled() bool {
	return e.Kind == KindMessage || e.Kind == KindNotify
}

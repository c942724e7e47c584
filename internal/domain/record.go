package domain

import "strconv"

// UsageWindow is one (group, user) slot of the rolling daily quota.
// Field names follow the persisted document shape.
type UsageWindow struct {
	// Count is the number of allowed invocations inside the window.
	Count int `json:"limit"`

	// WindowStart is the Unix timestamp (fractional seconds) of the
	// first invocation of the current calendar-day window. Zero means
	// the window never started and the next check always passes.
	WindowStart float64 `json:"date"`
}

// ServiceRecord is the persistent per-service state: group overrides,
// cooldown stamps and usage counters. One document per service identity.
//
// Group and user keys in the nested maps are decimal strings; group
// key "0" is the sentinel for group-less (private) contexts.
type ServiceRecord struct {
	// Identity correlates the record with its registered service.
	Identity string `json:"service_identity"`

	// EnableGroups and DisableGroups are the explicit per-group
	// overrides. Membership is mutually exclusive: every mutation that
	// adds to one side removes from the other.
	EnableGroups  []int64 `json:"enable_groups"`
	DisableGroups []int64 `json:"disable_groups"`

	// Cooldowns maps group -> user -> next-eligible Unix timestamp.
	Cooldowns map[string]map[string]float64 `json:"cd_dict"`

	// Usage maps group -> user -> daily quota window.
	Usage map[string]map[string]UsageWindow `json:"limit_dict"`
}

// NewServiceRecord returns the default record for an identity:
// no overrides, no cooldowns, no usage.
func NewServiceRecord(identity string) *ServiceRecord {
	return &ServiceRecord{
		Identity:      identity,
		EnableGroups:  []int64{},
		DisableGroups: []int64{},
		Cooldowns:     map[string]map[string]float64{},
		Usage:         map[string]map[string]UsageWindow{},
	}
}

// GroupKey converts a group ID to its map key. Zero (private context)
// maps to the "0" sentinel.
func GroupKey(groupID int64) string {
	return strconv.FormatInt(groupID, 10)
}

// UserKey converts a user ID to its map key.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

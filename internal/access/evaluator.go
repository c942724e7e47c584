// Package access holds the pure decision logic of warden: given a
// service record, a policy and the current time, it answers "is the
// service active in this group", "has the cooldown elapsed" and "is
// quota remaining", and computes the mutations to apply on success.
//
// Nothing here touches the store or the clock; callers pass `now`
// explicitly and persist mutated records themselves.
package access

import (
	"time"

	"github.com/MrSnakeDoc/warden/internal/domain"
)

// EnabledInGroup is the sole gate for "service active in this group".
// An explicit enable override wins, an explicit disable override loses,
// otherwise the policy default applies. Independent of user identity.
func EnabledInGroup(rec *domain.ServiceRecord, pol domain.ServicePolicy, groupID int64) bool {
	if containsGroup(rec.EnableGroups, groupID) {
		return true
	}
	return !containsGroup(rec.DisableGroups, groupID) && pol.EnableOnDefault
}

// Enable adds an explicit enable override for the group, discarding any
// disable override. The two override sets stay mutually exclusive.
func Enable(rec *domain.ServiceRecord, groupID int64) {
	rec.DisableGroups = removeGroup(rec.DisableGroups, groupID)
	rec.EnableGroups = addGroup(rec.EnableGroups, groupID)
}

// Disable adds an explicit disable override for the group, discarding
// any enable override.
func Disable(rec *domain.ServiceRecord, groupID int64) {
	rec.EnableGroups = removeGroup(rec.EnableGroups, groupID)
	rec.DisableGroups = addGroup(rec.DisableGroups, groupID)
}

// Exempt reports whether the requester skips the cooldown and quota
// gates entirely: group admins/owners are never throttled, and neither
// are event kinds that carry no user-affecting shape.
//
// The group gate is NOT part of this exemption: an admin can still be
// blocked by a disabled service, just never slowed down by it.
func Exempt(ev domain.Event) bool {
	return !ev.Throttled() || ev.IsAdmin()
}

// CheckCooldown reports whether the (group, user) pair is past its
// next-eligible time. When denied, retryAfter is the remaining wait.
// A policy without a cooldown always allows without consulting state.
func CheckCooldown(rec *domain.ServiceRecord, pol domain.ServicePolicy, userID, groupID int64, now time.Time) (bool, time.Duration) {
	if pol.Cooldown == 0 {
		return true, 0
	}
	until := rec.Cooldowns[domain.GroupKey(groupID)][domain.UserKey(userID)]
	wait := fromUnix(until).Sub(now)
	if wait > 0 {
		return false, wait
	}
	return true, 0
}

// CommitCooldown stamps the next-eligible time for the (group, user)
// pair to now + policy cooldown.
func CommitCooldown(rec *domain.ServiceRecord, pol domain.ServicePolicy, userID, groupID int64, now time.Time) {
	gk := domain.GroupKey(groupID)
	if rec.Cooldowns == nil {
		rec.Cooldowns = map[string]map[string]float64{}
	}
	if rec.Cooldowns[gk] == nil {
		rec.Cooldowns[gk] = map[string]float64{}
	}
	rec.Cooldowns[gk][domain.UserKey(userID)] = toUnix(now.Add(pol.CooldownDuration()))
}

// CheckLimit reports whether the (group, user) pair has daily quota
// left, and how much would remain after this invocation. A window whose
// start falls on a different calendar day than now has expired, so the
// check passes regardless of the stored count. A policy without a limit
// always allows.
func CheckLimit(rec *domain.ServiceRecord, pol domain.ServicePolicy, userID, groupID int64, now time.Time) (bool, int) {
	if pol.Limit == 0 {
		return true, 0
	}
	w := rec.Usage[domain.GroupKey(groupID)][domain.UserKey(userID)]
	if !sameQuotaDay(now, fromUnix(w.WindowStart)) {
		return true, pol.Limit
	}
	if w.Count < pol.Limit {
		return true, pol.Limit - w.Count
	}
	return false, 0
}

// CommitLimit records one invocation against the daily quota: a fresh
// calendar day resets the window to count 1, otherwise the count grows
// and the window start is kept.
func CommitLimit(rec *domain.ServiceRecord, pol domain.ServicePolicy, userID, groupID int64, now time.Time) {
	gk := domain.GroupKey(groupID)
	uk := domain.UserKey(userID)
	if rec.Usage == nil {
		rec.Usage = map[string]map[string]domain.UsageWindow{}
	}
	if rec.Usage[gk] == nil {
		rec.Usage[gk] = map[string]domain.UsageWindow{}
	}
	w := rec.Usage[gk][uk]
	if !sameQuotaDay(now, fromUnix(w.WindowStart)) {
		rec.Usage[gk][uk] = domain.UsageWindow{Count: 1, WindowStart: toUnix(now)}
		return
	}
	w.Count++
	rec.Usage[gk][uk] = w
}

// sameQuotaDay reports whether two instants fall on the same local
// calendar date. The quota window resets at local midnight.
func sameQuotaDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnix(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second)))
}

func containsGroup(groups []int64, id int64) bool {
	for _, g := range groups {
		if g == id {
			return true
		}
	}
	return false
}

func addGroup(groups []int64, id int64) []int64 {
	if containsGroup(groups, id) {
		return groups
	}
	return append(groups, id)
}

func removeGroup(groups []int64, id int64) []int64 {
	out := groups[:0]
	for _, g := range groups {
		if g != id {
			out = append(out, g)
		}
	}
	return out
}

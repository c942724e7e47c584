// Package gate is the integration point between the host framework's
// dispatch pipeline and warden's access logic. The host composes
// Keeper.Check as a pre-dispatch interceptor: one call per routed
// event, one terminal verdict, no retries.
package gate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/warden/internal/access"
	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/metrics"
	"github.com/MrSnakeDoc/warden/internal/registry"
)

// RecordStore is the persistence surface the keeper needs.
type RecordStore interface {
	// Load returns the record for an identity, lazily creating a
	// default one. It never fails; persistence errors degrade to a
	// fresh record.
	Load(ctx context.Context, identity string) *domain.ServiceRecord

	// Save upserts a record, returning false on failure.
	Save(ctx context.Context, rec *domain.ServiceRecord) bool
}

// Outcome names why a verdict came out the way it did.
type Outcome string

const (
	OutcomeUnregistered  Outcome = "unregistered"
	OutcomeSuperuser     Outcome = "superuser"
	OutcomeAllowed       Outcome = "allowed"
	OutcomeGroupDisabled Outcome = "group_disabled"
	OutcomeCooldown      Outcome = "cooldown"
	OutcomeLimit         Outcome = "limit"
)

// Verdict is the keeper's answer for one dispatched event.
type Verdict struct {
	// Allowed tells the host whether to proceed with the handler.
	Allowed bool

	// Outcome is the reason behind the verdict.
	Outcome Outcome

	// Prompt is the rendered denial message, empty when the service
	// has no prompt template configured (deny silently).
	Prompt string
}

// Keeper resolves services and evaluates access for dispatched events.
type Keeper struct {
	registry   *registry.Registry
	store      RecordStore
	superusers map[int64]struct{}
	logger     logger.Logger
	now        func() time.Time // for testing, defaults to time.Now
}

// NewKeeper creates the dispatch hook.
func NewKeeper(reg *registry.Registry, store RecordStore, superusers []int64, log logger.Logger) *Keeper {
	set := make(map[int64]struct{}, len(superusers))
	for _, id := range superusers {
		set[id] = struct{}{}
	}
	return &Keeper{
		registry:   reg,
		store:      store,
		superusers: set,
		logger:     log,
		now:        time.Now,
	}
}

// Check evaluates one event against the service it was routed to.
//
// Order of gates: resolve, superuser bypass, group gate, cooldown,
// quota. The first failing gate settles the verdict; on success the
// cooldown stamp and usage increment are committed in one save.
// Group admins/owners skip cooldown and quota but not the group gate.
func (k *Keeper) Check(ctx context.Context, ev domain.Event, identity string) Verdict {
	pol, ok := k.registry.Get(identity)
	if !ok {
		// Not covered by this subsystem: pass through untouched.
		return Verdict{Allowed: true, Outcome: OutcomeUnregistered}
	}

	if _, ok := k.superusers[ev.UserID]; ok {
		k.count(identity, OutcomeSuperuser)
		return Verdict{Allowed: true, Outcome: OutcomeSuperuser}
	}

	rec := k.store.Load(ctx, identity)
	now := k.now()

	if ev.HasGroup() && !access.EnabledInGroup(rec, pol, ev.GroupID) {
		k.logger.Debug("service disabled in group",
			logger.String("identity", identity),
			logger.Int64("group_id", ev.GroupID))
		k.count(identity, OutcomeGroupDisabled)
		return Verdict{Outcome: OutcomeGroupDisabled}
	}

	// Scheduled services only carry the group gate.
	exempt := pol.Kind == domain.KindScheduled || access.Exempt(ev)

	if !exempt {
		if ok, retry := access.CheckCooldown(rec, pol, ev.UserID, ev.GroupID, now); !ok {
			k.count(identity, OutcomeCooldown)
			return Verdict{
				Outcome: OutcomeCooldown,
				Prompt:  renderPrompt(pol.CDPrompt, retry, 0, ev.UserID),
			}
		}
		if ok, remaining := access.CheckLimit(rec, pol, ev.UserID, ev.GroupID, now); !ok {
			k.count(identity, OutcomeLimit)
			return Verdict{
				Outcome: OutcomeLimit,
				Prompt:  renderPrompt(pol.LimitPrompt, 0, remaining, ev.UserID),
			}
		}

		dirty := false
		if pol.Cooldown > 0 {
			access.CommitCooldown(rec, pol, ev.UserID, ev.GroupID, now)
			dirty = true
		}
		if pol.Limit > 0 {
			access.CommitLimit(rec, pol, ev.UserID, ev.GroupID, now)
			dirty = true
		}
		if dirty && !k.store.Save(ctx, rec) {
			// Best-effort: a lost commit under-throttles by one, the
			// event itself still proceeds.
			k.logger.Warn("failed to persist throttle state",
				logger.String("identity", identity),
				logger.Int64("user_id", ev.UserID))
		}
	}

	k.count(identity, OutcomeAllowed)
	return Verdict{Allowed: true, Outcome: OutcomeAllowed}
}

func (k *Keeper) count(identity string, outcome Outcome) {
	metrics.DecisionTotal.WithLabelValues(identity, string(outcome)).Inc()
}

// renderPrompt substitutes the {cd}, {limit} and {user} placeholders of
// a denial template. An empty template renders to nothing, which the
// caller treats as "suppress silently".
func renderPrompt(tpl string, retry time.Duration, remaining int, userID int64) string {
	if tpl == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{cd}", strconv.Itoa(int(retry.Round(time.Second)/time.Second)),
		"{limit}", strconv.Itoa(remaining),
		"{user}", strconv.FormatInt(userID, 10),
	)
	return r.Replace(tpl)
}

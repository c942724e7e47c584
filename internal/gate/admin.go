package gate

import (
	"context"

	"github.com/MrSnakeDoc/warden/internal/access"
	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/registry"
)

// Bulk keywords accepted by the enable/disable commands.
var bulkKeywords = map[string]struct{}{
	"all": {},
	"All": {},
	"全部":  {},
}

// BatchResult reports a batch enable/disable: which requested names
// were applied and which failed to resolve. Both lists are always
// reported back for partial-failure batches; the command layer renders
// them into chat messages.
type BatchResult struct {
	Succeeded []string
	Failed    []string
}

// Admin applies group-scoped enable/disable overrides for the
// administrative command surface.
type Admin struct {
	registry *registry.Registry
	store    RecordStore
	logger   logger.Logger
}

// NewAdmin creates the admin command backend.
func NewAdmin(reg *registry.Registry, store RecordStore, log logger.Logger) *Admin {
	return &Admin{
		registry: reg,
		store:    store,
		logger:   log,
	}
}

// Enable turns the named services on in a group. A bulk keyword
// ("all" / "全部") expands to every registered service. Unresolved
// names are collected, not fatal.
func (a *Admin) Enable(ctx context.Context, groupID int64, names []string) BatchResult {
	return a.apply(ctx, groupID, names, access.Enable, "enable")
}

// Disable turns the named services off in a group.
func (a *Admin) Disable(ctx context.Context, groupID int64, names []string) BatchResult {
	return a.apply(ctx, groupID, names, access.Disable, "disable")
}

func (a *Admin) apply(ctx context.Context, groupID int64, names []string, mutate func(*domain.ServiceRecord, int64), op string) BatchResult {
	var res BatchResult

	for _, name := range names {
		if _, bulk := bulkKeywords[name]; bulk {
			for _, pol := range a.registry.ListAll() {
				a.applyOne(ctx, groupID, pol.Identity, mutate)
			}
			a.logger.Info("bulk override applied",
				logger.String("op", op),
				logger.Int64("group_id", groupID),
				logger.Int("services", a.registry.Count()))
			res.Succeeded = append(res.Succeeded, name)
			break
		}

		identity, ok := a.registry.ResolveShortName(name)
		if !ok {
			res.Failed = append(res.Failed, name)
			continue
		}
		a.applyOne(ctx, groupID, identity, mutate)
		res.Succeeded = append(res.Succeeded, name)
	}

	if len(res.Failed) > 0 {
		a.logger.Warn("some services could not be resolved",
			logger.String("op", op),
			logger.Int64("group_id", groupID),
			logger.Int("failed", len(res.Failed)))
	}
	return res
}

func (a *Admin) applyOne(ctx context.Context, groupID int64, identity string, mutate func(*domain.ServiceRecord, int64)) {
	rec := a.store.Load(ctx, identity)
	mutate(rec, groupID)
	a.store.Save(ctx, rec)
}

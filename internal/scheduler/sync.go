package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/registry"
	redisstore "github.com/MrSnakeDoc/warden/internal/store/redis"
)

// RecordSyncer materializes records for registered services on startup
// so that enable/disable history survives even before first dispatch,
// and reports how many legacy records exist for services that are no
// longer registered.
type RecordSyncer struct {
	store    *redisstore.Store
	registry *registry.Registry
	logger   logger.Logger
}

// NewRecordSyncer creates a new record syncer
func NewRecordSyncer(
	store *redisstore.Store,
	reg *registry.Registry,
	log logger.Logger,
) *RecordSyncer {
	return &RecordSyncer{
		store:    store,
		registry: reg,
		logger:   log,
	}
}

// Sync loads (and thereby lazily creates) the record of every
// registered service.
func (rs *RecordSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing service records")

	registered := map[string]struct{}{}
	for _, pol := range rs.registry.ListAll() {
		rs.store.Load(ctx, pol.Identity)
		registered[pol.Identity] = struct{}{}
	}

	identities, err := rs.store.Identities(ctx)
	if err != nil {
		return err
	}

	orphans := 0
	for _, identity := range identities {
		if _, ok := registered[identity]; !ok {
			orphans++
		}
	}

	rs.logger.Info("service records synced",
		logger.Int("registered", len(registered)),
		logger.Int("persisted", len(identities)),
		logger.Int("orphaned", orphans))

	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/metrics"
)

// Store persists one ServiceRecord document per service identity.
//
// Persistence is best-effort by contract: a read failure degrades to a
// fresh default record and a write failure degrades to "state not
// updated this time". Neither ever aborts the dispatch that triggered
// the access.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// NewStore creates a new record store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
	}
}

// Load retrieves the record for an identity, creating and persisting a
// default record when none exists. Malformed stored documents are
// merged field-by-field onto a fresh default and re-persisted.
func (s *Store) Load(ctx context.Context, identity string) *domain.ServiceRecord {
	data, err := s.client.Get(ctx, RecordKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			rec := domain.NewServiceRecord(identity)
			s.Save(ctx, rec)
			return rec
		}
		metrics.StoreFailureTotal.WithLabelValues("load").Inc()
		s.logger.Error("failed to load service record, using defaults",
			logger.String("identity", identity),
			logger.Error(err))
		return domain.NewServiceRecord(identity)
	}

	var rec domain.ServiceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Schema mismatch from a prior policy version: keep whatever
		// fields still decode and re-persist the merged result.
		s.logger.Warn("malformed service record, merging onto defaults",
			logger.String("identity", identity),
			logger.Error(err))
		merged := mergeLegacyRecord(identity, data)
		s.Save(ctx, merged)
		return merged
	}

	normalizeRecord(&rec, identity)
	return &rec
}

// Save upserts the record document. Returns false on failure; failures
// are logged and counted but never propagated as errors.
func (s *Store) Save(ctx context.Context, rec *domain.ServiceRecord) bool {
	data, err := json.Marshal(rec)
	if err != nil {
		metrics.StoreFailureTotal.WithLabelValues("marshal").Inc()
		s.logger.Error("failed to marshal service record",
			logger.String("identity", rec.Identity),
			logger.Error(err))
		return false
	}

	if err := s.client.Set(ctx, RecordKey(rec.Identity), data, 0).Err(); err != nil {
		metrics.StoreFailureTotal.WithLabelValues("save").Inc()
		s.logger.Error("failed to save service record",
			logger.String("identity", rec.Identity),
			logger.Error(err))
		return false
	}

	// Track the identity in the set of all persisted records.
	if err := s.client.SAdd(ctx, AllRecordsKey(), rec.Identity).Err(); err != nil {
		metrics.StoreFailureTotal.WithLabelValues("save").Inc()
		s.logger.Warn("failed to add identity to record set",
			logger.String("identity", rec.Identity),
			logger.Error(err))
	}

	return true
}

// Identities returns every identity that has a persisted record.
func (s *Store) Identities(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, AllRecordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list record identities: %w", err)
	}
	return ids, nil
}

// Ping verifies the store connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// mergeLegacyRecord overlays whatever fields of a malformed document
// still decode onto a fresh default record. Each field is decoded
// independently so one bad field does not discard the rest.
func mergeLegacyRecord(identity string, data []byte) *domain.ServiceRecord {
	rec := domain.NewServiceRecord(identity)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return rec
	}

	if raw, ok := fields["enable_groups"]; ok {
		var groups []int64
		if err := json.Unmarshal(raw, &groups); err == nil && groups != nil {
			rec.EnableGroups = groups
		}
	}
	if raw, ok := fields["disable_groups"]; ok {
		var groups []int64
		if err := json.Unmarshal(raw, &groups); err == nil && groups != nil {
			rec.DisableGroups = groups
		}
	}
	if raw, ok := fields["cd_dict"]; ok {
		var cds map[string]map[string]float64
		if err := json.Unmarshal(raw, &cds); err == nil && cds != nil {
			rec.Cooldowns = cds
		}
	}
	if raw, ok := fields["limit_dict"]; ok {
		var usage map[string]map[string]domain.UsageWindow
		if err := json.Unmarshal(raw, &usage); err == nil && usage != nil {
			rec.Usage = usage
		}
	}

	return rec
}

// normalizeRecord fills nil collections and a missing identity so
// callers can mutate the record without nil checks.
func normalizeRecord(rec *domain.ServiceRecord, identity string) {
	if rec.Identity == "" {
		rec.Identity = identity
	}
	if rec.EnableGroups == nil {
		rec.EnableGroups = []int64{}
	}
	if rec.DisableGroups == nil {
		rec.DisableGroups = []int64{}
	}
	if rec.Cooldowns == nil {
		rec.Cooldowns = map[string]map[string]float64{}
	}
	if rec.Usage == nil {
		rec.Usage = map[string]map[string]domain.UsageWindow{}
	}
}

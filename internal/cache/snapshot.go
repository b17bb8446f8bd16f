package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"tracc-api/internal/model"
)

// SnapshotCache stores live silo snapshots on top of a Cache. Only snapshots
// taken "now" belong here; point-in-time snapshots are always recomputed.
// Cache failures are logged and reported as misses.
type SnapshotCache struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache wraps c. A nil c yields a cache that always misses.
func NewSnapshotCache(c Cache, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{cache: c, ttl: ttl, logger: logger.Named("snapshot_cache")}
}

func snapshotKey(siloID string) string {
	return "snapshot:" + siloID
}

// Get returns the cached snapshot of a silo.
func (s *SnapshotCache) Get(ctx context.Context, siloID string) (*model.SiloSnapshot, bool) {
	if s == nil || s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, snapshotKey(siloID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("snapshot read failed", zap.String("silo_id", siloID), zap.Error(err))
		}
		return nil, false
	}

	var snap model.SiloSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("dropping undecodable snapshot", zap.String("silo_id", siloID), zap.Error(err))
		s.Invalidate(ctx, siloID)
		return nil, false
	}
	return &snap, true
}

// Put stores a live snapshot.
func (s *SnapshotCache) Put(ctx context.Context, snap model.SiloSnapshot) {
	if s == nil || s.cache == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("snapshot encode failed", zap.String("silo_id", snap.Silo.ID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, snapshotKey(snap.Silo.ID), data, s.ttl); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("silo_id", snap.Silo.ID), zap.Error(err))
	}
}

// Invalidate drops the cached snapshots of the given silos.
func (s *SnapshotCache) Invalidate(ctx context.Context, siloIDs ...string) {
	if s == nil || s.cache == nil {
		return
	}
	for _, id := range siloIDs {
		if id == "" {
			continue
		}
		if err := s.cache.Delete(ctx, snapshotKey(id)); err != nil {
			s.logger.Warn("snapshot invalidation failed", zap.String("silo_id", id), zap.Error(err))
		}
	}
}

// Stats exposes the backing cache statistics.
func (s *SnapshotCache) Stats(ctx context.Context) map[string]interface{} {
	if s == nil || s.cache == nil {
		return map[string]interface{}{"backend": "disabled"}
	}
	stats := s.cache.Stats(ctx)
	stats["ttl"] = s.ttl.String()
	return stats
}

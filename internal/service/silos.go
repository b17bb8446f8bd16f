package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tracc-api/internal/cache"
	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/internal/stock"
	"tracc-api/pkg/logger"
	"tracc-api/pkg/uid"
)

// SiloDeleteQuietPeriod is how long a silo must go without ledger activity
// before it can be removed from the registry.
const SiloDeleteQuietPeriod = 30 * 24 * time.Hour

// SiloService projects silo stock from the ledger and manages the registry.
type SiloService struct {
	store     repository.Store
	snapshots *cache.SnapshotCache
	now       func() time.Time
	logger    *zap.Logger

	// generations counts invalidations per silo. A cache fill whose replay
	// started before the latest invalidation is dropped.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewSiloService creates a silo service. snapshots may be nil to disable
// caching; now defaults to time.Now.
func NewSiloService(store repository.Store, snapshots *cache.SnapshotCache, now func() time.Time, log *zap.Logger) *SiloService {
	return &SiloService{
		store:       store,
		snapshots:   snapshots,
		now:         clock(now),
		logger:      logger.Named(log, "silo_service"),
		generations: make(map[string]uint64),
	}
}

// GetSnapshot returns the live snapshot of a silo, served from the cache
// when possible. It is meant for reads; write paths validate against
// liveSnapshot.
func (s *SiloService) GetSnapshot(ctx context.Context, siloID string) (*model.SiloSnapshot, error) {
	if snap, ok := s.snapshots.Get(ctx, siloID); ok {
		return snap, nil
	}
	gen := s.generation(siloID)
	snap, err := s.GetSnapshotAt(ctx, siloID, s.now())
	if err != nil {
		return nil, err
	}
	s.fill(ctx, gen, *snap)
	return snap, nil
}

// liveSnapshot replays the ledger of one silo up to now, bypassing the
// cache. Capacity and sufficiency checks run against it.
func (s *SiloService) liveSnapshot(ctx context.Context, siloID string) (*model.SiloSnapshot, error) {
	return s.GetSnapshotAt(ctx, siloID, s.now())
}

// GetSnapshotAt replays the ledger of one silo up to cutoff.
func (s *SiloService) GetSnapshotAt(ctx context.Context, siloID string, cutoff time.Time) (*model.SiloSnapshot, error) {
	return s.project(ctx, siloID, cutoff, "")
}

// project replays the ledger of one silo, leaving out the withdrawal
// excludeOutboundID when it is set.
func (s *SiloService) project(ctx context.Context, siloID string, cutoff time.Time, excludeOutboundID string) (*model.SiloSnapshot, error) {
	silo, err := s.store.GetSilo(ctx, siloID)
	if err != nil {
		return nil, err
	}

	cutoff = cutoff.UTC()
	filter := model.LedgerFilter{SiloIDs: []string{siloID}, Until: &cutoff}
	inbound, err := s.store.ListInbound(ctx, filter)
	if err != nil {
		return nil, err
	}
	outbound, err := s.store.ListOutbound(ctx, filter)
	if err != nil {
		return nil, err
	}
	if excludeOutboundID != "" {
		kept := outbound[:0]
		for _, rec := range outbound {
			if rec.ID != excludeOutboundID {
				kept = append(kept, rec)
			}
		}
		outbound = kept
	}

	snap := stock.Project(*silo, inbound, outbound, cutoff)
	s.warnIfInconsistent(snap)
	return &snap, nil
}

// GetSnapshotsAt projects every registered silo as of cutoff, reading the
// ledger once.
func (s *SiloService) GetSnapshotsAt(ctx context.Context, cutoff time.Time) ([]model.SiloSnapshot, error) {
	silos, err := s.store.ListSilos(ctx)
	if err != nil {
		return nil, err
	}

	cutoff = cutoff.UTC()
	filter := model.LedgerFilter{Until: &cutoff}
	inbound, err := s.store.ListInbound(ctx, filter)
	if err != nil {
		return nil, err
	}
	outbound, err := s.store.ListOutbound(ctx, filter)
	if err != nil {
		return nil, err
	}

	snapshots := make([]model.SiloSnapshot, 0, len(silos))
	for _, silo := range silos {
		snap := stock.Project(silo, inbound, outbound, cutoff)
		s.warnIfInconsistent(snap)
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// GetSilosWithLevels returns the live snapshot of every silo and refreshes
// the snapshot cache.
func (s *SiloService) GetSilosWithLevels(ctx context.Context) ([]model.SiloSnapshot, error) {
	gens := make(map[string]uint64)
	s.mu.Lock()
	for id, gen := range s.generations {
		gens[id] = gen
	}
	s.mu.Unlock()

	snapshots, err := s.GetSnapshotsAt(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, snap := range snapshots {
		s.fill(ctx, gens[snap.Silo.ID], snap)
	}
	return snapshots, nil
}

// CreateSilo validates and registers a silo. An empty ID is generated.
func (s *SiloService) CreateSilo(ctx context.Context, silo model.Silo) (*model.Silo, error) {
	if err := stock.CheckSilo(silo); err != nil {
		return nil, err
	}
	if silo.ID == "" {
		silo.ID = uid.New()
	}
	silo.CreatedAt = s.now()

	if err := s.store.InsertSilo(ctx, silo); err != nil {
		return nil, err
	}
	s.logger.Info("silo created", zap.String("silo_id", silo.ID), zap.String("name", silo.Name))
	return &silo, nil
}

// UpdateSilo applies patch to a silo. Capacity cannot drop below the
// current level.
func (s *SiloService) UpdateSilo(ctx context.Context, id string, patch model.SiloPatch) (*model.Silo, error) {
	current, err := s.store.GetSilo(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	if err := stock.CheckSilo(updated); err != nil {
		return nil, err
	}

	if patch.CapacityKg != nil {
		snap, err := s.GetSnapshotAt(ctx, id, s.now())
		if err != nil {
			return nil, err
		}
		if snap.CurrentLevel.GreaterThan(updated.CapacityKg) {
			return nil, stock.Business("capacity %s kg for silo %q is below its current level %s kg",
				updated.CapacityKg, updated.Name, snap.CurrentLevel)
		}
	}

	if err := s.store.UpdateSilo(ctx, updated); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return &updated, nil
}

// DeleteSilo removes an empty silo that has had no ledger activity during
// SiloDeleteQuietPeriod.
func (s *SiloService) DeleteSilo(ctx context.Context, id string) error {
	now := s.now()
	snap, err := s.GetSnapshotAt(ctx, id, now)
	if err != nil {
		return err
	}
	if !snap.CurrentLevel.IsZero() {
		return stock.Business("silo %q still holds %s kg and cannot be deleted", snap.Silo.Name, snap.CurrentLevel)
	}

	since := now.Add(-SiloDeleteQuietPeriod)
	filter := model.LedgerFilter{SiloIDs: []string{id}, Since: &since}
	inbound, err := s.store.ListInbound(ctx, filter)
	if err != nil {
		return err
	}
	outbound, err := s.store.ListOutbound(ctx, filter)
	if err != nil {
		return err
	}
	if len(inbound)+len(outbound) > 0 {
		return stock.Business("silo %q has ledger activity in the last %d days and cannot be deleted",
			snap.Silo.Name, int(SiloDeleteQuietPeriod.Hours()/24))
	}

	if err := s.store.DeleteSilo(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("silo deleted", zap.String("silo_id", id))
	return nil
}

func (s *SiloService) warnIfInconsistent(snap model.SiloSnapshot) {
	if snap.IsConsistent() {
		return
	}
	s.logger.Warn("negative stock level, ledger is inconsistent",
		zap.String("silo_id", snap.Silo.ID),
		zap.String("level_kg", snap.CurrentLevel.String()),
		zap.Time("as_of", snap.AsOf))
}

func (s *SiloService) generation(siloID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[siloID]
}

// fill caches snap unless the silo was invalidated after gen was read.
func (s *SiloService) fill(ctx context.Context, gen uint64, snap model.SiloSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[snap.Silo.ID] != gen {
		s.logger.Debug("dropping stale snapshot fill", zap.String("silo_id", snap.Silo.ID))
		return
	}
	s.snapshots.Put(ctx, snap)
}

func (s *SiloService) invalidate(ctx context.Context, siloIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range siloIDs {
		s.generations[id]++
	}
	s.snapshots.Invalidate(ctx, siloIDs...)
}

// clock normalizes timestamps to UTC at the precision the SQL store keeps.
func clock(now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	return func() time.Time { return now().UTC().Truncate(time.Microsecond) }
}

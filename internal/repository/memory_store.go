package repository

import (
	"context"
	"sort"
	"sync"

	"tracc-api/internal/model"
	"tracc-api/internal/stock"
)

// MemoryStore implements LedgerStore and SiloRegistry in process memory.
// Used by tests and by the "memory" store type for demos.
type MemoryStore struct {
	mu       sync.RWMutex
	silos    map[string]model.Silo
	inbound  map[string]model.InboundRecord
	outbound map[string]model.OutboundRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		silos:    make(map[string]model.Silo),
		inbound:  make(map[string]model.InboundRecord),
		outbound: make(map[string]model.OutboundRecord),
	}
}

func (m *MemoryStore) GetSilo(ctx context.Context, id string) (*model.Silo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	silo, ok := m.silos[id]
	if !ok {
		return nil, stock.NotFound("silo %s not found", id)
	}
	return &silo, nil
}

func (m *MemoryStore) ListSilos(ctx context.Context) ([]model.Silo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	silos := make([]model.Silo, 0, len(m.silos))
	for _, silo := range m.silos {
		silos = append(silos, silo)
	}
	sort.Slice(silos, func(i, j int) bool {
		if silos[i].Name != silos[j].Name {
			return silos[i].Name < silos[j].Name
		}
		return silos[i].ID < silos[j].ID
	})
	return silos, nil
}

func (m *MemoryStore) InsertSilo(ctx context.Context, silo model.Silo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.silos[silo.ID]; ok {
		return stock.Business("silo %s already exists", silo.ID)
	}
	m.silos[silo.ID] = silo
	return nil
}

func (m *MemoryStore) UpdateSilo(ctx context.Context, silo model.Silo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.silos[silo.ID]
	if !ok {
		return stock.NotFound("silo %s not found", silo.ID)
	}
	silo.CreatedAt = current.CreatedAt
	m.silos[silo.ID] = silo
	return nil
}

func (m *MemoryStore) DeleteSilo(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.silos[id]; !ok {
		return stock.NotFound("silo %s not found", id)
	}
	delete(m.silos, id)
	return nil
}

func (m *MemoryStore) ListInbound(ctx context.Context, filter model.LedgerFilter) ([]model.InboundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []model.InboundRecord{}
	for _, rec := range m.inbound {
		if filter.Matches(rec.SiloID, rec.CreatedAt) {
			records = append(records, rec)
		}
	}
	stock.SortInbound(records)
	return records, nil
}

func (m *MemoryStore) ListOutbound(ctx context.Context, filter model.LedgerFilter) ([]model.OutboundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []model.OutboundRecord{}
	for _, rec := range m.outbound {
		if filter.Matches(rec.SiloID, rec.CreatedAt) {
			records = append(records, copyOutbound(rec))
		}
	}
	sortOutbound(records)
	return records, nil
}

func (m *MemoryStore) GetInbound(ctx context.Context, id string) (*model.InboundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.inbound[id]
	if !ok {
		return nil, stock.NotFound("inbound record %s not found", id)
	}
	return &rec, nil
}

func (m *MemoryStore) GetOutbound(ctx context.Context, id string) (*model.OutboundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.outbound[id]
	if !ok {
		return nil, stock.NotFound("outbound record %s not found", id)
	}
	rec = copyOutbound(rec)
	return &rec, nil
}

func (m *MemoryStore) InsertInbound(ctx context.Context, rec model.InboundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inbound[rec.ID]; ok {
		return stock.Business("inbound record %s already exists", rec.ID)
	}
	m.inbound[rec.ID] = rec
	return nil
}

func (m *MemoryStore) UpdateInbound(ctx context.Context, id string, patch model.InboundPatch) (*model.InboundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.inbound[id]
	if !ok {
		return nil, stock.NotFound("inbound record %s not found", id)
	}
	rec = patch.Apply(rec)
	m.inbound[id] = rec
	return &rec, nil
}

func (m *MemoryStore) DeleteInbound(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inbound[id]; !ok {
		return stock.NotFound("inbound record %s not found", id)
	}
	delete(m.inbound, id)
	return nil
}

func (m *MemoryStore) InsertOutbound(ctx context.Context, rec model.OutboundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.outbound[rec.ID]; ok {
		return stock.Business("outbound record %s already exists", rec.ID)
	}
	m.outbound[rec.ID] = copyOutbound(rec)
	return nil
}

func (m *MemoryStore) UpdateOutbound(ctx context.Context, id string, patch model.OutboundPatch) (*model.OutboundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.outbound[id]
	if !ok {
		return nil, stock.NotFound("outbound record %s not found", id)
	}
	if patch.QuantityKg != nil {
		rec.QuantityKg = *patch.QuantityKg
	}
	if patch.OperatorName != nil {
		rec.OperatorName = *patch.OperatorName
	}
	if patch.Items != nil {
		rec.Items = patch.Items
	}
	rec = copyOutbound(rec)
	m.outbound[id] = rec
	rec = copyOutbound(rec)
	return &rec, nil
}

func (m *MemoryStore) DeleteOutbound(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.outbound[id]; !ok {
		return stock.NotFound("outbound record %s not found", id)
	}
	delete(m.outbound, id)
	return nil
}

func (m *MemoryStore) ListOutboundReferencing(ctx context.Context, inboundID string) ([]model.OutboundRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []model.OutboundRecord{}
	for _, rec := range m.outbound {
		if rec.References(inboundID) {
			records = append(records, copyOutbound(rec))
		}
	}
	sortOutbound(records)
	return records, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"dialect":          "memory",
		"silos":            int64(len(m.silos)),
		"inbound_records":  int64(len(m.inbound)),
		"outbound_records": int64(len(m.outbound)),
	}, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func copyOutbound(rec model.OutboundRecord) model.OutboundRecord {
	rec.Items = append([]model.OutboundItem{}, rec.Items...)
	return rec
}

func sortOutbound(records []model.OutboundRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

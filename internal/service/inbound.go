package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/internal/stock"
	"tracc-api/pkg/logger"
	"tracc-api/pkg/uid"
)

// InboundService validates and records receipts.
type InboundService struct {
	store  repository.Store
	silos  *SiloService
	rules  stock.Rules
	now    func() time.Time
	logger *zap.Logger
}

// NewInboundService creates an inbound service.
func NewInboundService(store repository.Store, silos *SiloService, rules stock.Rules, now func() time.Time, log *zap.Logger) *InboundService {
	return &InboundService{
		store:  store,
		silos:  silos,
		rules:  rules,
		now:    clock(now),
		logger: logger.Named(log, "inbound_service"),
	}
}

// List returns receipts matching filter, oldest first.
func (s *InboundService) List(ctx context.Context, filter model.LedgerFilter) ([]model.InboundRecord, error) {
	return s.store.ListInbound(ctx, filter)
}

// Create validates a receipt against the field rules, the silo allow-list
// and the silo capacity, then stores it.
func (s *InboundService) Create(ctx context.Context, rec model.InboundRecord) (*model.InboundRecord, error) {
	if err := s.rules.CheckInbound(rec); err != nil {
		return nil, err
	}

	snap, err := s.silos.liveSnapshot(ctx, rec.SiloID)
	if err != nil {
		return nil, err
	}
	if err := stock.CheckMaterialAllowed(snap.Silo, rec.MaterialID); err != nil {
		return nil, err
	}
	if err := stock.CheckCapacity(snap.Silo, snap.CurrentLevel, rec.QuantityKg); err != nil {
		return nil, err
	}

	rec.ID = uid.New()
	rec.CreatedAt = s.now()
	if err := s.store.InsertInbound(ctx, rec); err != nil {
		return nil, err
	}
	s.silos.invalidate(ctx, rec.SiloID)

	s.logger.Info("inbound recorded",
		zap.String("inbound_id", rec.ID),
		zap.String("silo_id", rec.SiloID),
		zap.String("quantity_kg", rec.QuantityKg.String()))
	return &rec, nil
}

// Update edits a receipt within the edit window. The capacity check for the
// target silo discounts the receipt's own current quantity when it stays in
// the same silo.
func (s *InboundService) Update(ctx context.Context, id string, patch model.InboundPatch) (*model.InboundRecord, error) {
	current, err := s.store.GetInbound(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.CheckEditWindow("inbound", id, current.CreatedAt, s.now()); err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := s.rules.CheckInbound(updated); err != nil {
		return nil, err
	}

	siloChanged := updated.SiloID != current.SiloID
	if siloChanged || !updated.QuantityKg.Equal(current.QuantityKg) {
		if err := s.checkConsumption(ctx, *current, updated); err != nil {
			return nil, err
		}
	}

	if siloChanged || !updated.QuantityKg.Equal(current.QuantityKg) || updated.MaterialID != current.MaterialID {
		snap, err := s.silos.liveSnapshot(ctx, updated.SiloID)
		if err != nil {
			return nil, err
		}
		if err := stock.CheckMaterialAllowed(snap.Silo, updated.MaterialID); err != nil {
			return nil, err
		}
		level := snap.CurrentLevel
		if !siloChanged {
			level = level.Sub(current.QuantityKg)
		}
		if err := stock.CheckCapacity(snap.Silo, level, updated.QuantityKg); err != nil {
			return nil, err
		}
	}

	stored, err := s.store.UpdateInbound(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.silos.invalidate(ctx, current.SiloID, stored.SiloID)

	s.logger.Info("inbound updated", zap.String("inbound_id", id), zap.String("silo_id", stored.SiloID))
	return stored, nil
}

// checkConsumption keeps an edited receipt consistent with the withdrawals
// that itemized it: a consumed lot cannot move to another silo nor shrink
// below what was taken from it.
func (s *InboundService) checkConsumption(ctx context.Context, current, updated model.InboundRecord) error {
	refs, err := s.store.ListOutboundReferencing(ctx, current.ID)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	if updated.SiloID != current.SiloID {
		return stock.Business("inbound record %s has been used by outbound record %s and cannot change silo", current.ID, refs[0].ID)
	}

	consumed := decimal.Zero
	for _, rec := range refs {
		for _, item := range rec.Items {
			if item.InboundID == current.ID {
				consumed = consumed.Add(item.QuantityKg)
			}
		}
	}
	if updated.QuantityKg.LessThan(consumed) {
		return stock.Business("inbound record %s cannot be reduced to %s kg: %s kg have already been withdrawn",
			current.ID, updated.QuantityKg, consumed)
	}
	return nil
}

// Delete removes a receipt within the edit window, provided no withdrawal
// consumed it.
func (s *InboundService) Delete(ctx context.Context, id string) error {
	current, err := s.store.GetInbound(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.CheckEditWindow("inbound", id, current.CreatedAt, s.now()); err != nil {
		return err
	}

	refs, err := s.store.ListOutboundReferencing(ctx, id)
	if err != nil {
		return err
	}
	if err := stock.CheckNotConsumed(id, refs); err != nil {
		return err
	}

	if err := s.store.DeleteInbound(ctx, id); err != nil {
		return err
	}
	s.silos.invalidate(ctx, current.SiloID)

	s.logger.Info("inbound deleted", zap.String("inbound_id", id), zap.String("silo_id", current.SiloID))
	return nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/internal/stock"
	"tracc-api/pkg/logger"
	"tracc-api/pkg/uid"
)

// CreateOutboundRequest is a FIFO withdrawal from one silo.
type CreateOutboundRequest struct {
	SiloID       string          `json:"silo_id"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	OperatorName string          `json:"operator_name"`
}

// OutboundService plans and records withdrawals.
type OutboundService struct {
	store  repository.Store
	silos  *SiloService
	rules  stock.Rules
	now    func() time.Time
	logger *zap.Logger
}

// NewOutboundService creates an outbound service.
func NewOutboundService(store repository.Store, silos *SiloService, rules stock.Rules, now func() time.Time, log *zap.Logger) *OutboundService {
	return &OutboundService{
		store:  store,
		silos:  silos,
		rules:  rules,
		now:    clock(now),
		logger: logger.Named(log, "outbound_service"),
	}
}

// List returns withdrawals matching filter, oldest first.
func (s *OutboundService) List(ctx context.Context, filter model.LedgerFilter) ([]model.OutboundRecord, error) {
	return s.store.ListOutbound(ctx, filter)
}

// CalculateFIFOWithdrawal returns the lots a withdrawal of qty would debit
// without writing anything.
func (s *OutboundService) CalculateFIFOWithdrawal(ctx context.Context, siloID string, qty decimal.Decimal) ([]model.OutboundItem, error) {
	if err := s.rules.CheckQuantity("quantity_kg", qty); err != nil {
		return nil, err
	}
	snap, err := s.silos.liveSnapshot(ctx, siloID)
	if err != nil {
		return nil, err
	}
	return stock.PlanFIFO(snap.AvailableItems, qty)
}

// Create checks sufficiency against the current level, plans the debit
// oldest lot first and stores the withdrawal with its items.
func (s *OutboundService) Create(ctx context.Context, req CreateOutboundRequest) (*model.OutboundRecord, error) {
	if err := checkOperator(req.OperatorName); err != nil {
		return nil, err
	}
	if err := s.rules.CheckQuantity("quantity_kg", req.QuantityKg); err != nil {
		return nil, err
	}

	snap, err := s.silos.liveSnapshot(ctx, req.SiloID)
	if err != nil {
		return nil, err
	}
	if err := stock.CheckSufficiency(snap.Silo, snap.CurrentLevel, req.QuantityKg); err != nil {
		return nil, err
	}

	plan, err := stock.PlanFIFO(snap.AvailableItems, req.QuantityKg)
	if err != nil {
		s.logAllocationFailure(err, req.SiloID, req.QuantityKg)
		return nil, err
	}

	rec := model.OutboundRecord{
		ID:           uid.New(),
		SiloID:       req.SiloID,
		QuantityKg:   req.QuantityKg,
		OperatorName: strings.TrimSpace(req.OperatorName),
		CreatedAt:    s.now(),
		Items:        plan,
	}
	if err := s.store.InsertOutbound(ctx, rec); err != nil {
		return nil, err
	}
	s.silos.invalidate(ctx, rec.SiloID)

	s.logger.Info("outbound recorded",
		zap.String("outbound_id", rec.ID),
		zap.String("silo_id", rec.SiloID),
		zap.String("quantity_kg", rec.QuantityKg.String()),
		zap.Int("lots", len(plan)))
	return &rec, nil
}

// Update edits a withdrawal within the edit window. A quantity change is
// re-planned against the silo stock with this withdrawal's own quantity put
// back.
func (s *OutboundService) Update(ctx context.Context, id string, patch model.OutboundPatch) (*model.OutboundRecord, error) {
	current, err := s.store.GetOutbound(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.CheckEditWindow("outbound", id, current.CreatedAt, s.now()); err != nil {
		return nil, err
	}
	if patch.OperatorName != nil {
		if err := checkOperator(*patch.OperatorName); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*patch.OperatorName)
		patch.OperatorName = &name
	}

	patch.Items = nil
	if patch.QuantityKg != nil && !patch.QuantityKg.Equal(current.QuantityKg) {
		qty := *patch.QuantityKg
		if err := s.rules.CheckQuantity("quantity_kg", qty); err != nil {
			return nil, err
		}

		snap, err := s.silos.project(ctx, current.SiloID, s.now(), id)
		if err != nil {
			return nil, err
		}
		if err := stock.CheckSufficiency(snap.Silo, snap.CurrentLevel, qty); err != nil {
			return nil, err
		}
		plan, err := stock.PlanFIFO(snap.AvailableItems, qty)
		if err != nil {
			s.logAllocationFailure(err, current.SiloID, qty)
			return nil, err
		}
		patch.Items = plan
	}

	stored, err := s.store.UpdateOutbound(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.silos.invalidate(ctx, current.SiloID)

	s.logger.Info("outbound updated", zap.String("outbound_id", id), zap.String("quantity_kg", stored.QuantityKg.String()))
	return stored, nil
}

// Delete removes a withdrawal within the edit window.
func (s *OutboundService) Delete(ctx context.Context, id string) error {
	current, err := s.store.GetOutbound(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.CheckEditWindow("outbound", id, current.CreatedAt, s.now()); err != nil {
		return err
	}

	if err := s.store.DeleteOutbound(ctx, id); err != nil {
		return err
	}
	s.silos.invalidate(ctx, current.SiloID)

	s.logger.Info("outbound deleted", zap.String("outbound_id", id), zap.String("silo_id", current.SiloID))
	return nil
}

// logAllocationFailure records a plan that failed after the sufficiency
// check passed, which points at a concurrent write or a stale snapshot.
func (s *OutboundService) logAllocationFailure(err error, siloID string, qty decimal.Decimal) {
	if !stock.IsAllocation(err) {
		return
	}
	s.logger.Error("fifo allocation failed after sufficiency check",
		zap.String("silo_id", siloID),
		zap.String("quantity_kg", qty.String()),
		zap.Error(err))
}

func checkOperator(name string) error {
	if strings.TrimSpace(name) == "" {
		return stock.Validation("operator_name", "operator_name is required")
	}
	return nil
}

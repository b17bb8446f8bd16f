package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/internal/stock"
	"tracc-api/pkg/logger"
	"tracc-api/pkg/uid"
)

// BatchService records blend withdrawals: operator-chosen lots spread over
// one or more silos, written as one outbound record per silo.
type BatchService struct {
	store  repository.Store
	silos  *SiloService
	rules  stock.Rules
	now    func() time.Time
	logger *zap.Logger
}

// NewBatchService creates a batch withdrawal service.
func NewBatchService(store repository.Store, silos *SiloService, rules stock.Rules, now func() time.Time, log *zap.Logger) *BatchService {
	return &BatchService{
		store:  store,
		silos:  silos,
		rules:  rules,
		now:    clock(now),
		logger: logger.Named(log, "batch_service"),
	}
}

// Withdraw validates every silo's selections against a fresh snapshot before
// writing anything, then writes one record per silo in the order the silos
// first appear in selections. Records share a batch id when more than one
// silo is involved.
//
// The per-silo writes are not atomic. When a write fails, the records
// already written are deleted again and the returned error carries both the
// write failure and any failure to compensate.
func (s *BatchService) Withdraw(ctx context.Context, operator string, selections []model.LotSelection) (*model.BatchResult, error) {
	if err := checkOperator(operator); err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		return nil, stock.Validation("selections", "at least one lot must be selected")
	}
	for _, sel := range selections {
		if sel.SiloID == "" {
			return nil, stock.Validation("silo_id", "silo_id is required for lot %s", sel.InboundID)
		}
	}

	now := s.now()
	order, groups := stock.GroupBySilo(selections)

	records := make([]model.OutboundRecord, 0, len(order))
	for _, siloID := range order {
		snap, err := s.silos.GetSnapshotAt(ctx, siloID, now)
		if err != nil {
			return nil, err
		}
		plan, err := stock.PlanManual(snap.AvailableItems, groups[siloID])
		if err != nil {
			return nil, err
		}
		total := stock.PlanTotal(plan)
		if err := s.rules.CheckQuantity("quantity_kg", total); err != nil {
			return nil, err
		}
		if err := stock.CheckSufficiency(snap.Silo, snap.CurrentLevel, total); err != nil {
			return nil, err
		}

		records = append(records, model.OutboundRecord{
			ID:           uid.New(),
			SiloID:       siloID,
			QuantityKg:   total,
			OperatorName: strings.TrimSpace(operator),
			CreatedAt:    now,
			Items:        plan,
		})
	}

	var batchID string
	if len(records) > 1 {
		batchID = uid.New()
		for i := range records {
			records[i].BatchID = batchID
		}
	}

	defer s.silos.invalidate(ctx, order...)

	for i, rec := range records {
		if err := s.store.InsertOutbound(ctx, rec); err != nil {
			werr := fmt.Errorf("batch withdrawal failed writing silo %s: %w", rec.SiloID, err)
			if cerr := s.compensate(ctx, records[:i]); cerr != nil {
				return nil, errors.Join(werr, cerr)
			}
			return nil, werr
		}
	}

	s.logger.Info("batch withdrawal recorded",
		zap.String("batch_id", batchID),
		zap.Int("silos", len(records)),
		zap.String("operator", operator))
	return &model.BatchResult{BatchID: batchID, Records: records}, nil
}

// compensate deletes already-written records, newest first. It keeps going
// after a failure so that as much of the batch as possible is undone.
func (s *BatchService) compensate(ctx context.Context, written []model.OutboundRecord) error {
	var errs []error
	for i := len(written) - 1; i >= 0; i-- {
		rec := written[i]
		if err := s.store.DeleteOutbound(ctx, rec.ID); err != nil {
			s.logger.Error("batch compensation failed",
				zap.String("outbound_id", rec.ID),
				zap.String("silo_id", rec.SiloID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("compensation: outbound record %s in silo %s left in place: %w", rec.ID, rec.SiloID, err))
			continue
		}
		s.logger.Warn("batch record rolled back", zap.String("outbound_id", rec.ID), zap.String("silo_id", rec.SiloID))
	}
	return errors.Join(errs...)
}

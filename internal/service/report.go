package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/pkg/logger"
	"tracc-api/pkg/uid"
)

// ReportService builds point-in-time stock reports over all silos.
type ReportService struct {
	silos   *SiloService
	archive repository.ReportRepository
	now     func() time.Time
	logger  *zap.Logger
}

// NewReportService creates a report service. archive may be nil, in which
// case reports are generated but not stored.
func NewReportService(silos *SiloService, archive repository.ReportRepository, now func() time.Time, log *zap.Logger) *ReportService {
	return &ReportService{
		silos:   silos,
		archive: archive,
		now:     clock(now),
		logger:  logger.Named(log, "report_service"),
	}
}

// Generate builds the stock report as of asOf. A zero asOf means now.
func (s *ReportService) Generate(ctx context.Context, asOf time.Time) (*model.StockReport, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	snapshots, err := s.silos.GetSnapshotsAt(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to project silos: %w", err)
	}

	report := &model.StockReport{
		ID:            uid.New(),
		AsOf:          asOf.UTC(),
		Silos:         make([]model.SiloSummary, 0, len(snapshots)),
		TotalLevel:    decimal.Zero,
		TotalCapacity: decimal.Zero,
		CreatedAt:     s.now(),
	}
	for _, snap := range snapshots {
		report.Silos = append(report.Silos, model.SiloSummary{
			SiloID:      snap.Silo.ID,
			SiloName:    snap.Silo.Name,
			LevelKg:     snap.CurrentLevel.String(),
			CapacityKg:  snap.Silo.CapacityKg.String(),
			Utilization: snap.UtilizationPercentage.StringFixed(2),
			Lots:        len(snap.AvailableItems),
		})
		report.TotalLevel = report.TotalLevel.Add(snap.CurrentLevel)
		report.TotalCapacity = report.TotalCapacity.Add(snap.Silo.CapacityKg)
		if !snap.IsConsistent() {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("silo %q has a negative level of %s kg", snap.Silo.Name, snap.CurrentLevel))
		}
	}
	report.TotalLevelKg = report.TotalLevel.String()
	report.TotalCapacityKg = report.TotalCapacity.String()
	return report, nil
}

// GenerateAndArchive builds the current report and stores it in the archive.
func (s *ReportService) GenerateAndArchive(ctx context.Context) (*model.StockReport, error) {
	report, err := s.Generate(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return report, nil
	}
	if err := s.archive.InsertReport(ctx, report); err != nil {
		return nil, err
	}
	s.logger.Info("stock report archived",
		zap.String("report_id", report.ID),
		zap.Int("silos", len(report.Silos)),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// List returns archived reports, newest first.
func (s *ReportService) List(ctx context.Context, limit, offset int) ([]model.StockReport, int64, error) {
	if s.archive == nil {
		return []model.StockReport{}, 0, nil
	}
	return s.archive.ListReports(ctx, limit, offset)
}

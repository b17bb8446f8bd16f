package repository

import (
	"context"
	"sort"
	"sync"

	"tracc-api/internal/model"
)

// MemoryReportRepository keeps archived reports in memory. It backs the
// report scheduler when no MongoDB URI is configured.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports []model.StockReport
	limit   int
}

// NewMemoryReportRepository keeps at most limit reports; limit <= 0 keeps all.
func NewMemoryReportRepository(limit int) *MemoryReportRepository {
	return &MemoryReportRepository{limit: limit}
}

func (r *MemoryReportRepository) InsertReport(ctx context.Context, report *model.StockReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report.TotalLevelKg = report.TotalLevel.String()
	report.TotalCapacityKg = report.TotalCapacity.String()
	r.reports = append(r.reports, *report)
	sort.SliceStable(r.reports, func(i, j int) bool {
		return r.reports[i].AsOf.After(r.reports[j].AsOf)
	})
	if r.limit > 0 && len(r.reports) > r.limit {
		r.reports = r.reports[:r.limit]
	}
	return nil
}

func (r *MemoryReportRepository) ListReports(ctx context.Context, limit, offset int) ([]model.StockReport, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := int64(len(r.reports))
	if offset >= len(r.reports) {
		return []model.StockReport{}, total, nil
	}
	end := len(r.reports)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]model.StockReport, end-offset)
	copy(out, r.reports[offset:end])
	return out, total, nil
}

func (r *MemoryReportRepository) Close() error {
	return nil
}

var _ ReportRepository = (*MemoryReportRepository)(nil)

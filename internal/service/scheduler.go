package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tracc-api/internal/model"
	"tracc-api/pkg/logger"
)

// SchedulerConfig holds configuration for the report scheduler.
type SchedulerConfig struct {
	// Schedule is a five-field cron expression. Default: hourly.
	Schedule string

	// Timeout bounds a single report run. Default: 2 minutes.
	Timeout time.Duration
}

// DefaultSchedulerConfig returns the default report schedule.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Schedule: "0 * * * *",
		Timeout:  2 * time.Minute,
	}
}

// ReportScheduler archives a stock report on a cron schedule.
type ReportScheduler struct {
	reports   *ReportService
	config    SchedulerConfig
	cron      *cron.Cron
	logger    *zap.Logger
	mu        sync.Mutex
	isRunning bool
}

// NewReportScheduler creates a report scheduler.
func NewReportScheduler(reports *ReportService, config SchedulerConfig, log *zap.Logger) *ReportScheduler {
	defaults := DefaultSchedulerConfig()
	if config.Schedule == "" {
		config.Schedule = defaults.Schedule
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &ReportScheduler{
		reports: reports,
		config:  config,
		cron:    cron.New(),
		logger:  logger.Named(log, "report_scheduler"),
	}
}

// Start registers the report job and starts the cron runner. Calling Start
// twice is a no-op.
func (s *ReportScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule stock report %q: %w", s.config.Schedule, err)
	}
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("started", zap.String("schedule", s.config.Schedule))
	return nil
}

// Stop halts the cron runner and waits for a running report to finish.
func (s *ReportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("stopped")
}

// RunNow generates and archives a report immediately.
func (s *ReportScheduler) RunNow(ctx context.Context) (*model.StockReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	return s.reports.GenerateAndArchive(ctx)
}

func (s *ReportScheduler) run() {
	report, err := s.RunNow(context.Background())
	if err != nil {
		s.logger.Error("stock report failed", zap.Error(err))
		return
	}
	if len(report.Warnings) > 0 {
		s.logger.Warn("stock report has warnings", zap.Strings("warnings", report.Warnings))
	}
}

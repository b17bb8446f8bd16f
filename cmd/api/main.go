package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tracc-api/internal/cache"
	"tracc-api/internal/config"
	"tracc-api/internal/handler"
	"tracc-api/internal/repository"
	"tracc-api/internal/router"
	"tracc-api/internal/service"
	"tracc-api/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Must(logger.New(cfg.App.LogLevel, cfg.App.IsDevelopment()))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting TRACC API",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	store, err := openStore(cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := openCache(cfg.Cache, log)
	if err != nil {
		return err
	}
	if backend != nil {
		defer backend.Close()
	}
	snapshots := cache.NewSnapshotCache(backend, cfg.Cache.TTL, log)

	archive, err := openArchive(cfg.Reports, log)
	if err != nil {
		return err
	}
	defer archive.Close()

	rules, err := cfg.Rules.StockRules()
	if err != nil {
		return err
	}

	// Initialize services
	silos := service.NewSiloService(store, snapshots, nil, log)
	inbound := service.NewInboundService(store, silos, rules, nil, log)
	outbound := service.NewOutboundService(store, silos, rules, nil, log)
	batch := service.NewBatchService(store, silos, rules, nil, log)
	reports := service.NewReportService(silos, archive, nil, log)

	var scheduler *service.ReportScheduler
	if cfg.Reports.Enabled {
		scheduler = service.NewReportScheduler(reports, service.SchedulerConfig{Schedule: cfg.Reports.Schedule}, log)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	r := router.New(router.Config{
		Handler:         handler.New(store),
		SiloHandler:     handler.NewSiloHandler(silos, outbound),
		InboundHandler:  handler.NewInboundHandler(inbound),
		OutboundHandler: handler.NewOutboundHandler(outbound, batch),
		ReportHandler:   handler.NewReportHandler(reports, scheduler),
		AdminHandler:    handler.NewAdminHandler(store, snapshots, cfg.Store.Type),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          logger.Named(log, "http"),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg config.StoreConfig, log *zap.Logger) (repository.Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	case "postgres", "postgresql":
		return repository.NewSQLStore(repository.DialectPostgres, cfg.PostgresDSN(), log)
	case "mysql":
		return repository.NewSQLStore(repository.DialectMySQL, cfg.MySQLDSN(), log)
	default: // sqlite
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return repository.NewSQLStore(repository.DialectSQLite, repository.SQLiteDSN(cfg.Path), log)
	}
}

// openCache returns nil when caching is disabled. An unreachable Redis
// degrades to the in-memory cache.
func openCache(cfg config.CacheConfig, log *zap.Logger) (cache.Cache, error) {
	switch strings.ToLower(cfg.Type) {
	case "none":
		return nil, nil
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		}, log)
		if err == nil {
			return rc, nil
		}
		log.Warn("redis unavailable, falling back to memory cache", zap.Error(err))
	}
	return cache.NewMemoryCache(time.Minute), nil
}

func openArchive(cfg config.ReportsConfig, log *zap.Logger) (repository.ReportRepository, error) {
	if cfg.MongoURI == "" {
		return repository.NewMemoryReportRepository(cfg.Keep), nil
	}
	return repository.NewMongoReportRepository(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, log)
}

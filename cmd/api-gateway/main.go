package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/performance-report-api/api/swagger"
	"github.com/noah-isme/performance-report-api/internal/handler"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/repository"
	"github.com/noah-isme/performance-report-api/internal/service"
	"github.com/noah-isme/performance-report-api/internal/upstream"
	"github.com/noah-isme/performance-report-api/pkg/cache"
	"github.com/noah-isme/performance-report-api/pkg/config"
	"github.com/noah-isme/performance-report-api/pkg/database"
	"github.com/noah-isme/performance-report-api/pkg/jobs"
	"github.com/noah-isme/performance-report-api/pkg/logger"
	"github.com/noah-isme/performance-report-api/pkg/storage"
)

// @title Performance Report API
// @version 1.0.0
// @description Cohort performance dashboards and report exports over the institution API
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := build(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server forced to shutdown", zap.Error(err))
	}
}

type application struct {
	metrics     *service.MetricsService
	performance *handler.PerformanceHandler
	reports     *handler.ReportHandler
	health      *handler.MetricsHandler
}

func build(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	deps := map[string]handler.Pinger{}

	var cacheSvc *service.CacheService
	if cfg.Cohort.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("cohort cache disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = client.Close() })
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Cohort.CacheTTL, logr, true)
			deps["redis"] = cacheSvc
		}
	}

	institutionAPI := upstream.NewClient(cfg.Upstream, metrics, logr)
	cohorts := service.NewCohortService(institutionAPI, cacheSvc, cfg.Cohort.CacheTTL, service.NewSelectionTracker(), metrics, logr)
	exportCfg := service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}

	app := &application{
		metrics:     metrics,
		performance: handler.NewPerformanceHandler(cohorts),
	}

	if !cfg.Reports.JobsEnabled {
		exports := service.NewExportService(cohorts, nil, nil, metrics, exportCfg, logr)
		app.reports = handler.NewReportHandler(exports, nil, validate, logr)
		app.health = handler.NewMetricsHandler(metrics, deps)
		return app, cleanup, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = db.Close() })
	if err := database.EnsureSchema(ctx, db); err != nil {
		cleanup()
		return nil, nil, err
	}
	reportRepo := repository.NewReportRepository(db)
	deps["postgres"] = reportRepo

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exports := service.NewExportService(cohorts, store, signer, metrics, exportCfg, logr)

	fallback := models.Session{
		Token:         cfg.Upstream.ServiceToken,
		InstitutionID: cfg.Upstream.InstitutionID,
		Role:          models.RoleInstitutionAdmin,
	}
	worker := service.NewReportWorker(reportRepo, exports, fallback, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:     cfg.Reports.WorkerConcurrency,
		BufferSize:  64,
		MaxRetries:  cfg.Reports.WorkerRetries,
		RetryDelay:  2 * time.Second,
		OnExhausted: worker.Fail,
		Logger:      logr,
	})
	queue.Start(ctx)
	closers = append(closers, queue.Stop)

	reportSvc := service.NewReportService(reportRepo, queue, exports, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	app.reports = handler.NewReportHandler(exports, reportSvc, validate, logr)
	app.health = handler.NewMetricsHandler(metrics, deps)
	return app, cleanup, nil
}

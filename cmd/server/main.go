package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appfunnel "github.com/funnel/backend/internal/application/funnel"
	"github.com/funnel/backend/internal/infrastructure/cache"
	"github.com/funnel/backend/internal/infrastructure/config"
	"github.com/funnel/backend/internal/infrastructure/event"
	"github.com/funnel/backend/internal/infrastructure/logger"
	"github.com/funnel/backend/internal/infrastructure/persistence"
	"github.com/funnel/backend/internal/infrastructure/refresh"
	"github.com/funnel/backend/internal/infrastructure/scheduler"
	"github.com/funnel/backend/internal/infrastructure/telemetry"
	"github.com/funnel/backend/internal/interfaces/http/handler"
	"github.com/funnel/backend/internal/interfaces/http/middleware"
	"github.com/funnel/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Bootstrap logger, replaced once the OTLP log bridge is known
	bootLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTLP log exporter", zap.Error(err))
	}

	var tee []zapcore.Core
	if logProvider.IsEnabled() {
		tee = append(tee, logProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Tee:        tee,
	})
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting funnel dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
		if err := persistence.SeedFunnels(ctx, db.DB); err != nil {
			log.Fatal("Failed to seed funnels", zap.Error(err))
		}
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowThreshold,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}

	funnelRepo := persistence.NewGormFunnelRepository(db.DB)
	stageRepo := persistence.NewGormStageRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	funnelMetrics, err := telemetry.NewFunnelMetrics(meterProvider.Meter("funnel"))
	if err != nil {
		log.Fatal("Failed to create funnel metrics", zap.Error(err))
	}

	outcomeStream := handler.NewOutcomeStreamHandler(
		handler.WithSSELogger(log),
		handler.WithSSEHeartbeat(cfg.HTTP.SSEHeartbeat),
		handler.WithSSEMaxClients(cfg.HTTP.SSEMaxClients),
	)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewOutcomeLogger(log))
	eventBus.Subscribe(outcomeStream)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	if err := outcomeStream.Start(); err != nil {
		log.Fatal("Failed to start outcome stream", zap.Error(err))
	}

	refreshTrigger := refresh.NewTrigger(refresh.Config{
		URLs:           cfg.Refresh.URLs,
		RequestTimeout: cfg.Refresh.RequestTimeout,
		MaxConcurrency: cfg.Refresh.MaxConcurrency,
	}, nil, log)

	dashboardService := appfunnel.NewDashboardService(funnelRepo, stageRepo, log)
	reportService := appfunnel.NewReportService(
		funnelRepo, stageRepo, reportRepo,
		eventBus, idempotencyStore, funnelMetrics,
		appfunnel.ReportServiceConfig{
			IdempotencyTTL: cfg.Report.IdempotencyTTL,
			ListLimit:      cfg.Report.ListLimit,
		},
		log,
	)
	refreshService := appfunnel.NewRefreshService(refreshTrigger, eventBus, funnelMetrics, log)

	snapshotScheduler, err := scheduler.NewSnapshotScheduler(scheduler.Config{
		Enabled:       cfg.Scheduler.SnapshotEnabled,
		Schedule:      cfg.Scheduler.SnapshotSchedule,
		CheckInterval: cfg.Scheduler.CheckInterval,
		JobTimeout:    cfg.Scheduler.JobTimeout,
	}, reportService, log)
	if err != nil {
		log.Fatal("Invalid snapshot schedule", zap.Error(err))
	}
	if err := snapshotScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start snapshot scheduler", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanRequestID())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
		Logger:        log,
	}))
	engine.Use(middleware.Profiling(middleware.ProfilingConfig{
		Enabled:   profiler.IsEnabled(),
		SkipPaths: []string{"/health"},
	}))
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	appCtx, stopApp := context.WithCancel(ctx)
	defer stopApp()

	var refreshLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.RunCleanup(appCtx)
		refreshLimit = middleware.RateLimit(limiter)
	}

	router.Mount(engine, router.Handlers{
		Health:  handler.NewHealthHandler(db, version).WithScheduler(snapshotScheduler),
		Funnel:  handler.NewFunnelHandler(dashboardService),
		Report:  handler.NewReportHandler(reportService),
		Refresh: handler.NewRefreshHandler(refreshService),
		Stream:  outcomeStream,
	}, router.RouteConfig{RefreshLimit: refreshLimit})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// streams never finish on their own, so they are closed before draining
	outcomeStream.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopApp()

	if err := snapshotScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Snapshot scheduler stop failed", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Warn("Idempotency store close failed", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

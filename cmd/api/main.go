package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fixloop/fixloop-platform/cmd/mainconfig"
	"github.com/fixloop/fixloop-platform/internal/api/router"
	"github.com/fixloop/fixloop-platform/internal/app/bootstrap"
	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/audit"
	appconfig "github.com/fixloop/fixloop-platform/internal/config"
	"github.com/fixloop/fixloop-platform/internal/events"
	"github.com/fixloop/fixloop-platform/internal/http/handlers"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/moderation"
	"github.com/fixloop/fixloop-platform/internal/notify"
	"github.com/fixloop/fixloop-platform/internal/observability/metrics"
	"github.com/fixloop/fixloop-platform/internal/reminders"
	"github.com/fixloop/fixloop-platform/internal/reviews"
	"github.com/fixloop/fixloop-platform/internal/schedule"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

func main() {
	// Running without a .env file is the normal deployed case.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting fixloop API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	scheduleCache := bootstrap.BuildScheduleCache(redisClient, cfg)

	// Metrics live in a dedicated registry so the moderator stats endpoint
	// can snapshot counters without scraping /metrics.
	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	var auditor *audit.Service
	if cfg.AuditKeyHex != "" {
		auditDB, err := bootstrap.BuildAuditDB(cfg)
		if err != nil {
			logger.Error("failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = auditDB.Close() }()

		auditor, err = audit.New(auditDB, cfg.AuditKeyHex, logger)
		if err != nil {
			logger.Error("failed to init audit trail", "error", err)
			os.Exit(1)
		}
		defer func() { _ = auditor.Close() }()
	} else {
		logger.Warn("AUDIT_ENCRYPTION_KEY not set, audit trail disabled")
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Repositories.
	userRepo := identity.NewRepository(pool)
	apptRepo := appointments.NewRepository(pool)
	dayRepo := schedule.NewRepository(pool)
	reviewRepo := reviews.NewRepository(pool)
	disputeRepo := moderation.NewRepository(pool)
	outbox := events.NewOutboxStore(pool)

	// Services.
	apptCfg := appointments.ServiceConfig{
		Outbox:       outbox,
		Metrics:      bookingMetrics,
		Logger:       logger,
		CancelWindow: cfg.CancelWindow,
	}
	if scheduleCache != nil {
		apptCfg.Cache = scheduleCache
	}
	if auditor != nil {
		apptCfg.Auditor = auditor
	}
	apptSvc := appointments.NewService(apptRepo, dayRepo, userRepo, apptCfg)

	reviewCfg := reviews.ServiceConfig{
		Metrics: bookingMetrics,
		Logger:  logger,
	}
	if auditor != nil {
		reviewCfg.Auditor = auditor
	}
	reviewSvc := reviews.NewService(reviewRepo, apptRepo, reviewCfg)

	modCfg := moderation.ServiceConfig{
		Outbox:   outbox,
		Gatherer: registry,
		Logger:   logger,
	}
	if auditor != nil {
		modCfg.Auditor = auditor
		modCfg.Trail = auditor
	}
	if cfg.DisputeExportBucket != "" {
		modCfg.Exporter = moderation.NewExporter(s3.NewFromConfig(awsCfg), cfg.DisputeExportBucket, logger)
	}
	modSvc := moderation.NewService(disputeRepo, apptSvc, modCfg)

	// Outbox delivery: booking emails plus reminder scheduling.
	var emailSender notify.EmailSender = notify.NewNoopSender(logger)
	if cfg.EmailEnabled && cfg.SESFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	}
	handler := events.Fanout{notify.NewService(emailSender, apptRepo, userRepo, logger)}

	if cfg.ReminderQueueURL != "" && cfg.ReminderTable != "" {
		jobStore := reminders.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.ReminderTable, logger)
		queue := reminders.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ReminderQueueURL)
		handler = append(handler, reminders.NewScheduler(jobStore, queue, reminders.SchedulerConfig{
			LeadTime: cfg.ReminderLeadTime,
			Logger:   logger,
		}))
	} else {
		logger.Warn("reminder queue not configured, reminders disabled")
	}

	deliverer := events.NewDeliverer(outbox, handler, logger)
	go deliverer.Start(ctx)

	// Router.
	routerCfg := &router.Config{
		Logger:             logger,
		Appointments:       handlers.NewAppointmentsHandler(apptSvc, logger),
		Reviews:            handlers.NewReviewsHandler(reviewSvc, logger),
		Technicians:        handlers.NewTechniciansHandler(userRepo, apptSvc, logger),
		Moderation:         moderation.NewHandler(modSvc, logger),
		AuthSecret:         cfg.AuthJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

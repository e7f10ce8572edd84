package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/fixloop/fixloop-platform/cmd/mainconfig"
	"github.com/fixloop/fixloop-platform/internal/app/bootstrap"
	"github.com/fixloop/fixloop-platform/internal/appointments"
	appconfig "github.com/fixloop/fixloop-platform/internal/config"
	"github.com/fixloop/fixloop-platform/internal/notify"
	"github.com/fixloop/fixloop-platform/internal/reminders"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.ReminderQueueURL == "" || cfg.ReminderTable == "" {
		logger.Error("reminder worker requires DATABASE_URL, REMINDER_QUEUE_URL and REMINDER_JOBS_TABLE")
		os.Exit(1)
	}

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	jobStore := reminders.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.ReminderTable, logger)
	queue := reminders.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ReminderQueueURL)
	apptRepo := appointments.NewRepository(pool)

	var emailSender notify.EmailSender = notify.NewNoopSender(logger)
	if cfg.EmailEnabled && cfg.SESFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	}

	worker := reminders.NewWorker(jobStore, queue, apptRepo, emailSender, reminders.WorkerConfig{
		Logger:   logger,
		PollWait: int(cfg.ReminderWorkerPoll / time.Second),
	})

	logger.Info("reminder worker started",
		"queue", cfg.ReminderQueueURL,
		"table", cfg.ReminderTable,
	)
	go worker.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}

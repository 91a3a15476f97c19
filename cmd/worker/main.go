package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/internal/app"
	"github.com/courtlist/courtlist/internal/idam"
	jobmetrics "github.com/courtlist/courtlist/internal/jobs"
	"github.com/courtlist/courtlist/internal/lifecycle"
	"github.com/courtlist/courtlist/internal/notify"
	"github.com/courtlist/courtlist/internal/platform/db"
	"github.com/courtlist/courtlist/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queue, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	directory := idam.NewClient(cfg.DirectoryBaseURL, cfg.DirectoryAPIKey)
	notifier := notify.NewNotifier(queue, cfg.EmailSignature)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(logger, accountsRepo, directory, notifier, cfg.MaxSystemAdmins)

	metrics := jobmetrics.NewMetrics(nil)
	lifecycleService := lifecycle.NewService(logger, accountsRepo, notifier, accountsService, lifecycle.Config{
		Media:               lifecycle.Thresholds{Notify: cfg.MediaNotifyAfter, Delete: cfg.MediaDeleteAfter},
		DirectoryAdmin:      lifecycle.Thresholds{Notify: cfg.AdminDirectoryNotifyAfter, Delete: cfg.AdminDirectoryDeleteAfter},
		CaseManagementAdmin: lifecycle.Thresholds{Notify: cfg.AdminIdamNotifyAfter, Delete: cfg.AdminIdamDeleteAfter},
	}).WithMetrics(metrics)
	sweepJob := jobs.NewLifecycleSweepJob(lifecycleService, logger, metrics)
	mailer := jobs.NewMailer(cfg.SMTPAddr, cfg.SMTPFrom, logger)

	mediaTask, err := jobs.NewLifecycleSweepTask(string(accounts.ClassMedia))
	if err != nil {
		logger.Error("build media sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	directoryTask, err := jobs.NewLifecycleSweepTask(string(accounts.ClassDirectoryAdmin))
	if err != nil {
		logger.Error("build directory sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	idamTask, err := jobs.NewLifecycleSweepTask(string(accounts.ClassCaseManagementAdmin))
	if err != nil {
		logger.Error("build idam sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLifecycleSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.HandleSendEmail},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 4 * * *", Task: mediaTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 4 * * *", Task: directoryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 4 * * *", Task: idamTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

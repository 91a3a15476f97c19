package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/internal/app"
	"github.com/courtlist/courtlist/internal/audit"
	"github.com/courtlist/courtlist/internal/authz"
	"github.com/courtlist/courtlist/internal/idam"
	"github.com/courtlist/courtlist/internal/listings"
	"github.com/courtlist/courtlist/internal/notify"
	"github.com/courtlist/courtlist/internal/observability"
	"github.com/courtlist/courtlist/internal/platform/cache"
	"github.com/courtlist/courtlist/internal/platform/db"
	"github.com/courtlist/courtlist/internal/shared"
	"github.com/courtlist/courtlist/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
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
	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(logger, accountsRepo, directory, notifier, cfg.MaxSystemAdmins)
	authorizer := authz.NewAuthorizer(logger, accountsRepo, auditLogger)
	idempotency := shared.NewIdempotencyStore(pool)

	auditService := audit.NewService(audit.NewRepository(pool))
	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accounts.NewHandler(logger, accountsService, authorizer, idempotency),
		ListingsHandler: listings.NewHandler(logger, accountsService),
		AuditHandler:    audit.NewHandler(logger, auditService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}

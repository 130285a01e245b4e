package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/numen-ops/easytime/internal/app"
	"github.com/numen-ops/easytime/internal/mailer"
	"github.com/numen-ops/easytime/internal/platform/cache"
	"github.com/numen-ops/easytime/internal/platform/db"
	"github.com/numen-ops/easytime/jobs"
)

const supportInbox = "suporte@easytime.local"

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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	smtpMailer := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	jobMetrics := jobs.NewMetrics(nil)
	emailHandler := &jobs.SendEmailHandler{Mailer: smtpMailer, Logger: logger, Metrics: jobMetrics}
	slaJob := jobs.NewSLAScanJob(pool, logger, smtpMailer, supportInbox)
	slaJob.Metrics = jobMetrics

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: emailHandler},
			{Type: jobs.TaskTypeSLAScan, Handler: asynq.HandlerFunc(slaJob.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewSLAScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	mux := chi.NewRouter()
	jobs.NewHandler(inspector, logger).MountRoutes(mux)
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())
	healthServer := &http.Server{Addr: cfg.WorkerAddr, Handler: mux}
	go func() {
		logger.Info("starting worker http server", slog.String("addr", cfg.WorkerAddr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("worker http server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/numen-ops/easytime/internal/app"
	"github.com/numen-ops/easytime/internal/auth"
	"github.com/numen-ops/easytime/internal/guard"
	"github.com/numen-ops/easytime/internal/identity"
	"github.com/numen-ops/easytime/internal/observability"
	"github.com/numen-ops/easytime/internal/partners"
	"github.com/numen-ops/easytime/internal/platform/cache"
	"github.com/numen-ops/easytime/internal/platform/db"
	"github.com/numen-ops/easytime/internal/policy"
	"github.com/numen-ops/easytime/internal/projects"
	"github.com/numen-ops/easytime/internal/shared"
	"github.com/numen-ops/easytime/internal/tickets"
	"github.com/numen-ops/easytime/internal/timesheet"
	"github.com/numen-ops/easytime/internal/users"
	"github.com/numen-ops/easytime/internal/view"
	"github.com/numen-ops/easytime/jobs"
	"github.com/numen-ops/easytime/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "easytime_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	accessPolicy := policy.Default()

	identityRepo := identity.NewRepository(dbpool)
	resolver := identity.NewResolver(identityRepo)
	routeGuard := &guard.Middleware{
		Logger:   logger,
		Resolver: resolver,
		Policy:   accessPolicy,
		Sessions: sessionManager,
		Metrics:  metrics,
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, jobClient)
	usersHandler := users.NewHandler(logger, usersService)

	partnersRepo := partners.NewRepository(dbpool)
	partnersService := partners.NewService(partnersRepo)
	partnersHandler := partners.NewHandler(logger, partnersService)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService)

	ticketsRepo := tickets.NewRepository(dbpool)
	ticketsService := tickets.NewService(ticketsRepo, jobClient)
	ticketsHandler := tickets.NewHandler(logger, ticketsService)

	timesheetRepo := timesheet.NewRepository(dbpool)
	timesheetService := timesheet.NewService(timesheetRepo)
	timesheetHandler := timesheet.NewHandler(logger, timesheetService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, timesheetService, logger)

	middlewares := app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Guard:          routeGuard,
		Metrics:        metrics,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Policy:           accessPolicy,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		PartnersHandler:  partnersHandler,
		ProjectsHandler:  projectsHandler,
		TicketsHandler:   ticketsHandler,
		TimesheetHandler: timesheetHandler,
		ReportHandler:    reportHandler,
		Metrics:          metrics,
		Middlewares:      middlewares,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

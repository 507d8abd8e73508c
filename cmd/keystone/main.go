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

	"github.com/whitepages/keystone/internal/app"
	"github.com/whitepages/keystone/internal/assignment"
	"github.com/whitepages/keystone/internal/identity"
	"github.com/whitepages/keystone/internal/observability"
	"github.com/whitepages/keystone/internal/platform/cache"
	"github.com/whitepages/keystone/internal/platform/db"
	"github.com/whitepages/keystone/internal/resource"
	"github.com/whitepages/keystone/internal/roles"
	"github.com/whitepages/keystone/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
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

	metrics := observability.NewMetrics()

	region := assignment.NewRegion(redisClient, cfg.AssignmentCacheTTL)
	if err := region.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	notifier, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, notifier, logger)

	resourceRepo := resource.NewRepository(dbpool)
	identityRepo := identity.NewRepository(dbpool)
	rolesRepo := roles.NewRepository(dbpool)
	grantStore := assignment.NewStore(dbpool)

	resolver := assignment.NewResolver(assignment.ResolverConfig{
		Driver:             grantStore,
		Projects:           resourceRepo,
		Users:              identityRepo,
		Roles:              rolesRepo,
		Logger:             logger,
		Metrics:            metrics,
		InferRoles:         cfg.InferRoles,
		InheritanceEnabled: cfg.InheritanceEnabled,
	})
	assignmentService := assignment.NewService(assignment.ServiceConfig{
		Driver:   grantStore,
		Resolver: resolver,
		Projects: resourceRepo,
		Users:    identityRepo,
		Roles:    rolesRepo,
		Region:   region,
		Notifier: notifier,
		Logger:   logger,
	})

	resourceService := resource.NewService(resourceRepo, assignmentService, region, logger, cfg.MaxProjectDepth)
	identityService := identity.NewService(identityRepo, resourceService, region, logger)
	rolesService := roles.NewService(rolesRepo, assignmentService, region, logger, cfg.RootRoleID)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AssignmentHandler: assignment.NewHandler(logger, assignmentService),
		ResourceHandler:   resource.NewHandler(logger, resourceService),
		IdentityHandler:   identity.NewHandler(logger, identityService),
		RolesHandler:      roles.NewHandler(logger, rolesService),
		JobHandler:        jobHandler,
		Metrics:           metrics,
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

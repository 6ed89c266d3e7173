package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	httptransport "github.com/maxq/console/internal/api/http"
	"github.com/maxq/console/internal/api/http/handlers"
	"github.com/maxq/console/internal/auth"
	"github.com/maxq/console/internal/client"
	"github.com/maxq/console/internal/config"
	"github.com/maxq/console/internal/events"
	"github.com/maxq/console/internal/notify"
	"github.com/maxq/console/internal/observability"
	"github.com/maxq/console/internal/persistence"
	"github.com/maxq/console/internal/querycache"
	"github.com/maxq/console/internal/repository"
	"github.com/maxq/console/internal/service"
	"github.com/maxq/console/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var mutationLogs repository.MutationLogRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		mutationLogs = repository.NewMutationLogRepository(pg.PoolHandle())
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	tokens := auth.NewRedisTokenStore(redis.Client, cfg.Auth.TokenKeyPrefix, cfg.Auth.SessionTTL())
	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		logger.Fatal("AUTH_JWT_SECRET must be set in production")
	}
	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.TokenLeeway())
	authorizer := auth.NewAuthorizer(tokens, verifier, cfg.Auth.AdminRole, logger)
	authMiddleware := auth.NewAuthMiddleware(authorizer, cfg.Auth.SessionCookie)

	clock := clockwork.NewRealClock()
	notifications := notify.NewStore(
		notify.WithClock(clock),
		notify.WithDefaultLifetime(cfg.Notification.DefaultLifetime()),
		notify.WithMaxVisible(cfg.Notification.MaxVisible),
		notify.WithExitDelay(cfg.Notification.ExitDelay()),
		notify.WithSwipeThreshold(cfg.Notification.SwipeThreshold),
		notify.WithDispatcher(dispatcher),
		notify.WithLogger(logger),
	)

	cache := querycache.New(querycache.WithLogger(logger))
	profileClient := client.NewProfileClient(cfg.Profile, logger)

	optimistic := service.NewOptimistic(service.OptimisticDependencies{
		Cache:      cache,
		Dispatcher: profileClient,
		Notifier:   notifications,
		Events:     dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	roleService := service.NewRoleService(optimistic)
	profileService := service.NewProfileService(optimistic, cache, profileClient, cfg.Profile.DefaultPageSize)
	auditService := service.NewAuditService(dispatcher, mutationLogs, metrics, logger)

	worker.StartAuditWorker(auditService)
	refreshDone := worker.StartRefreshWorker(ctx, profileService, clock, cfg.Profile.RefreshInterval(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.Dependency{Name: "redis", Pinger: redis},
			handlers.Dependency{Name: "postgres", Pinger: pg},
			handlers.Dependency{Name: "profile", Pinger: profileClient},
		),
		Session:        handlers.NewSessionHandler(authorizer, cfg.Auth.SessionCookie, cfg.Auth.SessionTTL(), logger),
		Users:          handlers.NewUsersHandler(roleService, profileService),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		Audit:          handlers.NewAuditHandler(auditService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-refreshDone
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

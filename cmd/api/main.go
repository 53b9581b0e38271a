package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/firm-service/internal/api/http"
	"github.com/spec-kit/firm-service/internal/api/http/handlers"
	"github.com/spec-kit/firm-service/internal/auth"
	"github.com/spec-kit/firm-service/internal/config"
	"github.com/spec-kit/firm-service/internal/events"
	"github.com/spec-kit/firm-service/internal/observability"
	"github.com/spec-kit/firm-service/internal/persistence"
	"github.com/spec-kit/firm-service/internal/platform"
	"github.com/spec-kit/firm-service/internal/queue"
	"github.com/spec-kit/firm-service/internal/repository"
	"github.com/spec-kit/firm-service/internal/service"
	"github.com/spec-kit/firm-service/internal/uow"
	"github.com/spec-kit/firm-service/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	configRepo := repository.NewCachedGuildConfigRepository(
		repository.NewGuildConfigRepository(pool),
		redis.Client,
		cfg.Cache.GuildConfigTTL(),
		logger,
	)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	adapter := platform.NewLogAdapter(logger)
	opQueue := queue.New(logger)
	uowFactory := uow.NewManager(pool)
	rollback := uow.NewRollbackService(logger)

	staffService := service.NewStaffService(service.StaffDependencies{
		Queue:           opQueue,
		UnitOfWork:      uowFactory,
		Rollback:        rollback,
		GuildConfigRepo: configRepo,
		Platform:        adapter,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		Queue:           opQueue,
		UnitOfWork:      uowFactory,
		Rollback:        rollback,
		GuildConfigRepo: configRepo,
		Platform:        adapter,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})

	notificationService := service.NewNotificationService(dispatcher, adapter, logger)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth.GatewayKeyHash),
		Staff:          handlers.NewStaffHandler(staffService, staffRepo),
		Cases:          handlers.NewCasesHandler(caseService, caseRepo),
		Guild:          handlers.NewGuildHandler(configRepo, auditRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	// let queued lifecycle operations finish before the pool closes
	opQueue.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

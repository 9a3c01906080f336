package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/startline/auth-server/internal/api/http"
	"github.com/startline/auth-server/internal/api/http/handlers"
	"github.com/startline/auth-server/internal/auth"
	"github.com/startline/auth-server/internal/config"
	"github.com/startline/auth-server/internal/events"
	"github.com/startline/auth-server/internal/observability"
	"github.com/startline/auth-server/internal/persistence"
	"github.com/startline/auth-server/internal/repository"
	"github.com/startline/auth-server/internal/service"
	"github.com/startline/auth-server/internal/worker"
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

	pg, err := persistence.OpenPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	dependencies := map[string]handlers.Pinger{}
	var storeOpts []repository.StoreOption

	if cfg.Auth.RefreshStore == config.RefreshStoreRedis {
		redis, err := persistence.OpenRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()

		refreshTokens, err := redis.RefreshTokens()
		if err != nil {
			logger.Fatal("failed to init redis refresh token store", zap.Error(err))
		}
		storeOpts = append(storeOpts, repository.WithRefreshTokenStore(refreshTokens))
		dependencies["redis"] = redis
	}

	var tx repository.Transactor
	if pg != nil {
		if cfg.Postgres.RunMigrations {
			if err := pg.Migrate(ctx); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		tx = pg.Transactor(storeOpts...)
		dependencies["postgres"] = pg
	} else {
		logger.Warn("using in-memory principal store; data is lost on restart")
		tx = repository.NewMemoryStore(storeOpts...)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Transactor: tx,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Events:     dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	accountService := service.NewAccountService(tx, dispatcher, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.Codec())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(accountService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

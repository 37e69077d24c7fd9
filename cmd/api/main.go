package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/campusdesk/internal/api/http"
	"github.com/spec-kit/campusdesk/internal/api/http/handlers"
	"github.com/spec-kit/campusdesk/internal/classifier"
	"github.com/spec-kit/campusdesk/internal/config"
	"github.com/spec-kit/campusdesk/internal/events"
	"github.com/spec-kit/campusdesk/internal/observability"
	"github.com/spec-kit/campusdesk/internal/persistence"
	"github.com/spec-kit/campusdesk/internal/repository"
	"github.com/spec-kit/campusdesk/internal/service"
	"github.com/spec-kit/campusdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	health := map[string]handlers.Pinger{}

	var requestRepo repository.RequestRepository
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory request store; data is lost on restart")
		requestRepo = repository.NewMemoryRequestRepository()
	default:
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		health["postgres"] = pg
		requestRepo = repository.NewRequestRepository(pg.Pool)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	if redis.Client != nil {
		health["redis"] = redis
	}

	var primary classifier.TextClassifier
	if cfg.Classifier.Enabled() {
		primary = classifier.NewRemoteClassifier(classifier.NewAnthropicCompleter(cfg.Classifier, logger))
		logger.Info("ai classification enabled", zap.String("model", cfg.Classifier.Model))
	} else {
		logger.Warn("ANTHROPIC_API_KEY not provided; classifying with keyword rules only")
	}

	dispatcher := events.NewInMemoryDispatcher()

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		Classifier:  classifier.NewFallbackClassifier(primary, logger, metrics),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Validator:   validator.New(),
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		RequestRepo: requestRepo,
		Cache:       repository.NewCacheRepository(redis.Client),
		Dispatcher:  dispatcher,
		TTL:         cfg.Redis.StatsTTL(),
		Logger:      logger,
	})
	worker.StartStatsWorker(statsService)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.App.RequestTimeout(),
		CORSOrigin: cfg.App.CORSOrigin,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Requests: handlers.NewRequestsHandler(requestService, statsService),
		Metrics:  metrics.Handler(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("storage", cfg.Storage.Driver),
		)
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

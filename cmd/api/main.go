package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
	"github.com/spec-kit/sla-engine/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	source := repository.NewTicketSourceRepository(pg.PoolHandle())
	mttrCache := repository.NewMTTRCache(redis.Client)

	classifier := sla.NewClassifier(keywordConfig(cfg.Engine))
	evaluator := sla.NewEvaluator(sla.DefaultPolicy(), sla.DefaultProfile)
	timeline := sla.NewTimelineBuilder(classifier)

	engine := service.NewEvaluationService(cfg.Engine, service.EvaluationDependencies{
		Source:     source,
		MTTRCache:  mttrCache,
		Classifier: classifier,
		Evaluator:  evaluator,
		Timeline:   timeline,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	sessions := service.NewSessionManager(engine, dispatcher, logger, cfg.Engine.TickInterval())
	defer sessions.StopActive()

	worker.StartBreachMonitor(service.NewBreachMonitor(dispatcher, logger))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	slaHandler := handlers.NewSLAHandler(engine, sessions)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		SLA:    slaHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func keywordConfig(cfg config.EngineConfig) sla.KeywordConfig {
	return sla.KeywordConfig{
		PartnerKeywords: map[domain.Partner][]string{
			domain.PartnerConnectX: cfg.ConnectXKeywords,
			domain.PartnerATT:      cfg.ATTKeywords,
			domain.PartnerAirvet:   cfg.AirvetKeywords,
		},
		EscalatedKeywords: map[domain.Tier][]string{
			domain.TierL1: cfg.EscalatedKeywords,
		},
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

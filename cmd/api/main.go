package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-ticket-service/internal/api/http"
	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/sla-ticket-service/internal/auth"
	"github.com/spec-kit/sla-ticket-service/internal/clock"
	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/persistence"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	"github.com/spec-kit/sla-ticket-service/internal/worker"
	"github.com/spec-kit/sla-ticket-service/migrations"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	policyFile := pflag.String("sla-policy", "", "YAML file with the priority to hours table (overrides SLA_POLICY_FILE)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *policyFile != "" {
		cfg.SLA.PolicyFile = *policyFile
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.Files, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var store repository.TicketStore
	if pg.Enabled() {
		store = repository.NewPostgresTicketStore(pg.PoolHandle())
	}
	ticketRepo := repository.NewTicketRepository(store)
	loaded, err := ticketRepo.Hydrate(ctx)
	if err != nil {
		logger.Fatal("failed to load tickets", zap.Error(err))
	}
	logger.Info("tickets loaded", zap.Int("count", loaded))

	systemClock := clock.Real()
	policyStore, err := newPolicyStore(cfg.SLA, systemClock)
	if err != nil {
		logger.Fatal("invalid sla policy", zap.String("file", cfg.SLA.PolicyFile), zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var fanout events.EventHandler
	if client := redis.ClientHandle(); client != nil {
		fanout = events.NewRedisFanout(client, cfg.Notification.RedisChannel)
	}
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, fanout)

	slaService := service.NewSLAService(service.SLADependencies{
		Store:      policyStore,
		Persister:  repository.NewSLAPolicyRepository(redis.ClientHandle()),
		Clock:      systemClock,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if _, err := slaService.Restore(ctx); err != nil {
		logger.Warn("persisted sla policy ignored", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		SLAStore:   policyStore,
		Clock:      systemClock,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	monitor := worker.NewOverdueMonitor(ticketService, dispatcher, systemClock, logger)
	runner := worker.NewRunner(notifications, monitor, cfg.App.OverdueSweepInterval())
	runner.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	var authHandler *handlers.AuthHandler
	if cfg.App.Env != "production" {
		authHandler = handlers.NewAuthHandler(tokens)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, persistence.ErrNotConfigured),
		Tickets:         handlers.NewTicketsHandler(ticketService),
		SLA:             handlers.NewSLAHandler(slaService),
		Metrics:         handlers.NewMetricsHandler(metrics),
		Auth:            authHandler,
		ActorMiddleware: auth.NewActorMiddleware(tokens),
		Idempotency: httptransport.IdempotencyMiddleware(
			repository.NewIdempotencyRepository(redis.ClientHandle(), cfg.App.IdempotencyTTL()), logger),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()
	runner.Wait()

	if err := app.ShutdownWithTimeout(cfg.App.ShutdownGracePeriod()); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// newPolicyStore seeds the SLA table from the policy file, or the
// defaults when none is configured.
func newPolicyStore(cfg config.SLAConfig, c clock.Clock) (*sla.Store, error) {
	policy := sla.DefaultPolicy()
	if cfg.PolicyFile != "" {
		raw, err := config.LoadSLAPolicyFile(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		if policy, err = sla.ParsePolicy(raw); err != nil {
			return nil, err
		}
	}
	return sla.NewStore(policy, c.Now())
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

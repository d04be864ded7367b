// claimguard API server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/medledger/claimguard/internal/application/registration"
	"github.com/medledger/claimguard/internal/application/review"
	"github.com/medledger/claimguard/internal/application/scoring"
	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres/repositories"
	"github.com/medledger/claimguard/internal/infrastructure/database/redis"
	"github.com/medledger/claimguard/internal/infrastructure/messaging/kafka"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/prometheus"
	"github.com/medledger/claimguard/internal/infrastructure/storage/minio"
	"github.com/medledger/claimguard/internal/intelligence/ensemble"
	"github.com/medledger/claimguard/internal/intelligence/features"
	"github.com/medledger/claimguard/internal/intelligence/rules"
	httpserver "github.com/medledger/claimguard/internal/interfaces/http"
	"github.com/medledger/claimguard/internal/interfaces/http/handlers"
	"github.com/medledger/claimguard/internal/interfaces/http/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: env-only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Monitoring.Logging)
	if err != nil {
		return err
	}
	logger.Info("starting claimguard API server",
		logging.String("host", cfg.Server.HTTP.Host),
		logging.Int("port", cfg.Server.HTTP.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Schema first: repositories assume the migrated shape.
	pg := cfg.Database.Postgres
	if err := postgres.RunMigrations(pg.MigrationDSN(), pg.MigrationsURL()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	conn, err := postgres.NewConnection(ctx, pg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	claimRepo := repositories.NewClaimRepository(conn.Pool(), logger)
	patientRepo := repositories.NewPatientRepository(conn.Pool(), logger)

	redisClient, err := redis.NewClient(cfg.Cache.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger)
	history := redis.NewCachedHistory(claimRepo, cache, logger)

	publisher := kafka.NewPublisher(cfg.Messaging.Kafka, logger)
	defer publisher.Close()

	store, err := minio.NewClient(cfg.Storage.MinIO, logger)
	if err != nil {
		return err
	}
	reportStore := minio.NewReportStore(store, cfg.Storage.MinIO.AuditBucket, logger)

	// Pull fresh model artifacts before the first load; a failed sync leaves
	// whatever is already on disk, and LoadMetadata degrades from there.
	artifactSync := minio.NewArtifactSync(store, cfg.Storage.MinIO.ModelsBucket, cfg.Scoring.ModelsDir, logger)
	if err := artifactSync.Sync(ctx); err != nil {
		logger.Warn("model artifact sync failed, using local artifacts", logging.Err(err))
	}

	mlScorer := buildEnsemble(cfg, logger)
	watcher, err := ensemble.WatchArtifacts(cfg.Scoring.ModelsDir, logger, func() {
		meta := ensemble.LoadMetadata(cfg.Scoring.ModelsDir)
		mlScorer.Reload(meta, ensemble.LoadPolicy(cfg.Scoring.ModelsDir))
		if cfg.Scoring.ScorerEndpoint == "" {
			// In-process classifier coefficients live in the metadata, so the
			// backend is rebuilt alongside it.
			mlScorer.SwapBackends(ensemble.NewLogisticBackend(meta), nil)
		}
	})
	if err != nil {
		logger.Warn("model artifact watcher unavailable", logging.Err(err))
	} else {
		defer watcher.Close()
	}

	metrics := prometheus.NewMetrics()

	orchestrator := scoring.NewOrchestrator(
		claimRepo,
		history,
		rules.NewScorer(cfg.Fraud.Rules),
		features.NewExtractor(),
		mlScorer,
		reportStore,
		cfg.Fraud.Rules,
		cfg.Scoring,
		scoring.WithEventPublisher(publisher),
		scoring.WithLogger(logger),
		scoring.WithMetrics(metrics),
	)

	sweeper := review.NewSweeper(claimRepo, cfg.Fraud.Review,
		review.WithSweeperEvents(publisher),
		review.WithSweeperLogger(logger),
		review.WithSweeperMetrics(metrics),
	)
	reviewSvc := review.NewService(claimRepo, reportStore, sweeper,
		review.WithServiceLogger(logger),
	)
	registrationSvc := registration.NewService(patientRepo, cfg.Fraud.Identity,
		registration.WithLogger(logger),
	)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		PatientHandler: handlers.NewPatientHandler(registrationSvc, patientRepo, logger),
		ClaimHandler:   handlers.NewClaimHandler(orchestrator, reviewSvc, logger),
		AdminHandler:   handlers.NewAdminHandler(reviewSvc, logger),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(conn.HealthCheck),
			"redis":    handlers.PingFunc(redisClient.Ping),
		}, logger),
		LoggingMiddleware: middleware.NewLoggingMiddleware(logger, metrics),
		Metrics:           metrics,
	})

	srv := httpserver.NewServer(cfg.Server.HTTP, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return srv.Stop(context.Background())
}

// buildEnsemble loads model artifacts and assembles the scorer.  The
// supervised side prefers the external model server when one is configured
// and falls back to the in-process classifier from metadata coefficients.
func buildEnsemble(cfg *config.Config, logger logging.Logger) *ensemble.Scorer {
	meta := ensemble.LoadMetadata(cfg.Scoring.ModelsDir)
	policy := ensemble.LoadPolicy(cfg.Scoring.ModelsDir)

	var classifier ensemble.InferenceBackend
	if cfg.Scoring.ScorerEndpoint != "" {
		classifier = ensemble.NewHTTPBackend("model-server", cfg.Scoring.ScorerEndpoint)
	} else {
		classifier = ensemble.NewLogisticBackend(meta)
	}

	opts := []ensemble.Option{
		ensemble.WithTimeout(cfg.Scoring.InferenceTimeout),
		ensemble.WithLogger(logger),
	}
	if classifier != nil {
		opts = append(opts, ensemble.WithClassifier(classifier))
	}
	return ensemble.NewScorer(meta, policy, opts...)
}

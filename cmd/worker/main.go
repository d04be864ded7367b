// claimguard background worker: runs the review sweeper and keeps model
// artifacts in sync with the models bucket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medledger/claimguard/internal/application/review"
	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres/repositories"
	"github.com/medledger/claimguard/internal/infrastructure/messaging/kafka"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/prometheus"
	"github.com/medledger/claimguard/internal/infrastructure/storage/minio"
)

// artifactSyncInterval is how often the worker polls the models bucket.
const artifactSyncInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: env-only)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
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
	logger.Info("starting claimguard worker",
		logging.Duration("reviewTimeout", cfg.Fraud.Review.Timeout),
		logging.Duration("sweepInterval", cfg.Fraud.Review.SweepInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := postgres.NewConnection(ctx, cfg.Database.Postgres, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	claimRepo := repositories.NewClaimRepository(conn.Pool(), logger)

	publisher := kafka.NewPublisher(cfg.Messaging.Kafka, logger)
	defer publisher.Close()

	metrics := prometheus.NewMetrics()

	sweeper := review.NewSweeper(claimRepo, cfg.Fraud.Review,
		review.WithSweeperEvents(publisher),
		review.WithSweeperLogger(logger),
		review.WithSweeperMetrics(metrics),
	)

	store, err := minio.NewClient(cfg.Storage.MinIO, logger)
	if err != nil {
		return err
	}
	artifactSync := minio.NewArtifactSync(store, cfg.Storage.MinIO.ModelsBucket, cfg.Scoring.ModelsDir, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(artifactSyncInterval)
		defer ticker.Stop()
		for {
			if err := artifactSync.Sync(ctx); err != nil {
				logger.Warn("model artifact sync failed", logging.Err(err))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/bank-cap-etl/internal/clock/system"
	"github.com/JakeFAU/bank-cap-etl/internal/config"
	goquerydom "github.com/JakeFAU/bank-cap-etl/internal/dom/goquery"
	"github.com/JakeFAU/bank-cap-etl/internal/etl"
	collyfetcher "github.com/JakeFAU/bank-cap-etl/internal/fetcher/colly"
	"github.com/JakeFAU/bank-cap-etl/internal/hash/sha256"
	"github.com/JakeFAU/bank-cap-etl/internal/id/uuid"
	"github.com/JakeFAU/bank-cap-etl/internal/logging"
	"github.com/JakeFAU/bank-cap-etl/internal/metrics"
	"github.com/JakeFAU/bank-cap-etl/internal/pipeline"
	"github.com/JakeFAU/bank-cap-etl/internal/progress"
	pubsubpublisher "github.com/JakeFAU/bank-cap-etl/internal/publisher/pubsub"
	"github.com/JakeFAU/bank-cap-etl/internal/storage/gcs"
	"github.com/JakeFAU/bank-cap-etl/internal/storage/local"
	memoryStorage "github.com/JakeFAU/bank-cap-etl/internal/storage/memory"
	"github.com/JakeFAU/bank-cap-etl/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()
	os.Exit(run(*cfgPath))
}

func run(cfgPath string) int {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return 1
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	progressLog, err := progress.NewFileLogger(cfg.Progress.Path, clock, logger)
	if err != nil {
		logger.Error("progress log init failed", zap.Error(err))
		return 1
	}

	deps := pipeline.Deps{
		Fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.HTTP.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		}),
		Parser: goquerydom.New(),
		OpenStore: func(ctx context.Context) (etl.TableStore, error) {
			store, err := postgres.NewTableStore(ctx, postgres.TableStoreConfig{
				DSN:             cfg.Store.DSN,
				MaxConns:        cfg.Store.MaxConns,
				MinConns:        cfg.Store.MinConns,
				MaxConnLifetime: cfg.Store.MaxConnLifetime,
			})
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		Hasher:   sha256.New(),
		Progress: progressLog,
		Metrics:  metrics.NewRecorder(),
		Report:   os.Stdout,
		Logger:   logger,
		Clock:    clock,
		IDs:      uuid.New(),
	}

	switch cfg.Archive.Provider {
	case config.ArchiveLocal:
		store, err := local.New(local.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			logger.Error("local archive init failed", zap.Error(err))
			return 1
		}
		deps.Archive = store
	case config.ArchiveGCS:
		store, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.Archive.Bucket})
		if err != nil {
			logger.Error("gcs archive init failed", zap.Error(err))
			return 1
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Warn("gcs client close failed", zap.Error(closeErr))
			}
		}()
		deps.Archive = store
	case config.ArchiveMemory:
		deps.Archive = memoryStorage.NewBlobStore()
	}

	if cfg.Notify.Topic != "" {
		pub, err := pubsubpublisher.Open(ctx, cfg.Notify.ProjectID)
		if err != nil {
			logger.Error("pubsub init failed", zap.Error(err))
			return 1
		}
		defer func() {
			if closeErr := pub.Close(); closeErr != nil {
				logger.Warn("pubsub close failed", zap.Error(closeErr))
			}
		}()
		deps.Publisher = pub
	}

	summary, err := pipeline.Run(ctx, cfg.RunConfig(), deps)
	if err != nil {
		logger.Error("etl run failed", zap.String("run_id", summary.RunID), zap.Error(err))
		return 1
	}
	logger.Info("etl run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("records", summary.Records),
		zap.String("csv", summary.CSVPath),
		zap.String("table", summary.Table),
	)
	return 0
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/kozaktomas/photo-analyzer/internal/annotate"
	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/constants"
	"github.com/kozaktomas/photo-analyzer/internal/database/postgres"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

// newAnalyzer wires the model server clients, the image fetcher and the
// renderer into an analyzer.
func newAnalyzer(cfg *config.Config) (*pipeline.Analyzer, error) {
	client := &http.Client{}

	renderer, err := annotate.NewRenderer(cfg.Storage.TaggedDir())
	if err != nil {
		return nil, err
	}

	embedder := fingerprint.NewEmbeddingClient(cfg.Embedding.URL, client, cfg.Embedding.Timeout)
	deps := pipeline.Deps{
		Loader:   imageio.NewFetcher(client, cfg.Download.Timeout, cfg.Download.MaxBytes),
		Faces:    embedder,
		Embedder: embedder,
		Renderer: renderer,
	}
	if cfg.Detection.URL != "" {
		deps.Objects = fingerprint.NewObjectClient(cfg.Detection.URL, client, cfg.Detection.Timeout)
	} else {
		slog.Info("object detection disabled", "reason", "OBJECT_DETECTION_URL not set")
	}

	return pipeline.New(deps, cfg.Analysis), nil
}

// openTracker connects the configured job status store. The returned close
// function releases it.
func openTracker(ctx context.Context, cfg *config.Config) (*jobstatus.Tracker, func(), error) {
	switch cfg.Jobs.Store {
	case config.JobStoreRedis:
		store := jobstatus.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr(), err)
		}
		slog.Info("job status store ready", "store", "redis", "addr", cfg.Redis.Addr())
		return jobstatus.NewTracker(store, cfg.Jobs.TTL), func() { _ = store.Close() }, nil

	case config.JobStorePostgres:
		pool, err := postgres.Initialize(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		store := postgres.NewJobStore(pool)
		go store.RunSweeper(sweepCtx, constants.JobSweepInterval)
		slog.Info("job status store ready", "store", "postgres")
		return jobstatus.NewTracker(store, cfg.Jobs.TTL), func() {
			stopSweep()
			_ = pool.Close()
		}, nil

	case config.JobStoreMemory:
		slog.Info("job status store ready", "store", "memory")
		return jobstatus.NewTracker(jobstatus.NewMemoryStore(), cfg.Jobs.TTL), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown JOB_STORE %q (want redis, postgres or memory)", cfg.Jobs.Store)
	}
}

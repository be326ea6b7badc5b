package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/chunk"
	"github.com/trailblazer-io/trailblazer/internal/coordination"
	"github.com/trailblazer-io/trailblazer/internal/embedload"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/observability"
	"github.com/trailblazer-io/trailblazer/internal/storage/postgres"
)

func init() {
	registerVerb("worker", runWorker)
}

// runWorker drains one phase's claim backlog ("chunk" or "embed")
// against the processed_runs coordination table, per §4.7.
func runWorker(args []string) error {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	phase := fs.String("phase", "", "phase to drain: chunk or embed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *phase != "chunk" && *phase != "embed" {
		return fmt.Errorf("worker: -phase must be chunk or embed")
	}

	ctx := context.Background()
	pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	claimTTL, err := time.ParseDuration(config.Coordination.ClaimTTL)
	if err != nil {
		return fmt.Errorf("worker: invalid coordination.claim_ttl %q: %w", config.Coordination.ClaimTTL, err)
	}

	runStore := postgres.NewProcessedRunStore(pool)
	emitter := observability.New(config.LogsRoot, observability.DefaultConfig(), logger)
	defer emitter.Close()

	coord := coordination.New(runStore, emitter, logger, claimTTL, config.Coordination.HostPID)
	workerPool := coordination.NewPool(ctx, config.Coordination.Workers, logger)

	docs := postgres.NewDocumentStore(pool)
	chunks := postgres.NewChunkStore(pool)
	vectors := postgres.NewEmbeddingStore(pool)

	p, err := selectProvider(config.Provider)
	if err != nil {
		return err
	}

	var handler coordination.RunHandler
	switch *phase {
	case "chunk":
		handler = func(ctx context.Context, run *models.ProcessedRun) (map[string]int, error) {
			layout := artifact.NewLayout(config.WorkRoot, run.RunID)
			assurance, err := chunk.New(layout, logger).ChunkRun(models.DefaultChunkerConfig())
			if err != nil {
				return nil, err
			}
			return map[string]int{"totalChunks": assurance.TotalChunks}, nil
		}
	case "embed":
		handler = func(ctx context.Context, run *models.ProcessedRun) (map[string]int, error) {
			layout := artifact.NewLayout(config.WorkRoot, run.RunID)
			loader := embedload.New(layout, logger, docs, chunks, vectors)
			assurance, err := loader.LoadRun(ctx, embedload.Options{
				Provider:    p,
				Model:       config.Provider.Model,
				BatchSize:   config.Provider.BatchSize,
				ChangedOnly: true,
				ChunkConfig: models.DefaultChunkerConfig(),
			})
			if err != nil {
				return nil, err
			}
			return map[string]int{"embeddedChunks": assurance.ChunksEmbedded}, nil
		}
	}

	if err := coord.Drain(ctx, *phase, workerPool, handler); err != nil {
		return err
	}

	logger.Info().Str("phase", *phase).Msg("worker drain complete")
	return nil
}

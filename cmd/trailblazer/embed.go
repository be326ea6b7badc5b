package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/embedload"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/storage/postgres"
)

func init() {
	registerVerb("embed", runEmbed)
}

func runEmbed(args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	runID := fs.String("run", "", "run id to embed")
	changedOnly := fs.Bool("changed-only", true, "skip docs whose fingerprint is unchanged")
	reembedAll := fs.Bool("reembed-all", false, "ignore fingerprints and changedOnly, reembed everything")
	dryRun := fs.Bool("dry-run-cost", false, "estimate token cost without calling the provider")
	maxDocs := fs.Int("max-docs", 0, "cap on documents embedded (0 = unlimited)")
	maxChunks := fs.Int("max-chunks", 0, "cap on chunks embedded (0 = unlimited)")
	gitCommit := fs.String("git-commit", "", "git commit recorded in the manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("embed: -run is required")
	}

	ctx := context.Background()
	pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	p, err := selectProvider(config.Provider)
	if err != nil {
		return err
	}

	layout := artifact.NewLayout(config.WorkRoot, *runID)
	loader := embedload.New(layout, logger,
		postgres.NewDocumentStore(pool),
		postgres.NewChunkStore(pool),
		postgres.NewEmbeddingStore(pool))

	assurance, err := loader.LoadRun(ctx, embedload.Options{
		Provider:    p,
		Model:       config.Provider.Model,
		BatchSize:   config.Provider.BatchSize,
		MaxDocs:     *maxDocs,
		MaxChunks:   *maxChunks,
		ChangedOnly: *changedOnly,
		ReembedAll:  *reembedAll,
		DryRunCost:  *dryRun,
		GitCommit:   *gitCommit,
		ChunkConfig: models.DefaultChunkerConfig(),
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", *runID).
		Int("docs_embedded", assurance.DocsEmbedded).
		Int("docs_skipped", assurance.DocsSkipped).
		Int("chunks_embedded", assurance.ChunksEmbedded).
		Int("chunks_failed", assurance.ChunksFailed).
		Msg("embed complete")
	return nil
}

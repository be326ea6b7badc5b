package main

import (
	"flag"
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/chunk"
	"github.com/trailblazer-io/trailblazer/internal/models"
)

func init() {
	registerVerb("chunk", runChunk)
}

func runChunk(args []string) error {
	fs := flag.NewFlagSet("chunk", flag.ExitOnError)
	runID := fs.String("run", "", "run id to chunk")
	maxTokens := fs.Int("max-tokens", 0, "override default max tokens per chunk")
	minTokens := fs.Int("min-tokens", 0, "override default min tokens per chunk")
	preferHeadings := fs.Bool("prefer-headings", true, "prefer splitting at heading boundaries")
	overlapPct := fs.Float64("overlap-pct", 0, "override default chunk overlap percentage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("chunk: -run is required")
	}

	cfg := models.DefaultChunkerConfig()
	if *maxTokens > 0 {
		cfg.MaxTokens = *maxTokens
	}
	if *minTokens > 0 {
		cfg.MinTokens = *minTokens
	}
	cfg.PreferHeadings = *preferHeadings
	if *overlapPct > 0 {
		cfg.OverlapPct = *overlapPct
	}

	layout := artifact.NewLayout(config.WorkRoot, *runID)
	c := chunk.New(layout, logger)
	assurance, err := c.ChunkRun(cfg)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", *runID).
		Int("total_chunks", assurance.TotalChunks).
		Msg("chunk complete")
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/enrich"
)

func init() {
	registerVerb("enrich", runEnrich)
}

func runEnrich(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	runID := fs.String("run", "", "run id to enrich")
	maxDocs := fs.Int("max-docs", 0, "cap on documents processed (0 = unlimited)")
	minQuality := fs.Float64("min-quality", 0.4, "minimum quality score before a doc is flagged")
	maxBelowPct := fs.Float64("max-below-threshold-pct", 0.2, "advisory ceiling on the fraction of docs below min-quality")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("enrich: -run is required")
	}

	layout := artifact.NewLayout(config.WorkRoot, *runID)
	e := enrich.New(layout, logger)
	stats, err := e.EnrichRun(context.Background(), enrich.Options{
		MaxDocs:              *maxDocs,
		MinQuality:           *minQuality,
		MaxBelowThresholdPct: *maxBelowPct,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", *runID).
		Int("total_docs", stats.TotalDocs).
		Int("parse_errors", stats.ParseErrors).
		Msg("enrich complete")
	return nil
}

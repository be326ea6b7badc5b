package main

import (
	"flag"
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/preflight"
)

func init() {
	registerVerb("preflight", runPreflight)
}

func runPreflight(args []string) error {
	fs := flag.NewFlagSet("preflight", flag.ExitOnError)
	runID := fs.String("run", "", "run id to certify")
	minQuality := fs.Float64("min-quality", 0.4, "minimum quality score used for the skiplist")
	minEmbedDocs := fs.Int("min-embed-docs", 1, "minimum embeddable docs required to pass")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("preflight: -run is required")
	}

	layout := artifact.NewLayout(config.WorkRoot, *runID)
	result, err := preflight.Validate(layout, preflight.Config{
		Provider:     config.Provider.Name,
		Model:        config.Provider.Model,
		Dimension:    config.Provider.Dimension,
		MinQuality:   *minQuality,
		MinEmbedDocs: *minEmbedDocs,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", *runID).
		Str("status", string(result.Status)).
		Strs("reasons", result.Reasons).
		Int("embeddable_docs", result.DocTotals.EmbeddableDocs).
		Msg("preflight complete")

	if result.Status != "READY" {
		return fmt.Errorf("preflight: run %s is blocked: %v", *runID, result.Reasons)
	}
	return nil
}

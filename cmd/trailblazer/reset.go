package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/storage/postgres"
)

func init() {
	registerVerb("reset", runReset)
}

// runReset returns the given runs to the reset status for
// reprocessing, per §4.7's Reset operation.
func runReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	runs := fs.String("runs", "", "comma-separated run ids to reset")
	deleteArtifacts := fs.Bool("delete-artifacts", false, "passed to the store's Reset; this command does not clear chunks/embeddings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runs == "" {
		return fmt.Errorf("reset: -runs is required")
	}

	ctx := context.Background()
	pool, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	runIDs := strings.Split(*runs, ",")
	store := postgres.NewProcessedRunStore(pool)
	if err := store.Reset(ctx, runIDs, *deleteArtifacts); err != nil {
		return err
	}

	logger.Info().Strs("run_ids", runIDs).Msg("reset complete")
	return nil
}

package coordination

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/interfaces"
	"github.com/trailblazer-io/trailblazer/internal/models"
)

// RunHandler processes one claimed run for a phase and returns the
// totals MarkComplete needs (e.g. {"totalChunks": n}).
type RunHandler func(ctx context.Context, run *models.ProcessedRun) (map[string]int, error)

// Coordinator wraps a ProcessedRunStore with the claim/recover/mark
// cycle of §4.7, emitting observability events around each step.
type Coordinator struct {
	Store    interfaces.ProcessedRunStore
	Events   interfaces.EventEmitter
	Logger   arbor.ILogger
	ClaimTTL time.Duration
	HostPID  string
}

// New returns a Coordinator. hostPID identifies this worker in
// claimedBy; it defaults to "<hostname>-<pid>" when empty.
func New(store interfaces.ProcessedRunStore, events interfaces.EventEmitter, logger arbor.ILogger, claimTTL time.Duration, hostPID string) *Coordinator {
	if hostPID == "" {
		hostPID = defaultHostPID()
	}
	return &Coordinator{Store: store, Events: events, Logger: logger, ClaimTTL: claimTTL, HostPID: hostPID}
}

func defaultHostPID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// RecoverStale reverts runs stuck in phase's active status past
// ClaimTTL back to their pre-phase status, emitting
// runs.claim.recovered with the count.
func (c *Coordinator) RecoverStale(ctx context.Context, phase string) (int, error) {
	end := c.Events.Start(ctx, "runs", "claim.recovered", "")
	n, err := c.Store.RecoverStale(ctx, phase, c.ClaimTTL)
	if err != nil {
		end(err, models.EventCounts{})
		return 0, err
	}
	end(nil, models.EventCounts{Docs: n})
	if n > 0 {
		c.Logger.Info().Int("recovered", n).Str("phase", phase).Msg("coordination: recovered stale claims")
	}
	return n, nil
}

// ClaimNext attempts one claim for phase, returning ok=false when the
// backlog is empty.
func (c *Coordinator) ClaimNext(ctx context.Context, phase string) (*models.ProcessedRun, bool, error) {
	run, ok, err := c.Store.Claim(ctx, phase, c.HostPID)
	if err != nil || !ok {
		return nil, ok, err
	}
	c.Logger.Info().Str("run_id", run.RunID).Str("phase", phase).Str("claimed_by", c.HostPID).Msg("coordination: claimed run")
	return run, true, nil
}

// ProcessOne claims, runs handler, and marks the result: complete on
// success, or left in its active state (for the next RecoverStale
// sweep, or a future retry) on failure — handlers are expected to be
// idempotent so a reclaim is safe.
func (c *Coordinator) ProcessOne(ctx context.Context, phase string, handler RunHandler) (bool, error) {
	run, ok, err := c.ClaimNext(ctx, phase)
	if err != nil || !ok {
		return false, err
	}

	end := c.Events.Start(ctx, phase, "process", run.RunID)
	totals, err := handler(ctx, run)
	if err != nil {
		end(err, models.EventCounts{})
		return true, err
	}
	if err := c.Store.MarkComplete(ctx, run.RunID, phase, totals); err != nil {
		end(err, models.EventCounts{})
		return true, err
	}
	end(nil, models.EventCounts{Chunks: totals["totalChunks"] + totals["embeddedChunks"]})
	return true, nil
}

// Drain repeatedly claims and processes runs for phase using pool's
// workers until the backlog is empty, after one RecoverStale sweep.
func (c *Coordinator) Drain(ctx context.Context, phase string, pool *Pool, handler RunHandler) error {
	if _, err := c.RecoverStale(ctx, phase); err != nil {
		return err
	}

	pool.Start()
	for i := 0; i < pool.maxWorkers; i++ {
		pool.Submit(func(jobCtx context.Context) error {
			for {
				processed, err := c.ProcessOne(jobCtx, phase, handler)
				if err != nil {
					return err
				}
				if !processed {
					return nil
				}
				select {
				case <-jobCtx.Done():
					return jobCtx.Err()
				default:
				}
			}
		})
	}
	pool.Wait()

	if errs := pool.Errors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Reset returns runIDs to the reset status for reprocessing.
func (c *Coordinator) Reset(ctx context.Context, runIDs []string, deleteArtifacts bool) error {
	return c.Store.Reset(ctx, runIDs, deleteArtifacts)
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// ProcessedRunStore is the §4.7 coordination table, claimed with
// FOR UPDATE SKIP LOCKED so concurrent workers never contend for the
// same run.
type ProcessedRunStore struct {
	pool *pgxpool.Pool
}

func NewProcessedRunStore(pool *pgxpool.Pool) *ProcessedRunStore {
	return &ProcessedRunStore{pool: pool}
}

func (s *ProcessedRunStore) InsertNormalized(ctx context.Context, run *models.ProcessedRun) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO processed_runs (run_id, source, normalized_at, status, total_docs, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id) DO NOTHING
`, run.RunID, run.Source, run.NormalizedAt, string(models.StatusNormalized), run.TotalDocs, run.NormalizedAt)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.InsertNormalized", err)
	}
	return nil
}

// RecoverStale reverts rows stuck in phase's active status past ttl back
// to the phase's pre-state, per §4.7's crash recovery: a worker that dies
// mid-claim leaves no heartbeat, so staleness is judged by updated_at age
// alone.
func (s *ProcessedRunStore) RecoverStale(ctx context.Context, phase string, ttl time.Duration) (int, error) {
	active := models.ActiveStatus(phase)
	if active == "" {
		return 0, trailerr.Newf(trailerr.KindConfiguration, "postgres.ProcessedRunStore.RecoverStale", "unknown phase %q", phase)
	}
	preStates := models.PreStates(phase)
	if len(preStates) == 0 {
		return 0, trailerr.Newf(trailerr.KindConfiguration, "postgres.ProcessedRunStore.RecoverStale", "no pre-states for phase %q", phase)
	}
	revertTo := preStates[0]
	cutoff := time.Now().Add(-ttl)

	tag, err := s.pool.Exec(ctx, `
UPDATE processed_runs
SET status = $1, claimed_by = NULL, claimed_at = NULL, updated_at = $2
WHERE status = $3 AND updated_at < $2
`, string(revertTo), cutoff, string(active))
	if err != nil {
		return 0, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.RecoverStale", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *ProcessedRunStore) Claim(ctx context.Context, phase, claimedBy string) (*models.ProcessedRun, bool, error) {
	preStates := models.PreStates(phase)
	active := models.ActiveStatus(phase)
	if len(preStates) == 0 || active == "" {
		return nil, false, trailerr.Newf(trailerr.KindConfiguration, "postgres.ProcessedRunStore.Claim", "unknown phase %q", phase)
	}
	statusTexts := make([]string, len(preStates))
	for i, st := range preStates {
		statusTexts[i] = string(st)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Claim", err)
	}
	defer tx.Rollback(ctx)

	var runID string
	row := tx.QueryRow(ctx, `
SELECT run_id FROM processed_runs
WHERE status = ANY($1)
ORDER BY normalized_at ASC
FOR UPDATE SKIP LOCKED
LIMIT 1
`, statusTexts)
	if err := row.Scan(&runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Claim", err)
	}

	now := time.Now()
	startedCol := "chunk_started_at"
	if phase == "embed" {
		startedCol = "embed_started_at"
	}
	_, err = tx.Exec(ctx, `
UPDATE processed_runs
SET status = $1, claimed_by = $2, claimed_at = $3, updated_at = $3, `+startedCol+` = $3
WHERE run_id = $4
`, string(active), claimedBy, now, runID)
	if err != nil {
		return nil, false, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Claim", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Claim", err)
	}

	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, false, err
	}
	return run, true, nil
}

func (s *ProcessedRunStore) MarkComplete(ctx context.Context, runID, phase string, totals map[string]int) error {
	done := models.DoneStatus(phase)
	if done == "" {
		return trailerr.Newf(trailerr.KindConfiguration, "postgres.ProcessedRunStore.MarkComplete", "unknown phase %q", phase)
	}
	now := time.Now()
	switch phase {
	case "chunk":
		_, err := s.pool.Exec(ctx, `
UPDATE processed_runs
SET status = $1, total_chunks = $2, chunk_completed_at = $3, updated_at = $3, claimed_by = NULL, claimed_at = NULL
WHERE run_id = $4
`, string(done), totals["totalChunks"], now, runID)
		if err != nil {
			return trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.MarkComplete", err)
		}
	case "embed":
		_, err := s.pool.Exec(ctx, `
UPDATE processed_runs
SET status = $1, embedded_chunks = $2, embed_completed_at = $3, updated_at = $3, claimed_by = NULL, claimed_at = NULL
WHERE run_id = $4
`, string(done), totals["embeddedChunks"], now, runID)
		if err != nil {
			return trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.MarkComplete", err)
		}
	default:
		return trailerr.Newf(trailerr.KindConfiguration, "postgres.ProcessedRunStore.MarkComplete", "unknown phase %q", phase)
	}
	return nil
}

func (s *ProcessedRunStore) Reset(ctx context.Context, runIDs []string, deleteArtifacts bool) error {
	if len(runIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
UPDATE processed_runs
SET status = $1, claimed_by = NULL, claimed_at = NULL, updated_at = $2
WHERE run_id = ANY($3)
`, string(models.StatusReset), time.Now(), runIDs)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Reset", err)
	}
	return nil
}

func (s *ProcessedRunStore) Get(ctx context.Context, runID string) (*models.ProcessedRun, error) {
	row := s.pool.QueryRow(ctx, `
SELECT run_id, source, normalized_at, status, total_docs, total_chunks, embedded_chunks,
       COALESCE(claimed_by, ''), claimed_at, chunk_started_at, chunk_completed_at,
       embed_started_at, embed_completed_at, COALESCE(code_version, ''), updated_at
FROM processed_runs WHERE run_id = $1
`, runID)
	run, err := scanProcessedRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trailerr.New(trailerr.KindMissingInput, "postgres.ProcessedRunStore.Get", err)
		}
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.Get", err)
	}
	return run, nil
}

func (s *ProcessedRunStore) ListBySource(ctx context.Context, source string) ([]*models.ProcessedRun, error) {
	rows, err := s.pool.Query(ctx, `
SELECT run_id, source, normalized_at, status, total_docs, total_chunks, embedded_chunks,
       COALESCE(claimed_by, ''), claimed_at, chunk_started_at, chunk_completed_at,
       embed_started_at, embed_completed_at, COALESCE(code_version, ''), updated_at
FROM processed_runs WHERE source = $1
ORDER BY normalized_at DESC
`, source)
	if err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.ListBySource", err)
	}
	defer rows.Close()

	var out []*models.ProcessedRun
	for rows.Next() {
		run, err := scanProcessedRun(rows)
		if err != nil {
			return nil, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.ListBySource", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.ProcessedRunStore.ListBySource", err)
	}
	return out, nil
}

// rowScanner abstracts pgx.Row / pgx.Rows, which share a Scan signature
// but no common interface in pgx/v5.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcessedRun(r rowScanner) (*models.ProcessedRun, error) {
	var run models.ProcessedRun
	var status string
	if err := r.Scan(&run.RunID, &run.Source, &run.NormalizedAt, &status, &run.TotalDocs,
		&run.TotalChunks, &run.EmbeddedChunks, &run.ClaimedBy, &run.ClaimedAt,
		&run.ChunkStartedAt, &run.ChunkCompletedAt, &run.EmbedStartedAt, &run.EmbedCompletedAt,
		&run.CodeVersion, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	return &run, nil
}

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// openTestPool opens a real pool against DATABASE_URL and initializes the
// schema, skipping the test when no database is configured. Postgres has
// no embeddable in-process mode like the teacher's sqlite, so these run
// only when a DATABASE_URL is provided.
func openTestPool(t *testing.T) *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := OpenPool(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, InitSchema(ctx, pool, 8))
	t.Cleanup(pool.Close)
	return pool
}

func TestDocumentStore_UpsertAndGetRoundTrip(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	docs := NewDocumentStore(pool)

	doc := &models.Document{
		DocID:         "conf:123",
		SourceSystem:  models.SourceConfluence,
		Title:         "Runbook: Deploys",
		URL:           "https://example.atlassian.net/wiki/spaces/OPS/123",
		SpaceKey:      "OPS",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		UpdatedAt:     time.Now().UTC().Truncate(time.Second),
		BodyRepr:      models.BodyReprStorage,
		ContentSha256: "abc123",
	}
	require.NoError(t, docs.UpsertDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, doc.DocID)
	require.NoError(t, err)
	require.Equal(t, doc.Title, got.Title)
	require.Equal(t, doc.SpaceKey, got.SpaceKey)

	_, ok, err := docs.GetFingerprint(ctx, doc.DocID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, docs.UpsertFingerprint(ctx, models.EnrichmentFingerprint{
		DocID:             doc.DocID,
		EnrichmentVersion: "v1",
		FingerprintSha256: "deadbeef",
	}))
	fp, ok, err := docs.GetFingerprint(ctx, doc.DocID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "deadbeef", fp)
}

func TestProcessedRunStore_ClaimProtocol(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	runs := NewProcessedRunStore(pool)

	run := &models.ProcessedRun{
		RunID:        "2026-07-31_000000_aaaa",
		Source:       "confluence",
		NormalizedAt: time.Now().UTC(),
		TotalDocs:    3,
	}
	require.NoError(t, runs.InsertNormalized(ctx, run))

	claimed, ok, err := runs.Claim(ctx, "chunk", "worker-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, models.StatusChunking, claimed.Status)

	_, ok, err = runs.Claim(ctx, "chunk", "worker-2")
	require.NoError(t, err)
	require.False(t, ok, "a claimed run must not be claimable again")

	require.NoError(t, runs.MarkComplete(ctx, run.RunID, "chunk", map[string]int{"totalChunks": 42}))

	got, err := runs.Get(ctx, run.RunID)
	require.NoError(t, err)
	require.Equal(t, models.StatusChunked, got.Status)
	require.NotNil(t, got.TotalChunks)
	require.Equal(t, 42, *got.TotalChunks)
}

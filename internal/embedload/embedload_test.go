package embedload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/provider"
)

type memDocumentStore struct {
	docs         map[string]*models.Document
	fingerprints map[string]string
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{docs: make(map[string]*models.Document), fingerprints: make(map[string]string)}
}

func (m *memDocumentStore) UpsertDocument(ctx context.Context, doc *models.Document) error {
	cp := *doc
	m.docs[doc.DocID] = &cp
	return nil
}

func (m *memDocumentStore) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	return m.docs[docID], nil
}

func (m *memDocumentStore) GetFingerprint(ctx context.Context, docID string) (string, bool, error) {
	fp, ok := m.fingerprints[docID]
	return fp, ok, nil
}

func (m *memDocumentStore) UpsertFingerprint(ctx context.Context, fp models.EnrichmentFingerprint) error {
	m.fingerprints[fp.DocID] = fp.FingerprintSha256
	return nil
}

type memChunkStore struct {
	chunks map[string]*models.Chunk
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: make(map[string]*models.Chunk)}
}

func (m *memChunkStore) UpsertChunk(ctx context.Context, c *models.Chunk) error {
	cp := *c
	m.chunks[c.ChunkID] = &cp
	return nil
}

func (m *memChunkStore) GetChunksByDoc(ctx context.Context, docID string) ([]*models.Chunk, error) {
	var out []*models.Chunk
	for _, c := range m.chunks {
		if c.DocID == docID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memEmbeddingStore struct {
	embeddings map[string]*models.ChunkEmbedding
	dim        int
	hasDim     bool
}

func newMemEmbeddingStore() *memEmbeddingStore {
	return &memEmbeddingStore{embeddings: make(map[string]*models.ChunkEmbedding)}
}

func (m *memEmbeddingStore) UpsertEmbedding(ctx context.Context, emb *models.ChunkEmbedding) error {
	cp := *emb
	m.embeddings[emb.ChunkID+"|"+emb.Provider] = &cp
	m.dim = emb.Dim
	m.hasDim = true
	return nil
}

func (m *memEmbeddingStore) ExistingDimension(ctx context.Context, provider string) (int, bool, error) {
	return m.dim, m.hasDim, nil
}

func (m *memEmbeddingStore) DenseSearch(ctx context.Context, provider string, queryVec []float32, topK int, spaceWhitelist []string) ([]models.Hit, error) {
	return nil, nil
}

func writeRun(t *testing.T, layout artifact.Layout) {
	t.Helper()
	w, err := artifact.NewWriter(layout.NormalizedNDJSON())
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(models.NormalizedRecord{
		ID:            "doc-1",
		Title:         "Runbook",
		URL:           "https://example.atlassian.net/wiki/spaces/OPS/1",
		SpaceKey:      "OPS",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
		BodyRepr:      models.BodyReprStorage,
		TextMd:        "# Runbook\n\nRestart the service.",
		SourceSystem:  models.SourceConfluence,
		ContentSha256: "abc",
	}))
	require.NoError(t, w.Close())

	cw, err := artifact.NewWriter(layout.ChunksNDJSON())
	require.NoError(t, err)
	require.NoError(t, cw.WriteRecord(models.Chunk{
		ChunkID:    "doc-1:0000",
		DocID:      "doc-1",
		Ord:        0,
		TextMd:     "Restart the service.",
		CharCount:  21,
		TokenCount: 3,
		Traceability: models.Traceability{
			Title: "Runbook", URL: "https://example.atlassian.net/wiki/spaces/OPS/1", SourceSystem: models.SourceConfluence,
		},
	}))
	require.NoError(t, cw.Close())
}

func TestLoadRun_EmbedsAndWritesManifest(t *testing.T) {
	workRoot := t.TempDir()
	layout := artifact.NewLayout(workRoot, "2026-07-31_000000_test")
	writeRun(t, layout)

	docs := newMemDocumentStore()
	chunks := newMemChunkStore()
	vectors := newMemEmbeddingStore()
	loader := New(layout, arbor.NewLogger(), docs, chunks, vectors)

	dummy := provider.NewDummy(8)
	assurance, err := loader.LoadRun(context.Background(), Options{
		Provider:  dummy,
		Model:     "dummy-v1",
		BatchSize: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, assurance.DocsTotal)
	require.Equal(t, 1, assurance.DocsEmbedded)
	require.Equal(t, 1, assurance.ChunksEmbedded)
	require.Len(t, vectors.embeddings, 1)
	require.Contains(t, docs.docs, "doc-1")
}

func TestLoadRun_DryRunCostSkipsEmbedding(t *testing.T) {
	workRoot := t.TempDir()
	layout := artifact.NewLayout(workRoot, "2026-07-31_000001_test")
	writeRun(t, layout)

	docs := newMemDocumentStore()
	chunks := newMemChunkStore()
	vectors := newMemEmbeddingStore()
	loader := New(layout, arbor.NewLogger(), docs, chunks, vectors)

	assurance, err := loader.LoadRun(context.Background(), Options{
		Provider:   provider.NewDummy(8),
		DryRunCost: true,
	})
	require.NoError(t, err)
	require.True(t, assurance.DryRun)
	require.Equal(t, 3, assurance.EstimatedTokens)
	require.Empty(t, vectors.embeddings)
}

func TestLoadRun_DimensionMismatchWithoutReembedAll(t *testing.T) {
	workRoot := t.TempDir()
	layout := artifact.NewLayout(workRoot, "2026-07-31_000002_test")
	writeRun(t, layout)

	docs := newMemDocumentStore()
	chunks := newMemChunkStore()
	vectors := newMemEmbeddingStore()
	vectors.dim = 16
	vectors.hasDim = true
	loader := New(layout, arbor.NewLogger(), docs, chunks, vectors)

	_, err := loader.LoadRun(context.Background(), Options{
		Provider: provider.NewDummy(8),
	})
	require.Error(t, err)
}

func TestLoadRun_ChangedOnlySkipsUnchangedDoc(t *testing.T) {
	workRoot := t.TempDir()
	layout := artifact.NewLayout(workRoot, "2026-07-31_000003_test")
	writeRun(t, layout)

	fw, err := artifact.NewWriter(layout.FingerprintsJSONL())
	require.NoError(t, err)
	require.NoError(t, fw.WriteRecord(models.EnrichmentFingerprint{DocID: "doc-1", FingerprintSha256: "same-hash"}))
	require.NoError(t, fw.Close())

	docs := newMemDocumentStore()
	docs.fingerprints["doc-1"] = "same-hash"
	chunks := newMemChunkStore()
	vectors := newMemEmbeddingStore()
	loader := New(layout, arbor.NewLogger(), docs, chunks, vectors)

	assurance, err := loader.LoadRun(context.Background(), Options{
		Provider:    provider.NewDummy(8),
		ChangedOnly: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, assurance.DocsSkipped)
	require.Equal(t, 0, assurance.DocsEmbedded)
}

package interfaces

import (
	"context"
	"time"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// DocumentStore upserts and reads normalized/enriched documents in the
// relational store (§3 Document, §6 relational schema).
type DocumentStore interface {
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, docID string) (*models.Document, error)
	GetFingerprint(ctx context.Context, docID string) (string, bool, error)
	UpsertFingerprint(ctx context.Context, fp models.EnrichmentFingerprint) error
}

// ChunkStore upserts chunks keyed by chunkId and reads them back for
// retrieval/fulltext search.
type ChunkStore interface {
	UpsertChunk(ctx context.Context, chunk *models.Chunk) error
	GetChunksByDoc(ctx context.Context, docID string) ([]*models.Chunk, error)
}

// EmbeddingStore upserts and queries vector embeddings, keyed by
// (chunkId, provider).
type EmbeddingStore interface {
	UpsertEmbedding(ctx context.Context, emb *models.ChunkEmbedding) error
	ExistingDimension(ctx context.Context, provider string) (int, bool, error)

	// DenseSearch returns the topK nearest chunks to queryVec by cosine
	// similarity, restricted to provider/dim and optionally a space
	// whitelist, ordered score desc then docId asc then chunkId asc.
	DenseSearch(ctx context.Context, provider string, queryVec []float32, topK int, spaceWhitelist []string) ([]models.Hit, error)
}

// FullTextStore runs BM25-style lexical search over chunk text.
type FullTextStore interface {
	LexicalSearch(ctx context.Context, query string, topK int, spaceWhitelist []string, domainFilter string) ([]models.Hit, error)
}

// ProcessedRunStore implements the claim protocol of §4.7 against the
// processed_runs coordination table.
type ProcessedRunStore interface {
	InsertNormalized(ctx context.Context, run *models.ProcessedRun) error

	// RecoverStale reverts rows stuck in an active status past ttl back
	// to their pre-phase status and returns how many were recovered.
	RecoverStale(ctx context.Context, phase string, ttl time.Duration) (int, error)

	// Claim attempts to take the next candidate row for phase using
	// FOR UPDATE SKIP LOCKED; ok is false if no candidate is available.
	Claim(ctx context.Context, phase, claimedBy string) (run *models.ProcessedRun, ok bool, err error)

	MarkComplete(ctx context.Context, runID, phase string, totals map[string]int) error

	// Reset returns the given runIds to the reset status; if
	// deleteArtifacts is true, callers are responsible for also
	// clearing DB chunks/embeddings for those runs beforehand.
	Reset(ctx context.Context, runIDs []string, deleteArtifacts bool) error

	Get(ctx context.Context, runID string) (*models.ProcessedRun, error)
	ListBySource(ctx context.Context, source string) ([]*models.ProcessedRun, error)
}

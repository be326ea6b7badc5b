package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// schemaSQL is the logical relational schema of §6. dim is baked in
// per-store because pgvector's `vector(dim)` column type is fixed at
// creation time; a dimension change is handled at the application
// layer (DimensionMismatch, §4.5) rather than by altering the column.
const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	doc_id TEXT PRIMARY KEY,
	source_system TEXT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	space_key TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	body_repr TEXT NOT NULL,
	content_sha256 TEXT NOT NULL,
	fingerprint_sha256 TEXT,
	meta JSONB
);

CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL REFERENCES documents(doc_id),
	ord INTEGER NOT NULL,
	text_md TEXT NOT NULL,
	char_count INTEGER NOT NULL,
	token_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_doc_ord ON chunks(doc_id, ord);
CREATE INDEX IF NOT EXISTS idx_chunks_fts ON chunks USING GIN (to_tsvector('english', text_md));

CREATE TABLE IF NOT EXISTS chunk_embeddings (
	chunk_id TEXT NOT NULL REFERENCES chunks(chunk_id),
	provider TEXT NOT NULL,
	dim INTEGER NOT NULL,
	embedding vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chunk_id, provider)
);

CREATE TABLE IF NOT EXISTS processed_runs (
	run_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	normalized_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	total_docs INTEGER NOT NULL,
	total_chunks INTEGER,
	embedded_chunks INTEGER,
	claimed_by TEXT,
	claimed_at TIMESTAMPTZ,
	chunk_started_at TIMESTAMPTZ,
	chunk_completed_at TIMESTAMPTZ,
	embed_started_at TIMESTAMPTZ,
	embed_completed_at TIMESTAMPTZ,
	code_version TEXT,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_runs_status ON processed_runs(status, normalized_at);
`

// InitSchema creates every table/index idempotently. embeddingDim
// fixes the vector column's declared width for this deployment.
func InitSchema(ctx context.Context, pool *pgxpool.Pool, embeddingDim int) error {
	stmt := fmt.Sprintf(schemaSQL, embeddingDim)
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.InitSchema", err)
	}
	return nil
}

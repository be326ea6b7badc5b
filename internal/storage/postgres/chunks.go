package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// ChunkStore is the §6 chunks table. Traceability (title/url/sourceSystem)
// is denormalized onto documents and joined back at read time rather than
// stored per chunk.
type ChunkStore struct {
	pool *pgxpool.Pool
}

func NewChunkStore(pool *pgxpool.Pool) *ChunkStore {
	return &ChunkStore{pool: pool}
}

func (s *ChunkStore) UpsertChunk(ctx context.Context, chunk *models.Chunk) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO chunks (chunk_id, doc_id, ord, text_md, char_count, token_count)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chunk_id) DO UPDATE SET
	ord = EXCLUDED.ord,
	text_md = EXCLUDED.text_md,
	char_count = EXCLUDED.char_count,
	token_count = EXCLUDED.token_count
`, chunk.ChunkID, chunk.DocID, chunk.Ord, chunk.TextMd, chunk.CharCount, chunk.TokenCount)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.ChunkStore.UpsertChunk", err)
	}
	return nil
}

func (s *ChunkStore) GetChunksByDoc(ctx context.Context, docID string) ([]*models.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
SELECT c.chunk_id, c.doc_id, c.ord, c.text_md, c.char_count, c.token_count,
       d.title, d.url, d.source_system
FROM chunks c JOIN documents d ON d.doc_id = c.doc_id
WHERE c.doc_id = $1
ORDER BY c.ord ASC
`, docID)
	if err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.ChunkStore.GetChunksByDoc", err)
	}
	defer rows.Close()

	var out []*models.Chunk
	for rows.Next() {
		var c models.Chunk
		var sourceSystem string
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.Ord, &c.TextMd, &c.CharCount, &c.TokenCount,
			&c.Traceability.Title, &c.Traceability.URL, &sourceSystem); err != nil {
			return nil, trailerr.New(trailerr.KindDatabase, "postgres.ChunkStore.GetChunksByDoc", err)
		}
		c.Traceability.SourceSystem = models.SourceSystem(sourceSystem)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.ChunkStore.GetChunksByDoc", err)
	}
	return out, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// EmbeddingStore is the §6 chunk_embeddings table, queried with pgvector's
// cosine distance operator (<=>). Dense similarity is reported as
// 1 - cosine_distance so that higher is always better, matching BM25's
// convention in the hybrid fuser.
type EmbeddingStore struct {
	pool *pgxpool.Pool
}

func NewEmbeddingStore(pool *pgxpool.Pool) *EmbeddingStore {
	return &EmbeddingStore{pool: pool}
}

func (s *EmbeddingStore) UpsertEmbedding(ctx context.Context, emb *models.ChunkEmbedding) error {
	vec := pgvector.NewVector(emb.Embedding)
	_, err := s.pool.Exec(ctx, `
INSERT INTO chunk_embeddings (chunk_id, provider, dim, embedding, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (chunk_id, provider) DO UPDATE SET
	dim = EXCLUDED.dim,
	embedding = EXCLUDED.embedding,
	created_at = EXCLUDED.created_at
`, emb.ChunkID, emb.Provider, emb.Dim, vec, emb.CreatedAt)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.EmbeddingStore.UpsertEmbedding", err)
	}
	return nil
}

func (s *EmbeddingStore) ExistingDimension(ctx context.Context, provider string) (int, bool, error) {
	var dim int
	row := s.pool.QueryRow(ctx, `SELECT dim FROM chunk_embeddings WHERE provider = $1 LIMIT 1`, provider)
	if err := row.Scan(&dim); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, trailerr.New(trailerr.KindDatabase, "postgres.EmbeddingStore.ExistingDimension", err)
	}
	return dim, true, nil
}

func (s *EmbeddingStore) DenseSearch(ctx context.Context, provider string, queryVec []float32, topK int, spaceWhitelist []string) ([]models.Hit, error) {
	if topK <= 0 {
		topK = 10
	}
	vec := pgvector.NewVector(queryVec)

	args := []interface{}{provider, vec, topK, len(queryVec)}
	where := "e.provider = $1 AND e.dim = $4"
	if len(spaceWhitelist) > 0 {
		placeholders := make([]string, len(spaceWhitelist))
		for i, sk := range spaceWhitelist {
			args = append(args, sk)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += fmt.Sprintf(" AND d.space_key IN (%s)", strings.Join(placeholders, ", "))
	}

	query := fmt.Sprintf(`
SELECT c.chunk_id, c.doc_id, d.title, d.url, d.source_system, c.text_md,
       1 - (e.embedding <=> $2) AS score
FROM chunk_embeddings e
JOIN chunks c ON c.chunk_id = e.chunk_id
JOIN documents d ON d.doc_id = c.doc_id
WHERE %s
ORDER BY e.embedding <=> $2 ASC, c.doc_id ASC, c.chunk_id ASC
LIMIT $3
`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.EmbeddingStore.DenseSearch", err)
	}
	defer rows.Close()

	var hits []models.Hit
	for rows.Next() {
		var h models.Hit
		var sourceSystem string
		if err := rows.Scan(&h.ChunkID, &h.DocID, &h.Title, &h.URL, &sourceSystem, &h.TextMd, &h.Score); err != nil {
			return nil, trailerr.New(trailerr.KindDatabase, "postgres.EmbeddingStore.DenseSearch", err)
		}
		h.SourceSystem = models.SourceSystem(sourceSystem)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.EmbeddingStore.DenseSearch", err)
	}
	return hits, nil
}

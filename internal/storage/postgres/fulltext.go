package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// FullTextStore runs BM25-style lexical search via Postgres's built-in
// ts_rank over the GIN index on chunks.text_md. domainFilter restricts to
// a collection (e.g. "methodology", "playbook") when non-empty.
type FullTextStore struct {
	pool *pgxpool.Pool
}

func NewFullTextStore(pool *pgxpool.Pool) *FullTextStore {
	return &FullTextStore{pool: pool}
}

func (s *FullTextStore) LexicalSearch(ctx context.Context, query string, topK int, spaceWhitelist []string, domainFilter string) ([]models.Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	args := []interface{}{query, topK}
	where := "to_tsvector('english', c.text_md) @@ websearch_to_tsquery('english', $1)"

	if len(spaceWhitelist) > 0 {
		placeholders := make([]string, len(spaceWhitelist))
		for i, sk := range spaceWhitelist {
			args = append(args, sk)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += fmt.Sprintf(" AND d.space_key IN (%s)", strings.Join(placeholders, ", "))
	}
	if domainFilter != "" {
		args = append(args, domainFilter)
		where += fmt.Sprintf(" AND d.collection = $%d", len(args))
	}

	sql := fmt.Sprintf(`
SELECT c.chunk_id, c.doc_id, d.title, d.url, d.source_system, c.text_md,
       ts_rank(to_tsvector('english', c.text_md), websearch_to_tsquery('english', $1)) AS score
FROM chunks c JOIN documents d ON d.doc_id = c.doc_id
WHERE %s
ORDER BY score DESC, c.doc_id ASC, c.chunk_id ASC
LIMIT $2
`, where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.FullTextStore.LexicalSearch", err)
	}
	defer rows.Close()

	var hits []models.Hit
	for rows.Next() {
		var h models.Hit
		var sourceSystem string
		if err := rows.Scan(&h.ChunkID, &h.DocID, &h.Title, &h.URL, &sourceSystem, &h.TextMd, &h.Score); err != nil {
			return nil, trailerr.New(trailerr.KindDatabase, "postgres.FullTextStore.LexicalSearch", err)
		}
		h.SourceSystem = models.SourceSystem(sourceSystem)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.FullTextStore.LexicalSearch", err)
	}
	return hits, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// DocumentStore is the §6 documents table, also carrying the enrichment
// fingerprint as a nullable column rather than a separate table since a
// document has at most one current fingerprint.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) UpsertDocument(ctx context.Context, doc *models.Document) error {
	meta, err := json.Marshal(doc.Meta)
	if err != nil {
		return trailerr.New(trailerr.KindParse, "postgres.DocumentStore.UpsertDocument", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO documents (doc_id, source_system, title, url, space_key, created_at, updated_at, body_repr, content_sha256, meta)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (doc_id) DO UPDATE SET
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	space_key = EXCLUDED.space_key,
	updated_at = EXCLUDED.updated_at,
	body_repr = EXCLUDED.body_repr,
	content_sha256 = EXCLUDED.content_sha256,
	meta = EXCLUDED.meta
`, doc.DocID, string(doc.SourceSystem), doc.Title, doc.URL, doc.SpaceKey, doc.CreatedAt, doc.UpdatedAt, string(doc.BodyRepr), doc.ContentSha256, meta)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.DocumentStore.UpsertDocument", err)
	}
	return nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	var doc models.Document
	var sourceSystem, bodyRepr string
	var meta []byte
	row := s.pool.QueryRow(ctx, `
SELECT doc_id, source_system, title, url, COALESCE(space_key, ''), created_at, updated_at, body_repr, content_sha256, meta
FROM documents WHERE doc_id = $1
`, docID)
	if err := row.Scan(&doc.DocID, &sourceSystem, &doc.Title, &doc.URL, &doc.SpaceKey, &doc.CreatedAt, &doc.UpdatedAt, &bodyRepr, &doc.ContentSha256, &meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trailerr.New(trailerr.KindMissingInput, "postgres.DocumentStore.GetDocument", err)
		}
		return nil, trailerr.New(trailerr.KindDatabase, "postgres.DocumentStore.GetDocument", err)
	}
	doc.SourceSystem = models.SourceSystem(sourceSystem)
	doc.BodyRepr = models.BodyRepr(bodyRepr)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Meta); err != nil {
			return nil, trailerr.New(trailerr.KindParse, "postgres.DocumentStore.GetDocument", err)
		}
	}
	return &doc, nil
}

func (s *DocumentStore) GetFingerprint(ctx context.Context, docID string) (string, bool, error) {
	var fp *string
	row := s.pool.QueryRow(ctx, `SELECT fingerprint_sha256 FROM documents WHERE doc_id = $1`, docID)
	if err := row.Scan(&fp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, trailerr.New(trailerr.KindDatabase, "postgres.DocumentStore.GetFingerprint", err)
	}
	if fp == nil {
		return "", false, nil
	}
	return *fp, true, nil
}

func (s *DocumentStore) UpsertFingerprint(ctx context.Context, fp models.EnrichmentFingerprint) error {
	_, err := s.pool.Exec(ctx, `UPDATE documents SET fingerprint_sha256 = $1 WHERE doc_id = $2`, fp.FingerprintSha256, fp.DocID)
	if err != nil {
		return trailerr.New(trailerr.KindDatabase, "postgres.DocumentStore.UpsertFingerprint", err)
	}
	return nil
}

// Package embedload implements §4.5: materializing documents, chunks,
// and embeddings in the relational store for one run.
package embedload

import (
	"context"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/chunk"
	"github.com/trailblazer-io/trailblazer/internal/enrich"
	"github.com/trailblazer-io/trailblazer/internal/interfaces"
	"github.com/trailblazer-io/trailblazer/internal/manifest"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Options configures one loadRun invocation.
type Options struct {
	Provider    interfaces.EmbeddingProvider
	Model       string
	BatchSize   int
	MaxDocs     int // 0 = unlimited
	MaxChunks   int // 0 = unlimited
	ChangedOnly bool
	ReembedAll  bool
	DryRunCost  bool
	GitCommit   string
	ChunkConfig models.ChunkerConfig
}

// Loader runs the embed phase against a run's artifact layout and the
// relational store.
type Loader struct {
	Layout   artifact.Layout
	Logger   arbor.ILogger
	Docs     interfaces.DocumentStore
	Chunks   interfaces.ChunkStore
	Vectors  interfaces.EmbeddingStore
}

// New returns a Loader bound to layout and the given stores.
func New(layout artifact.Layout, logger arbor.ILogger, docs interfaces.DocumentStore, chunks interfaces.ChunkStore, vectors interfaces.EmbeddingStore) *Loader {
	return &Loader{Layout: layout, Logger: logger, Docs: docs, Chunks: chunks, Vectors: vectors}
}

type docBundle struct {
	doc         models.Document
	fingerprint string
	chunks      []*models.Chunk
}

// LoadRun executes loadRun: reads enriched (or normalized) records and
// chunks for the run, upserts documents/chunks, and embeds in batches,
// honoring changedOnly/reembedAll and the dimension-safety check.
func (l *Loader) LoadRun(ctx context.Context, opts Options) (models.EmbedAssurance, error) {
	started := time.Now()
	assurance := models.EmbedAssurance{RunID: l.Layout.RunID, DryRun: opts.DryRunCost}

	if !opts.ReembedAll {
		existingDim, ok, err := l.Vectors.ExistingDimension(ctx, opts.Provider.ProviderName())
		if err != nil {
			return assurance, err
		}
		if ok && existingDim != opts.Provider.Dimension() {
			return assurance, trailerr.Newf(trailerr.KindDimensionMismatch, "embedload.LoadRun",
				"existing embeddings for provider %q have dim %d, requested dim %d", opts.Provider.ProviderName(), existingDim, opts.Provider.Dimension())
		}
	}

	bundles, err := l.readBundles(opts)
	if err != nil {
		return assurance, err
	}
	assurance.DocsTotal = len(bundles)

	var (
		toEmbed         []*models.Chunk
		allChunkTuples  []*models.Chunk
		docFingerprints []models.EnrichmentFingerprint
	)

	for _, b := range bundles {
		if err := l.Docs.UpsertDocument(ctx, &b.doc); err != nil {
			return assurance, err
		}
		docFingerprints = append(docFingerprints, models.EnrichmentFingerprint{DocID: b.doc.DocID, FingerprintSha256: b.fingerprint})

		skip := false
		if opts.ChangedOnly && !opts.ReembedAll {
			stored, ok, err := l.Docs.GetFingerprint(ctx, b.doc.DocID)
			if err != nil {
				return assurance, err
			}
			if ok && stored == b.fingerprint && b.fingerprint != "" {
				skip = true
			}
		}
		if skip {
			assurance.DocsSkipped++
			continue
		}
		assurance.DocsEmbedded++

		for _, c := range b.chunks {
			if err := l.Chunks.UpsertChunk(ctx, c); err != nil {
				return assurance, err
			}
			allChunkTuples = append(allChunkTuples, c)
			if opts.MaxChunks > 0 && len(toEmbed) >= opts.MaxChunks {
				continue
			}
			toEmbed = append(toEmbed, c)
		}
		if err := l.Docs.UpsertFingerprint(ctx, models.EnrichmentFingerprint{DocID: b.doc.DocID, FingerprintSha256: b.fingerprint}); err != nil {
			return assurance, err
		}
	}
	assurance.ChunksTotal = len(allChunkTuples)

	if opts.DryRunCost {
		for _, c := range toEmbed {
			assurance.EstimatedTokens += c.TokenCount
		}
		assurance.DurationMs = time.Since(started).Milliseconds()
		return assurance, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	for start := 0; start < len(toEmbed); start += batchSize {
		end := start + batchSize
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		batch := toEmbed[start:end]
		assurance.BatchesAttempted++

		vecs, err := opts.Provider.EmbedBatch(ctx, textsOf(batch))
		if err != nil {
			l.Logger.Warn().Err(err).Int("batch_size", len(batch)).Msg("embedload: batch embed failed, falling back to per-item")
			assurance.BatchFallbacks++
			vecs = l.embedIndividually(ctx, opts.Provider, batch, &assurance)
		}
		for i, c := range batch {
			vec := vecs[i]
			if len(vec) != opts.Provider.Dimension() {
				vec = make([]float32, opts.Provider.Dimension())
				assurance.ChunksFailed++
			}
			emb := &models.ChunkEmbedding{
				ChunkID:   c.ChunkID,
				Provider:  opts.Provider.ProviderName(),
				Dim:       opts.Provider.Dimension(),
				Embedding: vec,
				CreatedAt: time.Now().UTC(),
			}
			if err := l.Vectors.UpsertEmbedding(ctx, emb); err != nil {
				return assurance, err
			}
			assurance.ChunksEmbedded++
		}
	}

	assurance.DurationMs = time.Since(started).Milliseconds()

	chunkSetHash, err := manifest.ChunkSetHash(allChunkTuples)
	if err != nil {
		return assurance, err
	}
	m := models.EmbedManifest{
		RunID:           l.Layout.RunID,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		GitCommit:       opts.GitCommit,
		Provider:        opts.Provider.ProviderName(),
		Model:           opts.Model,
		Dimension:       opts.Provider.Dimension(),
		Tokenizer:       chunk.Identity(),
		EnricherVersion: enrich.EnricherVersion,
		ChunkerVersion:  chunk.ChunkerVersion,
		ChunkConfig: models.ChunkConfigSnapshot{
			MaxTokens:      opts.ChunkConfig.MaxTokens,
			MinTokens:      opts.ChunkConfig.MinTokens,
			PreferHeadings: opts.ChunkConfig.PreferHeadings,
		},
		DocFingerprints: docFingerprints,
		ChunkSetHash:    chunkSetHash,
		ChunksEmbedded:  assurance.ChunksEmbedded,
		TotalChunks:     assurance.ChunksTotal,
	}
	if err := manifest.Write(l.Layout.ManifestJSON(), m); err != nil {
		return assurance, err
	}

	return assurance, l.writeAssurance(assurance)
}

// embedIndividually retries each chunk one at a time after a batch
// failure, substituting a zero vector (counted in assurance) for any
// item that still fails, per §4.5's "never abort the entire run".
func (l *Loader) embedIndividually(ctx context.Context, provider interfaces.EmbeddingProvider, batch []*models.Chunk, assurance *models.EmbedAssurance) [][]float32 {
	vecs := make([][]float32, len(batch))
	for i, c := range batch {
		v, err := provider.Embed(ctx, c.TextMd)
		if err != nil {
			l.Logger.Warn().Err(err).Str("chunk_id", c.ChunkID).Msg("embedload: single-item embed failed, substituting zero vector")
			assurance.ChunksFailed++
			vecs[i] = make([]float32, provider.Dimension())
			continue
		}
		vecs[i] = v
	}
	return vecs
}

func textsOf(chunks []*models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.TextMd
	}
	return out
}

func (l *Loader) writeAssurance(a models.EmbedAssurance) error {
	w, err := artifact.NewWriter(l.Layout.EmbedAssuranceJSON())
	if err != nil {
		return err
	}
	if err := w.WriteRecord(a); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// readBundles reads enrich/enriched.jsonl (preferred) or
// normalize/normalized.ndjson (fallback) for documents, enrich's
// fingerprints.jsonl for change detection, and chunk/chunks.ndjson for
// chunks, joining all three by docId.
func (l *Loader) readBundles(opts Options) ([]*docBundle, error) {
	fingerprints, err := l.readFingerprints()
	if err != nil {
		return nil, err
	}

	docs, err := l.readDocuments(opts.MaxDocs)
	if err != nil {
		return nil, err
	}

	chunksByDoc, err := l.readChunks()
	if err != nil {
		return nil, err
	}

	bundles := make([]*docBundle, 0, len(docs))
	for _, d := range docs {
		bundles = append(bundles, &docBundle{
			doc:         d,
			fingerprint: fingerprints[d.DocID],
			chunks:      chunksByDoc[d.DocID],
		})
	}
	return bundles, nil
}

func (l *Loader) readFingerprints() (map[string]string, error) {
	out := make(map[string]string)
	path := l.Layout.FingerprintsJSONL()
	if !artifact.Exists(path) {
		return out, nil
	}
	err := artifact.DecodeLines[models.EnrichmentFingerprint](path, func(fp models.EnrichmentFingerprint, parseErr error) error {
		if parseErr != nil {
			l.Logger.Warn().Err(parseErr).Msg("embedload: skipping malformed fingerprint record")
			return nil
		}
		out[fp.DocID] = fp.FingerprintSha256
		return nil
	})
	return out, err
}

func (l *Loader) readDocuments(maxDocs int) ([]models.Document, error) {
	enrichedPath := l.Layout.EnrichedJSONL()
	if artifact.Exists(enrichedPath) {
		return l.readEnrichedDocuments(enrichedPath, maxDocs)
	}
	normalizedPath := l.Layout.NormalizedNDJSON()
	if !artifact.Exists(normalizedPath) {
		return nil, trailerr.New(trailerr.KindMissingInput, "embedload.readDocuments", os.ErrNotExist)
	}
	return l.readNormalizedDocuments(normalizedPath, maxDocs)
}

func (l *Loader) readEnrichedDocuments(path string, maxDocs int) ([]models.Document, error) {
	var out []models.Document
	err := artifact.DecodeLines[models.EnrichedRecord](path, func(rec models.EnrichedRecord, parseErr error) error {
		if parseErr != nil {
			l.Logger.Warn().Err(parseErr).Msg("embedload: skipping malformed enriched record")
			return nil
		}
		if maxDocs > 0 && len(out) >= maxDocs {
			return nil
		}
		out = append(out, documentFromEnriched(rec))
		return nil
	})
	return out, err
}

func (l *Loader) readNormalizedDocuments(path string, maxDocs int) ([]models.Document, error) {
	var out []models.Document
	err := artifact.DecodeLines[models.NormalizedRecord](path, func(rec models.NormalizedRecord, parseErr error) error {
		if parseErr != nil {
			l.Logger.Warn().Err(parseErr).Msg("embedload: skipping malformed normalized record")
			return nil
		}
		if maxDocs > 0 && len(out) >= maxDocs {
			return nil
		}
		out = append(out, documentFromNormalized(rec))
		return nil
	})
	return out, err
}

func documentFromEnriched(rec models.EnrichedRecord) models.Document {
	d := documentFromNormalized(rec.NormalizedRecord)
	d.Collection = rec.Collection
	d.PathTags = rec.PathTags
	return d
}

func documentFromNormalized(rec models.NormalizedRecord) models.Document {
	return models.Document{
		DocID:         rec.ID,
		SourceSystem:  rec.SourceSystem,
		Title:         rec.Title,
		URL:           rec.URL,
		SpaceKey:      rec.SpaceKey,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		BodyRepr:      rec.BodyRepr,
		ContentSha256: rec.ContentSha256,
		Labels:        rec.Labels,
		Ancestors:     rec.Breadcrumbs,
		Collection:    rec.Collection,
		TextMd:        rec.TextMd,
		Links:         rec.Links,
		Attachments:   rec.Attachments,
	}
}

func (l *Loader) readChunks() (map[string][]*models.Chunk, error) {
	out := make(map[string][]*models.Chunk)
	path := l.Layout.ChunksNDJSON()
	if !artifact.Exists(path) {
		return nil, trailerr.New(trailerr.KindMissingInput, "embedload.readChunks", os.ErrNotExist)
	}
	err := artifact.DecodeLines[models.Chunk](path, func(c models.Chunk, parseErr error) error {
		if parseErr != nil {
			l.Logger.Warn().Err(parseErr).Msg("embedload: skipping malformed chunk record")
			return nil
		}
		rec := c
		out[c.DocID] = append(out[c.DocID], &rec)
		return nil
	})
	return out, err
}

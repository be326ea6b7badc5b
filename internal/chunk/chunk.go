package chunk

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/canon"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Chunker runs the chunk phase against a run's artifact layout.
type Chunker struct {
	Layout artifact.Layout
	Logger arbor.ILogger
}

// New returns a Chunker bound to layout, logging via logger.
func New(layout artifact.Layout, logger arbor.ILogger) *Chunker {
	return &Chunker{Layout: layout, Logger: logger}
}

// docInput is the common shape the chunker needs, regardless of
// whether it read enriched or normalized records.
type docInput struct {
	id           string
	title        string
	url          string
	sourceSystem models.SourceSystem
	textMd       string
	qualityFlags []string
}

// ChunkRun reads enrich/enriched.jsonl (preferred) or
// normalize/normalized.ndjson (fallback) and writes chunk/chunks.ndjson
// and chunk/chunk_assurance.json.
func (c *Chunker) ChunkRun(cfg models.ChunkerConfig) (models.ChunkAssurance, error) {
	docs, qualityDist, parseErrors, err := c.readDocs()
	if err != nil {
		return models.ChunkAssurance{}, err
	}

	w, err := artifact.NewWriter(c.Layout.ChunksNDJSON())
	if err != nil {
		return models.ChunkAssurance{}, err
	}
	defer w.Close()

	var (
		totalChunks    int
		overflowChunks int
		tokenMin       = -1
		tokenMax       int
		tokenSum       int
	)

	for _, d := range docs {
		blocks := partitionBlocks(d.textMd, cfg.PreferHeadings)
		packed := pack(blocks, packConfig{maxTokens: cfg.MaxTokens, minTokens: cfg.MinTokens, overlapPct: cfg.OverlapPct})

		for ord, p := range packed {
			tokens := CountTokens(p.text)
			ch := &models.Chunk{
				ChunkID:    fmt.Sprintf("%s:%04d", d.id, ord),
				DocID:      d.id,
				Ord:        ord,
				TextMd:     p.text,
				CharCount:  len(p.text),
				TokenCount: tokens,
				ContentHash: canon.SHA256HexBytes([]byte(p.text)),
				Traceability: models.Traceability{
					Title:        d.title,
					URL:          d.url,
					SourceSystem: d.sourceSystem,
				},
			}
			if err := w.WriteRecord(ch); err != nil {
				return models.ChunkAssurance{}, err
			}

			totalChunks++
			if p.overflow {
				overflowChunks++
			}
			if tokenMin == -1 || tokens < tokenMin {
				tokenMin = tokens
			}
			if tokens > tokenMax {
				tokenMax = tokens
			}
			tokenSum += tokens
		}
	}

	if tokenMin == -1 {
		tokenMin = 0
	}
	var avg float64
	if totalChunks > 0 {
		avg = float64(tokenSum) / float64(totalChunks)
	}

	assurance := models.ChunkAssurance{
		TotalChunks:         totalChunks,
		TotalDocs:           len(docs),
		TokenCountMin:       tokenMin,
		TokenCountMax:       tokenMax,
		TokenCountAvg:       avg,
		OverflowChunks:      overflowChunks,
		ParseErrors:         parseErrors,
		QualityDistribution: qualityDist,
	}

	aw, err := artifact.NewWriter(c.Layout.ChunkAssuranceJSON())
	if err != nil {
		return models.ChunkAssurance{}, err
	}
	if err := aw.WriteRecord(assurance); err != nil {
		aw.Close()
		return models.ChunkAssurance{}, err
	}
	if err := aw.Close(); err != nil {
		return models.ChunkAssurance{}, err
	}

	return assurance, nil
}

// readDocs prefers enrich/enriched.jsonl; it falls back to
// normalize/normalized.ndjson when enriched is absent, per §4.2.
func (c *Chunker) readDocs() ([]docInput, map[string]int, int, error) {
	enrichedPath := c.Layout.EnrichedJSONL()
	if artifact.Exists(enrichedPath) {
		return c.readEnriched(enrichedPath)
	}

	normalizedPath := c.Layout.NormalizedNDJSON()
	if !artifact.Exists(normalizedPath) {
		return nil, nil, 0, trailerr.New(trailerr.KindMissingInput, "chunk.ChunkRun", os.ErrNotExist)
	}
	return c.readNormalized(normalizedPath)
}

func (c *Chunker) readEnriched(path string) ([]docInput, map[string]int, int, error) {
	var docs []docInput
	dist := make(map[string]int)
	parseErrors := 0
	err := artifact.DecodeLines[models.EnrichedRecord](path, func(rec models.EnrichedRecord, parseErr error) error {
		if parseErr != nil {
			parseErrors++
			c.Logger.Warn().Err(parseErr).Msg("chunk: skipping malformed enriched record")
			return nil
		}
		docs = append(docs, docInput{
			id:           rec.ID,
			title:        rec.Title,
			url:          rec.URL,
			sourceSystem: rec.SourceSystem,
			textMd:       rec.TextMd,
			qualityFlags: rec.QualityFlags,
		})
		for _, f := range rec.QualityFlags {
			dist[f]++
		}
		return nil
	})
	return docs, dist, parseErrors, err
}

func (c *Chunker) readNormalized(path string) ([]docInput, map[string]int, int, error) {
	var docs []docInput
	parseErrors := 0
	err := artifact.DecodeLines[models.NormalizedRecord](path, func(rec models.NormalizedRecord, parseErr error) error {
		if parseErr != nil {
			parseErrors++
			c.Logger.Warn().Err(parseErr).Msg("chunk: skipping malformed normalized record")
			return nil
		}
		docs = append(docs, docInput{
			id:           rec.ID,
			title:        rec.Title,
			url:          rec.URL,
			sourceSystem: rec.SourceSystem,
			textMd:       rec.TextMd,
		})
		return nil
	})
	return docs, nil, parseErrors, err
}

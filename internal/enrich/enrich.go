package enrich

import (
	"context"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Options configures one enrichRun invocation.
type Options struct {
	LLMEnabled           bool
	MaxDocs              int // 0 = unlimited
	MinQuality           float64
	MaxBelowThresholdPct float64
	Overlay              LLMOverlayProvider // nil unless LLMEnabled
}

// Stats summarizes one enrichRun invocation for the caller.
type Stats struct {
	TotalDocs   int
	ParseErrors int
	Assurance   Assurance
}

// Enricher runs the enrich phase against a run's artifact layout.
type Enricher struct {
	Layout artifact.Layout
	Logger arbor.ILogger
}

// New returns an Enricher bound to layout, logging via logger.
func New(layout artifact.Layout, logger arbor.ILogger) *Enricher {
	return &Enricher{Layout: layout, Logger: logger}
}

// EnrichRun reads normalize/normalized.ndjson and writes
// enrich/enriched.jsonl, enrich/fingerprints.jsonl, an optional
// enrich/suggested_edges.jsonl, and the assurance report.
func (e *Enricher) EnrichRun(ctx context.Context, opts Options) (Stats, error) {
	normalizedPath := e.Layout.NormalizedNDJSON()
	if !artifact.Exists(normalizedPath) {
		return Stats{}, trailerr.New(trailerr.KindMissingInput, "enrich.EnrichRun",
			os.ErrNotExist)
	}

	var records []*models.NormalizedRecord
	parseErrors := 0
	err := artifact.DecodeLines[models.NormalizedRecord](normalizedPath, func(rec models.NormalizedRecord, parseErr error) error {
		if parseErr != nil {
			parseErrors++
			e.Logger.Warn().Err(parseErr).Msg("enrich: skipping malformed normalized record")
			return nil
		}
		if opts.MaxDocs > 0 && len(records) >= opts.MaxDocs {
			return nil
		}
		rc := rec
		records = append(records, &rc)
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	enriched := make([]*models.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		enriched = append(enriched, enrichOne(rec))
	}

	if opts.LLMEnabled && opts.Overlay != nil {
		for _, rec := range enriched {
			overlay, err := opts.Overlay.Overlay(ctx, rec)
			if err != nil {
				e.Logger.Warn().Err(err).Str("doc_id", rec.ID).Msg("enrich: LLM overlay failed, continuing without it")
				continue
			}
			rec.LLMOverlay = overlay
		}
	}

	if err := e.writeEnriched(enriched); err != nil {
		return Stats{}, err
	}

	fingerprints, err := e.writeFingerprints(enriched)
	if err != nil {
		return Stats{}, err
	}
	_ = fingerprints

	if opts.LLMEnabled {
		if err := e.writeSuggestedEdges(ctx, opts, enriched); err != nil {
			return Stats{}, err
		}
	}

	scores := make([]float64, 0, len(enriched))
	for _, rec := range enriched {
		scores = append(scores, rec.QualityScore)
	}
	assurance := NewAssurance(scores, parseErrors, opts.MinQuality, opts.MaxBelowThresholdPct)
	if err := e.writeAssurance(assurance); err != nil {
		return Stats{}, err
	}

	return Stats{TotalDocs: len(enriched), ParseErrors: parseErrors, Assurance: assurance}, nil
}

// enrichOne applies every rule-based field of §4.1 to one normalized
// record. It is a pure function: identical input, identical output.
func enrichOne(rec *models.NormalizedRecord) *models.EnrichedRecord {
	collection := Collection(rec.Collection, rec.SpaceKey, rec.SourceSystem)
	pathTags := PathTags(rec.Breadcrumbs, rec.URL, rec.TextMd)
	readability := Readability(rec.TextMd)
	headings := topLevelHeadings(rec.TextMd)
	mediaDensity := MediaDensity(rec.TextMd, len(rec.Attachments))
	linkDensity := LinkDensity(rec.TextMd, rec.Links)
	qualityFlags := QualityFlags(rec.TextMd, headings, mediaDensity)
	qualityScore := QualityScore(qualityFlags, readability)

	return &models.EnrichedRecord{
		NormalizedRecord: *rec,
		Collection:       collection,
		PathTags:         pathTags,
		Readability:      readability,
		MediaDensity:     mediaDensity,
		LinkDensity:      linkDensity,
		QualityFlags:     qualityFlags,
		QualityScore:     qualityScore,
	}
}

func (e *Enricher) writeEnriched(recs []*models.EnrichedRecord) error {
	w, err := artifact.NewWriter(e.Layout.EnrichedJSONL())
	if err != nil {
		return err
	}
	defer w.Close()
	for _, rec := range recs {
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

func (e *Enricher) writeFingerprints(recs []*models.EnrichedRecord) ([]models.EnrichmentFingerprint, error) {
	w, err := artifact.NewWriter(e.Layout.FingerprintsJSONL())
	if err != nil {
		return nil, err
	}
	defer w.Close()

	fingerprints := make([]models.EnrichmentFingerprint, 0, len(recs))
	for _, rec := range recs {
		fp, err := Fingerprint(rec.ID, rec)
		if err != nil {
			return nil, err
		}
		if err := w.WriteRecord(fp); err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fp)
	}
	return fingerprints, nil
}

func (e *Enricher) writeSuggestedEdges(ctx context.Context, opts Options, recs []*models.EnrichedRecord) error {
	edges := HeuristicEdges(recs)
	if opts.Overlay != nil {
		llmEdges, err := opts.Overlay.SuggestEdges(ctx, recs)
		if err != nil {
			e.Logger.Warn().Err(err).Msg("enrich: LLM edge suggestion failed, keeping heuristic edges only")
		} else {
			edges = append(edges, llmEdges...)
		}
	}
	w, err := artifact.NewWriter(e.Layout.SuggestedEdgesJSONL())
	if err != nil {
		return err
	}
	defer w.Close()
	for _, edge := range edges {
		if err := w.WriteRecord(edge); err != nil {
			return err
		}
	}
	return nil
}

func (e *Enricher) writeAssurance(a Assurance) error {
	w, err := artifact.NewWriter(e.Layout.EnrichAssuranceJSON())
	if err != nil {
		return err
	}
	if err := w.WriteRecord(a); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return os.WriteFile(e.Layout.EnrichAssuranceMD(), []byte(a.Markdown()), 0o644)
}

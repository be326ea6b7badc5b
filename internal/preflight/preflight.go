// Package preflight implements §4.3: certifying a run is ready to
// embed (or explaining why it is blocked), and aggregating verdicts
// over a plan of many runs.
package preflight

import (
	"encoding/json"
	"os"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/manifest"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Config is the closed set of knobs preflight checks against.
type Config struct {
	Provider      string
	Model         string
	Dimension     int
	MinQuality    float64
	MinEmbedDocs  int
	TokenizerOK   func() bool // loadable-tokenizer check; nil means always true
}

// TokenizerLoadable is the default tokenizer availability check: the
// baseline whitespace tokenizer is always loadable.
func TokenizerLoadable() bool { return true }

// docQuality is the minimal shape preflight needs per enriched
// record: id and qualityScore.
type docQuality struct {
	ID           string  `json:"id"`
	QualityScore float64 `json:"qualityScore"`
}

// Validate certifies a single run: checks artifacts, tokenizer,
// config coherence, and embeddable-doc counts. It does not compare
// against a prior manifest: DiffChanged is always false.
func Validate(layout artifact.Layout, cfg Config) (models.Preflight, error) {
	result := models.Preflight{RunID: layout.RunID, QualityDistribution: map[string]int{}}

	if !artifact.Exists(layout.EnrichedJSONL()) && !artifact.Exists(layout.NormalizedNDJSON()) {
		result.Status = models.PreflightBlocked
		result.Reasons = append(result.Reasons, models.ReasonMissingInput)
	}
	if !artifact.Exists(layout.ChunksNDJSON()) {
		result.Status = models.PreflightBlocked
		result.Reasons = append(result.Reasons, models.ReasonMissingInput)
	}

	tokenizerOK := cfg.TokenizerOK
	if tokenizerOK == nil {
		tokenizerOK = TokenizerLoadable
	}
	if !tokenizerOK() {
		result.Status = models.PreflightBlocked
		result.Reasons = append(result.Reasons, models.ReasonTokenizer)
	}

	if !configCoherent(cfg) {
		result.Status = models.PreflightBlocked
		result.Reasons = append(result.Reasons, models.ReasonConfig)
	}

	docTotals, qualityDist, err := countEmbeddableDocs(layout, cfg.MinQuality)
	if err != nil {
		return models.Preflight{}, err
	}
	result.DocTotals = docTotals
	result.QualityDistribution = qualityDist
	if docTotals.EmbeddableDocs < cfg.MinEmbedDocs {
		result.Status = models.PreflightBlocked
		result.Reasons = append(result.Reasons, models.ReasonEmbeddableDocs0)
	}

	tokenStats, err := tokenStatsFromChunks(layout)
	if err != nil {
		return models.Preflight{}, err
	}
	result.TokenStats = tokenStats

	belowPct := 0.0
	if docTotals.TotalDocs > 0 {
		belowPct = float64(docTotals.SkippedDocs) / float64(docTotals.TotalDocs)
	}
	result.QualityGate = models.QualityGate{
		BelowThresholdPct: belowPct,
		MaxAllowedPct:      0.25,
		Advisory:           true, // QUALITY_GATE is never a blocker, per §4.3
	}

	if _, ok, err := manifest.Read(layout.ManifestJSON()); err == nil && ok {
		// A prior manifest is read here but not diffed; no diff
		// reasons are computed.
		result.DiffChanged = false
	}

	if result.Status == "" {
		result.Status = models.PreflightReady
	}
	return result, nil
}

func configCoherent(cfg Config) bool {
	if cfg.Provider == "" || cfg.Model == "" {
		return false
	}
	return cfg.Dimension > 0 && cfg.Dimension <= 8192
}

func countEmbeddableDocs(layout artifact.Layout, minQuality float64) (models.DocTotals, map[string]int, error) {
	path := layout.EnrichedJSONL()
	if !artifact.Exists(path) {
		// No enrichment ran; every normalized doc is embeddable by
		// default (quality gating requires the enricher's output).
		total := 0
		if artifact.Exists(layout.NormalizedNDJSON()) {
			_ = artifact.DecodeLines[models.NormalizedRecord](layout.NormalizedNDJSON(), func(_ models.NormalizedRecord, parseErr error) error {
				if parseErr == nil {
					total++
				}
				return nil
			})
		}
		return models.DocTotals{TotalDocs: total, EmbeddableDocs: total}, map[string]int{}, nil
	}

	var total, skipped int
	dist := make(map[string]int)
	err := artifact.DecodeLines[docQuality](path, func(rec docQuality, parseErr error) error {
		if parseErr != nil {
			return nil
		}
		total++
		if rec.QualityScore < minQuality {
			skipped++
		}
		dist[bucketLabel(rec.QualityScore)]++
		return nil
	})
	if err != nil {
		return models.DocTotals{}, nil, err
	}
	return models.DocTotals{TotalDocs: total, SkippedDocs: skipped, EmbeddableDocs: total - skipped}, dist, nil
}

func bucketLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "0.8-1.0"
	case score >= 0.6:
		return "0.6-0.8"
	case score >= 0.4:
		return "0.4-0.6"
	case score >= 0.2:
		return "0.2-0.4"
	default:
		return "0.0-0.2"
	}
}

func tokenStatsFromChunks(layout artifact.Layout) (models.TokenStats, error) {
	path := layout.ChunksNDJSON()
	if !artifact.Exists(path) {
		return models.TokenStats{}, nil
	}
	var min, max, total, count int
	min = -1
	err := artifact.DecodeLines[models.Chunk](path, func(rec models.Chunk, parseErr error) error {
		if parseErr != nil {
			return nil
		}
		count++
		total += rec.TokenCount
		if min == -1 || rec.TokenCount < min {
			min = rec.TokenCount
		}
		if rec.TokenCount > max {
			max = rec.TokenCount
		}
		return nil
	})
	if err != nil {
		return models.TokenStats{}, err
	}
	if min == -1 {
		min = 0
	}
	var avg float64
	if count > 0 {
		avg = float64(total) / float64(count)
	}
	return models.TokenStats{Min: min, Max: max, Avg: avg, Total: total}, nil
}

// Write serializes a Preflight result to preflight/preflight.json.
func Write(layout artifact.Layout, p models.Preflight) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return trailerr.New(trailerr.KindParse, "preflight.Write", err)
	}
	if err := os.MkdirAll(layout.PreflightDir(), 0o755); err != nil {
		return trailerr.New(trailerr.KindConfiguration, "preflight.Write", err)
	}
	return os.WriteFile(layout.PreflightJSON(), b, 0o644)
}

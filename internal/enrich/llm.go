package enrich

import (
	"context"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// LLMOverlayProvider is the narrow, optional capability the enricher
// calls when llmEnabled is set: a bounded summarization/keyword pass
// plus pairwise suggested-edge heuristics. It is interface-only here —
// no concrete LLM client is wired into the core, matching the
// Non-goal that answer generation stays out of scope; only a
// corpus-description overlay is in scope.
type LLMOverlayProvider interface {
	Overlay(ctx context.Context, rec *models.EnrichedRecord) (*models.LLMOverlay, error)
	SuggestEdges(ctx context.Context, recs []*models.EnrichedRecord) ([]models.SuggestedEdge, error)
}

// HeuristicEdges derives suggested edges without any LLM call, using
// the share of common pathTags as a confidence proxy; collection is
// not considered.
// It runs even in mock mode, per §4.1.
func HeuristicEdges(recs []*models.EnrichedRecord) []models.SuggestedEdge {
	var edges []models.SuggestedEdge
	for i, a := range recs {
		for j := i + 1; j < len(recs); j++ {
			b := recs[j]
			shared := sharedTagCount(a.PathTags, b.PathTags)
			if shared == 0 {
				continue
			}
			confidence := float64(shared) / float64(maxInt(len(a.PathTags), len(b.PathTags)))
			edges = append(edges, models.SuggestedEdge{
				FromDocID:  a.ID,
				ToDocID:    b.ID,
				Type:       "related_by_tags",
				Confidence: confidence,
			})
		}
	}
	return edges
}

func sharedTagCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	count := 0
	for _, t := range b {
		if set[t] {
			count++
		}
	}
	return count
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

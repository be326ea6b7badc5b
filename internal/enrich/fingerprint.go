package enrich

import (
	"github.com/trailblazer-io/trailblazer/internal/canon"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// Array order is preserved in the fingerprint input per §3: pathTags
// and qualityFlags are hashed in the order the enricher produced them,
// not a normalized order. Only JSON object keys are canonically sorted
// by canon.Marshal.

// fingerprintInput is the canonical-JSON-hashed shape behind
// fingerprintSha256: enrichmentVersion, collection, pathTags,
// readability, qualityFlags, and the LLM overlay if present. Field
// order here is irrelevant — canon.Marshal sorts keys.
type fingerprintInput struct {
	EnrichmentVersion string               `json:"enrichmentVersion"`
	Collection        string               `json:"collection"`
	PathTags          []string             `json:"pathTags"`
	Readability       models.Readability   `json:"readability"`
	QualityFlags      []string             `json:"qualityFlags"`
	LLMOverlay        *models.LLMOverlay   `json:"llmOverlay,omitempty"`
}

// Fingerprint computes the EnrichmentFingerprint for a single enriched
// record: a pure function of its inputs, per §3's invariant.
func Fingerprint(docID string, rec *models.EnrichedRecord) (models.EnrichmentFingerprint, error) {
	input := fingerprintInput{
		EnrichmentVersion: EnricherVersion,
		Collection:        rec.Collection,
		PathTags:          rec.PathTags,
		Readability:       rec.Readability,
		QualityFlags:      rec.QualityFlags,
		LLMOverlay:        rec.LLMOverlay,
	}
	sum, err := canon.SHA256Hex(input)
	if err != nil {
		return models.EnrichmentFingerprint{}, trailerr.New(trailerr.KindParse, "enrich.Fingerprint", err)
	}
	return models.EnrichmentFingerprint{
		DocID:             docID,
		EnrichmentVersion: EnricherVersion,
		FingerprintSha256: sum,
	}, nil
}

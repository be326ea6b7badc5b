package enrich

import (
	"bytes"
	"fmt"
)

// Assurance is the enrich/assurance.{json,md} report of §4.1: record
// counts, the quality-score distribution, and the non-blocking
// below-threshold advisory.
type Assurance struct {
	TotalDocs           int            `json:"totalDocs"`
	ParseErrors         int            `json:"parseErrors"`
	QualityDistribution map[string]int `json:"qualityDistribution"`
	BelowThresholdCount int            `json:"belowThresholdCount"`
	BelowThresholdPct   float64        `json:"belowThresholdPct"`
	MaxAllowedPct       float64        `json:"maxAllowedPct"`
	Advisory            bool           `json:"advisory"`
}

// bucket maps a [0,1] quality score to one of 5 deciles-of-two
// buckets used for the distribution report.
func bucket(score float64) string {
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

// NewAssurance aggregates quality scores against minQuality and
// maxBelowThresholdPct into the advisory report. The enricher never
// blocks on this: quality gating is surfaced to preflight, not
// enforced here.
func NewAssurance(scores []float64, parseErrors int, minQuality, maxBelowThresholdPct float64) Assurance {
	dist := make(map[string]int)
	below := 0
	for _, s := range scores {
		dist[bucket(s)]++
		if s < minQuality {
			below++
		}
	}
	var pct float64
	if len(scores) > 0 {
		pct = float64(below) / float64(len(scores))
	}
	return Assurance{
		TotalDocs:           len(scores),
		ParseErrors:         parseErrors,
		QualityDistribution: dist,
		BelowThresholdCount: below,
		BelowThresholdPct:   pct,
		MaxAllowedPct:       maxBelowThresholdPct,
		Advisory:            true,
	}
}

// Markdown renders the md report form.
func (a Assurance) Markdown() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Enrichment Assurance\n\n")
	fmt.Fprintf(&buf, "- Total docs: %d\n", a.TotalDocs)
	fmt.Fprintf(&buf, "- Parse errors: %d\n", a.ParseErrors)
	fmt.Fprintf(&buf, "- Below quality threshold: %d (%.1f%%, advisory only, max allowed %.1f%%)\n",
		a.BelowThresholdCount, a.BelowThresholdPct*100, a.MaxAllowedPct*100)
	fmt.Fprintf(&buf, "\n## Quality distribution\n\n")
	for _, b := range []string{"0.8-1.0", "0.6-0.8", "0.4-0.6", "0.2-0.4", "0.0-0.2"} {
		fmt.Fprintf(&buf, "- %s: %d\n", b, a.QualityDistribution[b])
	}
	return buf.String()
}

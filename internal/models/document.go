package models

import "time"

// Document is a normalized record from either source corpus. docId is
// stable across re-ingestion of the same source item: for Confluence it is
// derived from the page id, for DITA from a normalized, lowercased path
// slug. contentSha256 changes if and only if the canonical body changes.
type Document struct {
	DocID         string       `json:"id"`
	SourceSystem  SourceSystem `json:"sourceSystem"`
	Title         string       `json:"title"`
	URL           string       `json:"url"`
	SpaceKey      string       `json:"spaceKey,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	BodyRepr      BodyRepr     `json:"bodyRepr"`
	ContentSha256 string       `json:"contentSha256"`
	Labels        []string     `json:"labels,omitempty"`
	Ancestors     []string     `json:"ancestors,omitempty"` // ordered root -> parent, for breadcrumbs
	Collection    string       `json:"collection,omitempty"`
	PathTags      []string     `json:"pathTags,omitempty"`
	Meta          map[string]interface{} `json:"meta,omitempty"`

	// TextMd and link/attachment metadata are set by normalize from the
	// source adapter's record plus the (out-of-core) toMarkdown conversion.
	TextMd      string       `json:"textMd"`
	Links       []string     `json:"links,omitempty"`
	Attachments []string     `json:"attachments,omitempty"`
}

// NormalizedRecord is one line of normalize/normalized.ndjson, the
// enricher and chunker's fallback input when enriched.jsonl is absent.
type NormalizedRecord struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	SpaceKey      string       `json:"spaceKey,omitempty"`
	URL           string       `json:"url"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	BodyRepr      BodyRepr     `json:"bodyRepr"`
	TextMd        string       `json:"textMd"`
	Links         []string     `json:"links"`
	Attachments   []string     `json:"attachments"`
	SourceSystem  SourceSystem `json:"sourceSystem"`
	Labels        []string     `json:"labels"`
	ContentSha256 string       `json:"contentSha256"`
	Breadcrumbs   []string     `json:"breadcrumbs,omitempty"`
	Collection    string       `json:"collection,omitempty"`
}

// EnrichedRecord is one line of enrich/enriched.jsonl: the normalized
// record plus the rule-based fields from §4.1 and an optional bounded LLM
// overlay.
type EnrichedRecord struct {
	NormalizedRecord

	Collection    string       `json:"collection"`
	PathTags      []string     `json:"pathTags"`
	Readability   Readability  `json:"readability"`
	MediaDensity  float64      `json:"mediaDensity"`
	LinkDensity   float64      `json:"linkDensity"`
	QualityFlags  []string     `json:"qualityFlags"`
	QualityScore  float64      `json:"qualityScore"`

	// LLMOverlay is present only when enrichRun was invoked with
	// llmEnabled; it participates in the fingerprint when non-nil.
	LLMOverlay *LLMOverlay `json:"llmOverlay,omitempty"`
}

// Readability holds the deterministic readability signals computed on
// Markdown-stripped text. Denominators are zero-guarded by the caller.
type Readability struct {
	CharsPerWord      float64 `json:"charsPerWord"`
	WordsPerParagraph float64 `json:"wordsPerParagraph"`
	HeadingRatio      float64 `json:"headingRatio"`
}

// LLMOverlay is the optional, bounded LLM-derived enrichment. It is
// modeled narrowly because the core never requires a live model call: any
// enrich.LLMOverlayProvider implementation (mock, hosted) can populate it.
type LLMOverlay struct {
	Summary    string   `json:"summary,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Audience   string   `json:"audience,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// SuggestedEdge is one line of enrich/suggested_edges.jsonl, emitted only
// when the LLM path is enabled.
type SuggestedEdge struct {
	FromDocID  string  `json:"fromDocId"`
	ToDocID    string  `json:"toDocId"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Quality flag names, per §4.1's closed set.
const (
	QualityFlagEmptyBody   = "empty_body"
	QualityFlagTooShort    = "too_short"
	QualityFlagTooLong     = "too_long"
	QualityFlagImageOnly   = "image_only"
	QualityFlagNoStructure = "no_structure"
	QualityFlagBrokenLinks = "broken_links"
)

package models

// Chunk is a token-bounded subdivision of a Document's Markdown body,
// aligned to heading/paragraph boundaries. chunkId has the canonical form
// "<docId>:<ord 4-digit>"; ord is monotonic and 0-based with no gaps.
type Chunk struct {
	ChunkID       string        `json:"chunkId"`
	DocID         string        `json:"docId"`
	Ord           int           `json:"ord"`
	TextMd        string        `json:"textMd"`
	CharCount     int           `json:"charCount"`
	TokenCount    int           `json:"tokenCount"`
	ContentHash   string        `json:"contentHash,omitempty"`
	Traceability  Traceability  `json:"traceability"`
}

// Traceability carries enough of the parent document to render a citation
// without a join back to the documents table.
type Traceability struct {
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	SourceSystem SourceSystem `json:"sourceSystem"`
}

// ChunkAssurance is chunk/chunk_assurance.json: per-chunk token stats,
// the quality distribution forwarded from enrich, and parse/overflow counts.
type ChunkAssurance struct {
	TotalChunks        int            `json:"totalChunks"`
	TotalDocs          int            `json:"totalDocs"`
	TokenCountMin      int            `json:"tokenCountMin"`
	TokenCountMax      int            `json:"tokenCountMax"`
	TokenCountAvg      float64        `json:"tokenCountAvg"`
	OverflowChunks     int            `json:"overflowChunks"` // atomic blocks (fenced code) that exceeded maxTokens
	ParseErrors        int            `json:"parseErrors"`
	QualityDistribution map[string]int `json:"qualityDistribution,omitempty"`
}

// ChunkerConfig is the closed configuration set for §4.2, with the spec's
// documented defaults.
type ChunkerConfig struct {
	MaxTokens      int     `json:"maxTokens"`
	MinTokens      int     `json:"minTokens"`
	PreferHeadings bool    `json:"preferHeadings"`
	OverlapPct     float64 `json:"overlapPct"`
}

// DefaultChunkerConfig returns the spec's documented defaults:
// {800, 120, true, 0.15}.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:      800,
		MinTokens:      120,
		PreferHeadings: true,
		OverlapPct:     0.15,
	}
}

// TokenizerIdentity is recorded in the manifest so that the same identity
// guarantees the same token counts across runs.
type TokenizerIdentity struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

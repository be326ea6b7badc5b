package models

// Hit is one ranked result from the hybrid retriever.
type Hit struct {
	ChunkID      string       `json:"chunkId"`
	DocID        string       `json:"docId"`
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	SourceSystem SourceSystem `json:"sourceSystem"`
	TextMd       string       `json:"textMd"`
	Score        float64      `json:"score"`
	BoostApplied float64      `json:"boostApplied,omitempty"`

	DenseRank *int     `json:"denseRank,omitempty"`
	Bm25Rank  *int     `json:"bm25Rank,omitempty"`
	RRFScore  float64  `json:"rrfScore,omitempty"`
}

// ScoreStats summarizes the final score distribution of a response.
type ScoreStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Timing records how long each retrieval stage took.
type Timing struct {
	EmbedMs  int64 `json:"embedMs"`
	DenseMs  int64 `json:"denseMs"`
	Bm25Ms   int64 `json:"bm25Ms"`
	FuseMs   int64 `json:"fuseMs"`
	PackMs   int64 `json:"packMs"`
	TotalMs  int64 `json:"totalMs"`
}

// Summary is the response's aggregate metadata.
type Summary struct {
	UniqueDocuments  int        `json:"uniqueDocuments"`
	TotalCharacters  int        `json:"totalCharacters"`
	ScoreStats       ScoreStats `json:"scoreStats"`
	Timing           Timing     `json:"timing"`
	FellBackToDense  bool       `json:"fellBackToDense,omitempty"`
	FallbackReason   string     `json:"fallbackReason,omitempty"`
}

// RetrievalResponse is the hybrid retriever's output: ranked hits, the
// packed context string, and the selected hits that made it into the
// pack (the richer pack_context contract chosen per §9 Open Question 1).
type RetrievalResponse struct {
	Hits          []Hit   `json:"hits"`
	PackedContext string  `json:"packedContext"`
	SelectedHits  []Hit   `json:"selectedHits"`
	Summary       Summary `json:"summary"`
}

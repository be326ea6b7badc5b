package models

import "time"

// ChunkEmbedding is keyed by (chunkId, provider); dim equals the
// provider's declared dimension at write time, and is uniform across a
// single run's embedded chunks for that provider.
type ChunkEmbedding struct {
	ChunkID   string    `json:"chunkId"`
	Provider  string    `json:"provider"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"createdAt"`
}

// EnrichmentFingerprint is a pure function of (enrichmentVersion,
// collection, pathTags, readability, qualityFlags, optional LLM overlay):
// identical inputs yield an identical fingerprintSha256.
type EnrichmentFingerprint struct {
	DocID              string `json:"id"`
	EnrichmentVersion  string `json:"enrichmentVersion"`
	FingerprintSha256  string `json:"fingerprintSha256"`
}

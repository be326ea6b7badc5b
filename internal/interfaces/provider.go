package interfaces

import "context"

// EmbeddingProvider is the minimal surface the core consumes from an
// embedding backend (dummy, remote API, or local model). Implementations
// live outside the core and are swappable without touching the embed
// loader or the retriever.
type EmbeddingProvider interface {
	// ProviderName identifies the provider in manifests and events
	// (e.g. "dummy", "openai", "local").
	ProviderName() string

	// Dimension is the fixed length of every vector this provider returns.
	Dimension() int

	// Embed returns a single vector of length Dimension() for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, same order, same
	// length as texts. A provider that cannot batch may embed serially.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

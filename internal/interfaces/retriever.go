package interfaces

import (
	"context"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// RetrieveOptions configures a single hybrid retrieval request.
type RetrieveOptions struct {
	TopKDense       int
	TopKBm25        int
	TopK            int
	MaxCharsBudget  int
	MaxChunksPerDoc int
	SpaceWhitelist  []string
	DomainFilter    string
	ExpandQuery     bool
	RRFK            int
}

// Retriever answers a natural-language query with ranked, packed
// context. It is the sole entry point external callers (a CLI verb,
// an HTTP handler) use against the hybrid retrieval pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) (*models.RetrievalResponse, error)
}

// QueryClassifier decides whether a query is domain-specific (the
// N2S-detection rule) and, if so, expands it into a BM25-friendly
// OR-expanded form.
type QueryClassifier interface {
	IsDomainQuery(query string) bool
	Expand(query string) string
}

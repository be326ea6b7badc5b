// Package retrieve implements §4.6: the hybrid dense+BM25 retriever —
// query classification/expansion, dense cosine search, lexical
// full-text search, Reciprocal Rank Fusion, domain boosts, top-k
// selection, and code-block-safe context packing.
package retrieve

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/interfaces"
	"github.com/trailblazer-io/trailblazer/internal/models"
)

// state names the retrieval request's lifecycle, per §4.6's state
// machine: received -> embedded -> dense_done -> bm25_done -> fused ->
// boosted -> packed -> returned.
type state string

const (
	stateReceived  state = "received"
	stateEmbedded  state = "embedded"
	stateDenseDone state = "dense_done"
	stateBm25Done  state = "bm25_done"
	stateFused     state = "fused"
	stateBoosted   state = "boosted"
	statePacked    state = "packed"
	stateReturned  state = "returned"
)

// Options parameterizes one retrieval request.
type Options struct {
	Query           string
	TopKDense       int
	TopKBm25        int
	TopK            int
	SpaceWhitelist  []string
	DomainFilter    string
	MaxChunksPerDoc int
	MaxChars        int
	RRFK            int
}

func (o Options) withDefaults() Options {
	if o.TopKDense <= 0 {
		o.TopKDense = 40
	}
	if o.TopKBm25 <= 0 {
		o.TopKBm25 = 40
	}
	if o.TopK <= 0 {
		o.TopK = 10
	}
	if o.MaxChunksPerDoc <= 0 {
		o.MaxChunksPerDoc = 3
	}
	if o.MaxChars <= 0 {
		o.MaxChars = 8000
	}
	if o.RRFK <= 0 {
		o.RRFK = defaultRRFK
	}
	return o
}

// Retriever answers natural-language queries against the relational
// store's dense and lexical indexes.
type Retriever struct {
	Provider   interfaces.EmbeddingProvider
	Vectors    interfaces.EmbeddingStore
	FullText   interfaces.FullTextStore
	Classifier *Classifier
	Logger     arbor.ILogger
}

// New returns a Retriever.
func New(provider interfaces.EmbeddingProvider, vectors interfaces.EmbeddingStore, fullText interfaces.FullTextStore, logger arbor.ILogger) *Retriever {
	return &Retriever{Provider: provider, Vectors: vectors, FullText: fullText, Classifier: NewClassifier(), Logger: logger}
}

func (r *Retriever) logState(s state) {
	r.Logger.Debug().Str("state", string(s)).Msg("retrieve: state transition")
}

// Retrieve runs the full §4.6 pipeline for one query, falling back to
// dense-only results if the lexical search fails for a recoverable
// reason (e.g. a missing full-text index).
func (r *Retriever) Retrieve(ctx context.Context, opts Options) (*models.RetrievalResponse, error) {
	opts = opts.withDefaults()
	r.logState(stateReceived)
	var timing models.Timing
	total := time.Now()

	expandedQuery := opts.Query
	if r.Classifier.IsDomainSpecific(opts.Query) {
		expandedQuery = r.Classifier.Expand(opts.Query)
	}

	start := time.Now()
	queryVec, err := r.Provider.Embed(ctx, opts.Query)
	if err != nil {
		return nil, err
	}
	timing.EmbedMs = time.Since(start).Milliseconds()
	r.logState(stateEmbedded)

	start = time.Now()
	dense, err := r.Vectors.DenseSearch(ctx, r.Provider.ProviderName(), queryVec, opts.TopKDense, opts.SpaceWhitelist)
	if err != nil {
		return nil, err
	}
	timing.DenseMs = time.Since(start).Milliseconds()
	r.logState(stateDenseDone)

	var bm25 []models.Hit
	var fellBack bool
	var fallbackReason string
	start = time.Now()
	bm25, err = r.FullText.LexicalSearch(ctx, expandedQuery, opts.TopKBm25, opts.SpaceWhitelist, opts.DomainFilter)
	if err != nil {
		fellBack = true
		fallbackReason = err.Error()
		r.Logger.Warn().Err(err).Msg("retrieve: lexical search failed, falling back to dense-only")
		bm25 = nil
	}
	timing.Bm25Ms = time.Since(start).Milliseconds()
	r.logState(stateBm25Done)

	start = time.Now()
	fused := fuse(dense, bm25, opts.RRFK)
	timing.FuseMs = time.Since(start).Milliseconds()
	r.logState(stateFused)

	boosted := applyBoosts(fused)
	r.logState(stateBoosted)

	selected := topK(boosted, opts.TopK)

	start = time.Now()
	packedContext, packedHits := packContext(selected, packOptions{MaxChunksPerDoc: opts.MaxChunksPerDoc, MaxChars: opts.MaxChars})
	timing.PackMs = time.Since(start).Milliseconds()
	r.logState(statePacked)

	timing.TotalMs = time.Since(total).Milliseconds()
	r.logState(stateReturned)

	summary := models.Summary{
		UniqueDocuments: uniqueDocCount(packedHits),
		TotalCharacters: len(packedContext),
		ScoreStats:      scoreStats(selected),
		Timing:          timing,
		FellBackToDense: fellBack,
		FallbackReason:  fallbackReason,
	}

	return &models.RetrievalResponse{
		Hits:          selected,
		PackedContext: packedContext,
		SelectedHits:  packedHits,
		Summary:       summary,
	}, nil
}

func uniqueDocCount(hits []models.Hit) int {
	seen := make(map[string]struct{})
	for _, h := range hits {
		seen[h.DocID] = struct{}{}
	}
	return len(seen)
}

func scoreStats(hits []models.Hit) models.ScoreStats {
	if len(hits) == 0 {
		return models.ScoreStats{}
	}
	min, max, sum := hits[0].Score, hits[0].Score, 0.0
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
		sum += h.Score
	}
	return models.ScoreStats{Min: min, Max: max, Avg: sum / float64(len(hits))}
}

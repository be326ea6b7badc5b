package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/provider"
)

type stubEmbeddingStore struct {
	hits []models.Hit
	err  error
}

func (s *stubEmbeddingStore) UpsertEmbedding(ctx context.Context, emb *models.ChunkEmbedding) error {
	return nil
}
func (s *stubEmbeddingStore) ExistingDimension(ctx context.Context, providerName string) (int, bool, error) {
	return 0, false, nil
}
func (s *stubEmbeddingStore) DenseSearch(ctx context.Context, providerName string, queryVec []float32, topK int, spaceWhitelist []string) ([]models.Hit, error) {
	return s.hits, s.err
}

type stubFullTextStore struct {
	hits []models.Hit
	err  error
}

func (s *stubFullTextStore) LexicalSearch(ctx context.Context, query string, topK int, spaceWhitelist []string, domainFilter string) ([]models.Hit, error) {
	return s.hits, s.err
}

func TestRetriever_FusesDenseAndLexical(t *testing.T) {
	dense := []models.Hit{
		{ChunkID: "c1", DocID: "d1", Title: "Intro", TextMd: "dense text", Score: 0.9},
		{ChunkID: "c2", DocID: "d1", Title: "Intro", TextMd: "dense text 2", Score: 0.8},
	}
	bm25 := []models.Hit{
		{ChunkID: "c2", DocID: "d1", Title: "Intro", TextMd: "dense text 2", Score: 5.0},
		{ChunkID: "c3", DocID: "d2", Title: "Other", TextMd: "lexical only", Score: 4.0},
	}

	r := New(provider.NewDummy(8), &stubEmbeddingStore{hits: dense}, &stubFullTextStore{hits: bm25}, arbor.NewLogger())
	resp, err := r.Retrieve(context.Background(), Options{Query: "how does this work", TopK: 10})
	require.NoError(t, err)
	require.False(t, resp.Summary.FellBackToDense)

	// c2 appears in both lists so its RRF score must exceed a
	// single-source hit's.
	var c2Score, c3Score float64
	for _, h := range resp.Hits {
		if h.ChunkID == "c2" {
			c2Score = h.Score
		}
		if h.ChunkID == "c3" {
			c3Score = h.Score
		}
	}
	require.Greater(t, c2Score, c3Score)
}

func TestRetriever_FallsBackToDenseOnLexicalFailure(t *testing.T) {
	dense := []models.Hit{{ChunkID: "c1", DocID: "d1", Title: "Intro", TextMd: "dense text", Score: 0.9}}
	r := New(provider.NewDummy(8), &stubEmbeddingStore{hits: dense}, &stubFullTextStore{err: errors.New("fts index missing")}, arbor.NewLogger())

	resp, err := r.Retrieve(context.Background(), Options{Query: "runbook for deploys", TopK: 5})
	require.NoError(t, err)
	require.True(t, resp.Summary.FellBackToDense)
	require.NotEmpty(t, resp.Summary.FallbackReason)
	require.Len(t, resp.Hits, 1)
}

func TestRetriever_AppliesDomainBoostToMethodologyTitle(t *testing.T) {
	dense := []models.Hit{
		{ChunkID: "c1", DocID: "d1", Title: "Deploy Methodology", TextMd: "a", Score: 0.5},
		{ChunkID: "c2", DocID: "d2", Title: "Random Notes", TextMd: "b", Score: 0.5},
	}
	r := New(provider.NewDummy(8), &stubEmbeddingStore{hits: dense}, &stubFullTextStore{}, arbor.NewLogger())

	resp, err := r.Retrieve(context.Background(), Options{Query: "deploy process", TopK: 5})
	require.NoError(t, err)
	require.Equal(t, "c1", resp.Hits[0].ChunkID, "methodology boost should rank it first")
	require.InDelta(t, 0.20, resp.Hits[0].BoostApplied, 0.001)
}

func TestPackContext_OmitsRemainderRatherThanBreakingFence(t *testing.T) {
	hits := []models.Hit{
		{ChunkID: "c1", DocID: "d1", Title: "Doc", TextMd: "```go\nfunc main() {}\n```", Score: 1.0},
	}
	packed, selected := packContext(hits, packOptions{MaxChunksPerDoc: 3, MaxChars: 20})
	require.True(t, strings.Count(packed, "```")%2 == 0, "packed context must not end mid fenced block")
	require.LessOrEqual(t, len(selected), 1)
}

func TestClassifier_ExpandsDomainSpecificQuery(t *testing.T) {
	c := NewClassifier()
	require.True(t, c.IsDomainSpecific("what is the incident runbook"))
	expanded := c.Expand("what is the incident runbook")
	require.Contains(t, expanded, "OR")
}

func TestClassifier_LeavesGenericQueryUnexpanded(t *testing.T) {
	c := NewClassifier()
	require.False(t, c.IsDomainSpecific("what color is the sky"))
	require.Equal(t, "what color is the sky", c.Expand("what color is the sky"))
}

package retrieve

import (
	"regexp"
	"sort"
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// defaultRRFK is the rrfK constant of §4.6 step 4.
const defaultRRFK = 60

// fuse computes Reciprocal Rank Fusion over dense and lexical result
// lists, summing 1/(rrfK+rank) per source a chunk appears in. Ties
// break by chunkId ascending for determinism.
func fuse(dense, bm25 []models.Hit, rrfK int) []models.Hit {
	if rrfK <= 0 {
		rrfK = defaultRRFK
	}

	byChunk := make(map[string]*models.Hit)
	order := make([]string, 0, len(dense)+len(bm25))

	addRanked := func(hits []models.Hit, assignRank func(h *models.Hit, rank int)) {
		for i, h := range hits {
			rank := i + 1
			existing, ok := byChunk[h.ChunkID]
			if !ok {
				cp := h
				byChunk[cp.ChunkID] = &cp
				order = append(order, cp.ChunkID)
				existing = byChunk[cp.ChunkID]
			}
			assignRank(existing, rank)
			existing.RRFScore += 1.0 / float64(rrfK+rank)
		}
	}

	addRanked(dense, func(h *models.Hit, rank int) {
		r := rank
		h.DenseRank = &r
	})
	addRanked(bm25, func(h *models.Hit, rank int) {
		r := rank
		h.Bm25Rank = &r
	})

	out := make([]models.Hit, 0, len(order))
	for _, id := range order {
		h := *byChunk[id]
		h.Score = h.RRFScore
		out = append(out, h)
	}

	sortByScoreThenChunkID(out)
	return out
}

var (
	monthPattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// applyBoosts applies the additive title-based domain boosts of §4.6
// step 5, recording each hit's applied boost.
func applyBoosts(hits []models.Hit) []models.Hit {
	for i := range hits {
		title := strings.ToLower(hits[i].Title)
		var boost float64
		switch {
		case strings.Contains(title, "methodology"):
			boost = 0.20
		case strings.Contains(title, "playbook"):
			boost = 0.15
		case strings.Contains(title, "runbook"):
			boost = 0.10
		}
		if monthPattern.MatchString(title) || yearPattern.MatchString(title) {
			boost -= 0.10
		}
		hits[i].BoostApplied = boost
		hits[i].Score += boost
	}
	sortByScoreThenChunkID(hits)
	return hits
}

func sortByScoreThenChunkID(hits []models.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

// topK truncates hits to the first k entries, assuming they are
// already sorted by final score.
func topK(hits []models.Hit, k int) []models.Hit {
	if k <= 0 || k >= len(hits) {
		return hits
	}
	return hits[:k]
}

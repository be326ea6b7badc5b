// Package manifest implements §4.4: writing embed/manifest.json after a
// successful embed and comparing manifests to decide whether a
// subsequent embed attempt would change anything.
package manifest

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/trailblazer-io/trailblazer/internal/canon"
	"github.com/trailblazer-io/trailblazer/internal/models"
	"github.com/trailblazer-io/trailblazer/internal/trailerr"
)

// ChunkSetHash computes the chunkSetHash of §3: SHA-256 of the
// canonical JSON list of [chunkId, tokenCount, contentHash] tuples
// sorted by chunkId.
func ChunkSetHash(chunks []*models.Chunk) (string, error) {
	tuples := make([]models.ChunkSetTuple, 0, len(chunks))
	for _, c := range chunks {
		tuples = append(tuples, models.ChunkSetTuple{
			ChunkID:     c.ChunkID,
			TokenCount:  c.TokenCount,
			ContentHash: c.ContentHash,
		})
	}
	sort.Slice(tuples, func(i, j int) bool { return tuples[i].ChunkID < tuples[j].ChunkID })

	sum, err := canon.SHA256Hex(tuples)
	if err != nil {
		return "", trailerr.New(trailerr.KindParse, "manifest.ChunkSetHash", err)
	}
	return sum, nil
}

// Write serializes m to path as pretty JSON.
func Write(path string, m models.EmbedManifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return trailerr.New(trailerr.KindParse, "manifest.Write", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return trailerr.New(trailerr.KindConfiguration, "manifest.Write", err)
	}
	return nil
}

// Read loads a manifest from path. ok is false (with a nil error) if
// no manifest exists yet at path — the normal "first embed" case.
func Read(path string) (m models.EmbedManifest, ok bool, err error) {
	b, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return models.EmbedManifest{}, false, nil
		}
		return models.EmbedManifest{}, false, trailerr.New(trailerr.KindConfiguration, "manifest.Read", readErr)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return models.EmbedManifest{}, false, trailerr.New(trailerr.KindParse, "manifest.Read", err)
	}
	return m, true, nil
}

// Compare implements compareManifests: it returns whether anything
// changed between current and previous, and the subset of fixed
// reason codes that explain it.
func Compare(current, previous models.EmbedManifest) (bool, []models.DiffReason) {
	var reasons []models.DiffReason

	if current.Provider != previous.Provider {
		reasons = append(reasons, models.ReasonProviderChange)
	}
	if current.Model != previous.Model {
		reasons = append(reasons, models.ReasonModelChange)
	}
	if current.Dimension != previous.Dimension {
		reasons = append(reasons, models.ReasonDimensionChange)
	}
	if current.Tokenizer != previous.Tokenizer {
		reasons = append(reasons, models.ReasonTokenizerChange)
	}
	if current.ChunkerVersion != previous.ChunkerVersion {
		reasons = append(reasons, models.ReasonChunkerChange)
	}
	if current.ChunkConfig != previous.ChunkConfig {
		reasons = append(reasons, models.ReasonChunkConfigChange)
	}
	if current.ChunkSetHash != previous.ChunkSetHash {
		reasons = append(reasons, models.ReasonContentChange)
	}

	return len(reasons) > 0, reasons
}

package chunk

import (
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// TokenizerName/TokenizerVersion identify the baseline tokenizer
// recorded in the manifest so that changing it is detected as a
// TOKENIZER_CHANGE diff reason even though counts are approximated.
const (
	TokenizerName    = "whitespace-split"
	TokenizerVersion = "v1"
)

// ChunkerVersion is stamped into manifests; bump it whenever block
// partitioning or packing changes meaning, so a CHUNKER_CHANGE diff
// reason fires even when chunkSetHash happens to collide.
const ChunkerVersion = "chunk-v1"

// Identity returns the tokenizer identity recorded in manifests.
func Identity() models.TokenizerIdentity {
	return models.TokenizerIdentity{Name: TokenizerName, Version: TokenizerVersion}
}

// CountTokens approximates token count by whitespace-split length, the
// baseline tokenization of §4.2. A real tokenizer may be swapped in by
// changing Identity() together with this function, in lockstep.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

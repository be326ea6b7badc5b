package chunk

import (
	"strings"
)

// packedChunk is an intermediate accumulator before ord/chunkId/hash
// are assigned.
type packedChunk struct {
	text      string
	overflow  bool
}

// pack greedily packs blocks into token-bounded accumulators per §4.2
// steps 3-4: flush when the next block would exceed maxTokens and the
// accumulator already holds ≥ minTokens; carry an overlap tail ending
// at a word boundary into the next accumulator. Atomic code blocks are
// never split, even past maxTokens, and are flagged as overflow.
func pack(blocks []block, cfg packConfig) []packedChunk {
	var chunks []packedChunk
	var acc []string
	accTokens := 0

	flush := func() {
		text := strings.TrimSpace(strings.Join(acc, "\n\n"))
		if text == "" {
			acc = acc[:0]
			accTokens = 0
			return
		}
		chunks = append(chunks, packedChunk{text: text})
		tail := overlapTail(text, cfg.overlapPct)
		acc = acc[:0]
		accTokens = 0
		if tail != "" {
			acc = append(acc, tail)
			accTokens = CountTokens(tail)
		}
	}

	for _, b := range blocks {
		tokens := CountTokens(b.text)

		if b.kind == blockCode && tokens > cfg.maxTokens {
			if len(acc) > 0 && accTokens >= cfg.minTokens {
				flush()
			}
			chunks = append(chunks, packedChunk{text: b.text, overflow: true})
			continue
		}

		if accTokens > 0 && accTokens+tokens > cfg.maxTokens && accTokens >= cfg.minTokens {
			flush()
		}
		acc = append(acc, b.text)
		accTokens += tokens
	}
	if len(acc) > 0 {
		text := strings.TrimSpace(strings.Join(acc, "\n\n"))
		if text != "" {
			chunks = append(chunks, packedChunk{text: text})
		}
	}
	return chunks
}

type packConfig struct {
	maxTokens  int
	minTokens  int
	overlapPct float64
}

// overlapTail returns the trailing overlapPct fraction of text, with
// its start moved forward to the next space or newline so the tail
// never begins mid-word (it can come out shorter), for prepending to
// the next accumulator (§4.2 step 4).
func overlapTail(text string, overlapPct float64) string {
	if overlapPct <= 0 || text == "" {
		return ""
	}
	n := int(float64(len(text)) * overlapPct)
	if n <= 0 {
		return ""
	}
	if n >= len(text) {
		return text
	}
	start := len(text) - n
	for start < len(text) && text[start] != ' ' && text[start] != '\n' {
		start++
	}
	tail := strings.TrimSpace(text[start:])
	return tail
}

package retrieve

import (
	"fmt"
	"strings"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// packOptions controls context packing (§4.6 "Context packing").
type packOptions struct {
	MaxChunksPerDoc int
	MaxChars        int
}

// packContext groups hits by docId (capped at MaxChunksPerDoc per
// doc), emits a metadata separator plus chunk text for each, and stops
// once MaxChars would be exceeded — never truncating inside a fenced
// code block.
func packContext(hits []models.Hit, opts packOptions) (string, []models.Hit) {
	var b strings.Builder
	var selected []models.Hit
	perDoc := make(map[string]int)

	for _, h := range hits {
		if opts.MaxChunksPerDoc > 0 && perDoc[h.DocID] >= opts.MaxChunksPerDoc {
			continue
		}

		sep := fmt.Sprintf("\n--- %s (%s) score=%.4f ---\n", h.Title, h.URL, h.Score)
		block := sep + h.TextMd + "\n"

		if opts.MaxChars > 0 && b.Len()+len(block) > opts.MaxChars {
			remaining := opts.MaxChars - b.Len()
			if remaining <= len(sep) {
				break
			}
			safe := safeTruncate(block, remaining)
			if safe == "" {
				break
			}
			b.WriteString(safe)
			selected = append(selected, h)
			break
		}

		b.WriteString(block)
		selected = append(selected, h)
		perDoc[h.DocID]++
	}

	return b.String(), selected
}

// safeTruncate cuts block to at most limit bytes, backing off to the
// last safe boundary outside a fenced code block. If no boundary fits
// meaningfully, it returns "" so the caller omits the remainder
// entirely rather than emitting a broken fence.
func safeTruncate(block string, limit int) string {
	if limit <= 0 || limit >= len(block) {
		return block
	}
	candidate := block[:limit]
	if !insideFence(candidate) {
		return candidate
	}

	// Back off to the start of the fence that was cut open.
	if idx := strings.LastIndex(candidate, "```"); idx > 0 {
		trimmed := candidate[:idx]
		if strings.TrimSpace(trimmed) != "" {
			return trimmed
		}
	}
	return ""
}

// insideFence reports whether s ends inside an open ``` fenced block,
// i.e. an odd number of fence markers precede the cut point.
func insideFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}

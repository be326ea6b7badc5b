package chunk

import (
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/artifact"
	"github.com/trailblazer-io/trailblazer/internal/models"
)

func writeNormalized(t *testing.T, layout artifact.Layout, recs []models.NormalizedRecord) {
	t.Helper()
	w, err := artifact.NewWriter(layout.NormalizedNDJSON())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, r := range recs {
		if err := w.WriteRecord(r); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestChunkRunOrdIsContiguous(t *testing.T) {
	layout := artifact.NewLayout(t.TempDir(), "run1")
	writeNormalized(t, layout, []models.NormalizedRecord{
		{
			ID:     "doc-1",
			Title:  "Doc One",
			URL:    "https://example.com/doc-1",
			TextMd: "# Title\nAlpha beta gamma delta epsilon.\n\n## H2\nZeta eta theta iota kappa lambda mu nu xi.\n",
		},
	})

	c := New(layout, arbor.NewLogger())
	assurance, err := c.ChunkRun(models.ChunkerConfig{MaxTokens: 4, MinTokens: 1, PreferHeadings: true, OverlapPct: 0})
	if err != nil {
		t.Fatalf("ChunkRun: %v", err)
	}
	if assurance.TotalChunks == 0 {
		t.Fatal("expected at least one chunk")
	}

	var got []models.Chunk
	err = artifact.DecodeLines[models.Chunk](filepath.Join(layout.ChunkDir(), "chunks.ndjson"), func(rec models.Chunk, parseErr error) error {
		if parseErr != nil {
			t.Fatalf("parse error: %v", parseErr)
		}
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("DecodeLines: %v", err)
	}

	for i, ch := range got {
		if ch.Ord != i {
			t.Errorf("expected ord %d, got %d", i, ch.Ord)
		}
		if ch.ChunkID != "doc-1:000"+itoa(i) {
			// only valid for i < 10, which this fixture satisfies
			t.Errorf("unexpected chunkId %q for ord %d", ch.ChunkID, i)
		}
	}
}

func itoa(i int) string {
	return string(rune('0' + i))
}

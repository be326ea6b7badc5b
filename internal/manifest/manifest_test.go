package manifest

import (
	"path/filepath"
	"testing"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

func sampleManifest() models.EmbedManifest {
	return models.EmbedManifest{
		RunID:     "run1",
		Provider:  "dummy",
		Model:     "dummy-v1",
		Dimension: 8,
		Tokenizer: models.TokenizerIdentity{Name: "whitespace-split", Version: "v1"},
		ChunkerVersion: "chunk-v1",
		ChunkConfig: models.ChunkConfigSnapshot{MaxTokens: 800, MinTokens: 120, PreferHeadings: true},
		ChunkSetHash: "abc123",
	}
}

func TestCompareIdenticalManifestsReportsNoChange(t *testing.T) {
	m := sampleManifest()
	changed, reasons := Compare(m, m)
	if changed || len(reasons) != 0 {
		t.Errorf("expected no change, got changed=%v reasons=%v", changed, reasons)
	}
}

func TestCompareEachFieldSurfacesItsOwnReason(t *testing.T) {
	base := sampleManifest()

	tests := []struct {
		name   string
		mutate func(m models.EmbedManifest) models.EmbedManifest
		want   models.DiffReason
	}{
		{"provider", func(m models.EmbedManifest) models.EmbedManifest { m.Provider = "other"; return m }, models.ReasonProviderChange},
		{"model", func(m models.EmbedManifest) models.EmbedManifest { m.Model = "other"; return m }, models.ReasonModelChange},
		{"dimension", func(m models.EmbedManifest) models.EmbedManifest { m.Dimension = 16; return m }, models.ReasonDimensionChange},
		{"tokenizer", func(m models.EmbedManifest) models.EmbedManifest { m.Tokenizer.Version = "v2"; return m }, models.ReasonTokenizerChange},
		{"chunker", func(m models.EmbedManifest) models.EmbedManifest { m.ChunkerVersion = "chunk-v2"; return m }, models.ReasonChunkerChange},
		{"chunkConfig", func(m models.EmbedManifest) models.EmbedManifest { m.ChunkConfig.MaxTokens = 400; return m }, models.ReasonChunkConfigChange},
		{"content", func(m models.EmbedManifest) models.EmbedManifest { m.ChunkSetHash = "different"; return m }, models.ReasonContentChange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.mutate(sampleManifest())
			changed, reasons := Compare(current, base)
			if !changed {
				t.Fatalf("expected a change to be detected")
			}
			if len(reasons) != 1 || reasons[0] != tt.want {
				t.Errorf("expected exactly [%s], got %v", tt.want, reasons)
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := sampleManifest()

	if err := Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, ok, err := Read(path)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if got.ChunkSetHash != m.ChunkSetHash || got.Provider != m.Provider {
		t.Errorf("round-tripped manifest mismatch: %+v vs %+v", got, m)
	}
}

func TestReadMissingManifestIsNotAnError(t *testing.T) {
	_, ok, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected no error for absent manifest, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for absent manifest")
	}
}

func TestChunkSetHashIsOrderInsensitiveOverInputButStableOverSameSet(t *testing.T) {
	a := []*models.Chunk{
		{ChunkID: "doc-1:0001", TokenCount: 10, ContentHash: "h1"},
		{ChunkID: "doc-1:0000", TokenCount: 5, ContentHash: "h0"},
	}
	b := []*models.Chunk{
		{ChunkID: "doc-1:0000", TokenCount: 5, ContentHash: "h0"},
		{ChunkID: "doc-1:0001", TokenCount: 10, ContentHash: "h1"},
	}
	ha, err := ChunkSetHash(a)
	if err != nil {
		t.Fatalf("ChunkSetHash: %v", err)
	}
	hb, err := ChunkSetHash(b)
	if err != nil {
		t.Fatalf("ChunkSetHash: %v", err)
	}
	if ha != hb {
		t.Errorf("expected hash to be independent of input slice order (sorted by chunkId internally), got %q vs %q", ha, hb)
	}
}

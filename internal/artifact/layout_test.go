package artifact

import (
	"path/filepath"
	"testing"
)

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/work", "2026-01-02_030405_ab12")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ingest ndjson", l.IngestNDJSON("confluence"), "/work/runs/2026-01-02_030405_ab12/ingest/confluence.ndjson"},
		{"normalized", l.NormalizedNDJSON(), "/work/runs/2026-01-02_030405_ab12/normalize/normalized.ndjson"},
		{"enriched", l.EnrichedJSONL(), "/work/runs/2026-01-02_030405_ab12/enrich/enriched.jsonl"},
		{"chunks", l.ChunksNDJSON(), "/work/runs/2026-01-02_030405_ab12/chunk/chunks.ndjson"},
		{"manifest", l.ManifestJSON(), "/work/runs/2026-01-02_030405_ab12/embed/manifest.json"},
		{"events", l.EventsNDJSON(), "/work/logs/2026-01-02_030405_ab12/events.ndjson"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.ToSlash(tt.got) != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestAllRunDirsCoversEveryPhase(t *testing.T) {
	l := NewLayout("/work", "run1")
	dirs := l.AllRunDirs()
	if len(dirs) != 6 {
		t.Fatalf("expected 6 phase dirs, got %d", len(dirs))
	}
}

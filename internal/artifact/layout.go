// Package artifact manages the per-run directory tree on the local
// filesystem: NDJSON phase artifacts under <workroot>/runs/<runId>/ and
// the rotated event logs under <workroot>/logs/<runId>/.
package artifact

import (
	"path/filepath"
)

// Layout resolves every path a phase reads or writes for one run.
// Directories are created lazily per phase; nothing else writes into
// a phase directory once that phase has completed.
type Layout struct {
	WorkRoot string
	RunID    string
}

// NewLayout returns a Layout rooted at workRoot for runID.
func NewLayout(workRoot, runID string) Layout {
	return Layout{WorkRoot: workRoot, RunID: runID}
}

func (l Layout) runDir() string {
	return filepath.Join(l.WorkRoot, "runs", l.RunID)
}

// IngestDir is the ingest phase's directory.
func (l Layout) IngestDir() string { return filepath.Join(l.runDir(), "ingest") }

// IngestNDJSON is ingest/<source>.ndjson.
func (l Layout) IngestNDJSON(source string) string {
	return filepath.Join(l.IngestDir(), source+".ndjson")
}

// IngestSummary is ingest/summary.json.
func (l Layout) IngestSummary() string { return filepath.Join(l.IngestDir(), "summary.json") }

// NormalizeDir is the normalize phase's directory.
func (l Layout) NormalizeDir() string { return filepath.Join(l.runDir(), "normalize") }

// NormalizedNDJSON is normalize/normalized.ndjson.
func (l Layout) NormalizedNDJSON() string {
	return filepath.Join(l.NormalizeDir(), "normalized.ndjson")
}

// EnrichDir is the enrich phase's directory.
func (l Layout) EnrichDir() string { return filepath.Join(l.runDir(), "enrich") }

// EnrichedJSONL is enrich/enriched.jsonl.
func (l Layout) EnrichedJSONL() string { return filepath.Join(l.EnrichDir(), "enriched.jsonl") }

// FingerprintsJSONL is enrich/fingerprints.jsonl.
func (l Layout) FingerprintsJSONL() string {
	return filepath.Join(l.EnrichDir(), "fingerprints.jsonl")
}

// SuggestedEdgesJSONL is enrich/suggested_edges.jsonl (optional, LLM path).
func (l Layout) SuggestedEdgesJSONL() string {
	return filepath.Join(l.EnrichDir(), "suggested_edges.jsonl")
}

// EnrichAssuranceJSON is enrich/assurance.json.
func (l Layout) EnrichAssuranceJSON() string {
	return filepath.Join(l.EnrichDir(), "assurance.json")
}

// EnrichAssuranceMD is enrich/assurance.md.
func (l Layout) EnrichAssuranceMD() string {
	return filepath.Join(l.EnrichDir(), "assurance.md")
}

// ChunkDir is the chunk phase's directory.
func (l Layout) ChunkDir() string { return filepath.Join(l.runDir(), "chunk") }

// ChunksNDJSON is chunk/chunks.ndjson.
func (l Layout) ChunksNDJSON() string { return filepath.Join(l.ChunkDir(), "chunks.ndjson") }

// ChunkAssuranceJSON is chunk/chunk_assurance.json.
func (l Layout) ChunkAssuranceJSON() string {
	return filepath.Join(l.ChunkDir(), "chunk_assurance.json")
}

// PreflightDir is the preflight phase's directory.
func (l Layout) PreflightDir() string { return filepath.Join(l.runDir(), "preflight") }

// PreflightJSON is preflight/preflight.json.
func (l Layout) PreflightJSON() string { return filepath.Join(l.PreflightDir(), "preflight.json") }

// DocSkiplistJSON is preflight/doc_skiplist.json (optional).
func (l Layout) DocSkiplistJSON() string {
	return filepath.Join(l.PreflightDir(), "doc_skiplist.json")
}

// EmbedDir is the embed phase's directory.
func (l Layout) EmbedDir() string { return filepath.Join(l.runDir(), "embed") }

// ManifestJSON is embed/manifest.json.
func (l Layout) ManifestJSON() string { return filepath.Join(l.EmbedDir(), "manifest.json") }

// EmbedAssuranceJSON is embed/embed_assurance.json.
func (l Layout) EmbedAssuranceJSON() string {
	return filepath.Join(l.EmbedDir(), "embed_assurance.json")
}

// LogDir is <workroot>/logs/<runId>/.
func (l Layout) LogDir() string { return filepath.Join(l.WorkRoot, "logs", l.RunID) }

// EventsNDJSON is logs/<runId>/events.ndjson (the active segment).
func (l Layout) EventsNDJSON() string { return filepath.Join(l.LogDir(), "events.ndjson") }

// StderrLog is logs/<runId>/stderr.log.
func (l Layout) StderrLog() string { return filepath.Join(l.LogDir(), "stderr.log") }

// AllRunDirs returns the full set of phase directories under the run
// root, in pipeline order, for lazy creation.
func (l Layout) AllRunDirs() []string {
	return []string{
		l.IngestDir(), l.NormalizeDir(), l.EnrichDir(),
		l.ChunkDir(), l.PreflightDir(), l.EmbedDir(),
	}
}

package observability

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n
}

func TestEmitter_WritesOneLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, DefaultConfig(), arbor.NewLogger())

	e.Emit(context.Background(), models.Event{Stage: "chunk", Rid: "run-1", Op: "chunk.emit", Status: models.StatusOK})
	e.Emit(context.Background(), models.Event{Stage: "chunk", Rid: "run-1", Op: "chunk.emit", Status: models.StatusOK})
	require.NoError(t, e.Close())

	path := filepath.Join(dir, "run-1", "events.ndjson")
	require.Equal(t, 2, countLines(t, path))
}

func TestEmitter_StartEmitsStartAndEnd(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, DefaultConfig(), arbor.NewLogger())

	end := e.Start(context.Background(), "embed", "run", "run-2")
	end(nil, models.EventCounts{Chunks: 5})
	require.NoError(t, e.Close())

	path := filepath.Join(dir, "run-2", "events.ndjson")
	require.Equal(t, 2, countLines(t, path))
}

func TestEmitter_MaintainsLatestSymlink(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, DefaultConfig(), arbor.NewLogger())

	e.Emit(context.Background(), models.Event{Stage: "ingest", Rid: "run-3", Op: "ingest.page", Status: models.StatusOK})
	require.NoError(t, e.Close())

	latest := filepath.Join(dir, "latest")
	target, err := os.Readlink(latest)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "run-3"), target)
}

func TestEmitter_RotatesAtByteThreshold(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, Config{MaxBytes: 10, MaxBackups: 2}, arbor.NewLogger())

	for i := 0; i < 5; i++ {
		e.Emit(context.Background(), models.Event{Stage: "chunk", Rid: "run-4", Op: "chunk.emit", Status: models.StatusOK})
	}
	require.NoError(t, e.Close())

	_, err := os.Stat(filepath.Join(dir, "run-4", "events.ndjson.1"))
	require.NoError(t, err, "expected a rotated segment once the byte threshold was crossed")
}

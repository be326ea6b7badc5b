// Package observability implements §4.8: the NDJSON event stream each
// phase emits to var/logs/<runId>/events.ndjson, with size-based
// rotation and a "latest" symlink, adapted from the teacher's
// MaxSize/MaxBackups file-writer configuration in internal/common/logger.go.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// Config controls rotation behaviour for one run's event stream.
type Config struct {
	// MaxBytes is the active-file size threshold that triggers rotation.
	// Defaults to 100MB, matching the teacher's log-writer default.
	MaxBytes int64
	// MaxBackups bounds how many rotated segments are kept; 0 means
	// unbounded (pruning old segments is the retention tool's job, out
	// of core scope per §4.8).
	MaxBackups int
}

// DefaultConfig mirrors the teacher's createWriterConfig defaults.
func DefaultConfig() Config {
	return Config{MaxBytes: 100 * 1024 * 1024, MaxBackups: 3}
}

// Emitter writes models.Event records one-per-line to
// <logsDir>/<runId>/events.ndjson, rotating the active file once it
// crosses Config.MaxBytes and maintaining a "latest" symlink to the
// run's log directory.
type Emitter struct {
	logsRoot string
	cfg      Config
	logger   arbor.ILogger

	mu       sync.Mutex
	files    map[string]*runFile
}

type runFile struct {
	path string
	f    *os.File
	size int64
}

// New returns an Emitter rooted at logsRoot (typically
// <workroot>/var/logs).
func New(logsRoot string, cfg Config, logger arbor.ILogger) *Emitter {
	if cfg.MaxBytes <= 0 {
		cfg = DefaultConfig()
	}
	return &Emitter{logsRoot: logsRoot, cfg: cfg, logger: logger, files: make(map[string]*runFile)}
}

// Emit appends ev to the run's events.ndjson, rotating first if the
// active segment has crossed the byte threshold. Failures are logged
// and swallowed: observability must never abort a pipeline phase.
func (e *Emitter) Emit(ctx context.Context, ev models.Event) {
	if ev.Ts == "" {
		ev.Ts = time.Now().UTC().Format(time.RFC3339Nano)
	}
	line, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error().Err(err).Msg("observability: failed to marshal event")
		return
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()

	rf, err := e.openLocked(ev.Rid)
	if err != nil {
		e.logger.Error().Err(err).Str("run_id", ev.Rid).Msg("observability: failed to open event stream")
		return
	}

	if rf.size+int64(len(line)) > e.cfg.MaxBytes {
		if err := e.rotateLocked(ev.Rid, rf); err != nil {
			e.logger.Error().Err(err).Str("run_id", ev.Rid).Msg("observability: rotation failed")
		}
	}

	n, err := rf.f.Write(line)
	if err != nil {
		e.logger.Error().Err(err).Str("run_id", ev.Rid).Msg("observability: failed to write event")
		return
	}
	rf.size += int64(n)
}

// Start fills in stage/op/rid/status and returns a closure that emits
// the matching completion event with duration_ms and, on error, a FAIL
// status carrying the error's message as reason.
func (e *Emitter) Start(ctx context.Context, stage, verb, runID string) func(err error, counts models.EventCounts) {
	started := time.Now()
	op := stage + "." + verb
	e.Emit(ctx, models.Event{
		Level:  models.LevelInfo,
		Stage:  stage,
		Rid:    runID,
		Op:     op,
		Status: models.StatusStart,
	})
	return func(err error, counts models.EventCounts) {
		d := time.Since(started).Milliseconds()
		ev := models.Event{
			Level:      models.LevelInfo,
			Stage:      stage,
			Rid:        runID,
			Op:         op,
			Status:     models.StatusEnd,
			DurationMs: &d,
			Counts:     counts,
		}
		if err != nil {
			ev.Level = models.LevelError
			ev.Status = models.StatusFail
			ev.Reason = err.Error()
		}
		e.Emit(ctx, ev)
	}
}

// Close flushes and closes every open run stream. Safe to call once at
// shutdown.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for rid, rf := range e.files {
		if err := rf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.files, rid)
	}
	return firstErr
}

func (e *Emitter) runDir(runID string) string {
	return filepath.Join(e.logsRoot, runID)
}

func (e *Emitter) openLocked(runID string) (*runFile, error) {
	if rf, ok := e.files[runID]; ok {
		return rf, nil
	}
	dir := e.runDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "events.ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	rf := &runFile{path: path, f: f, size: info.Size()}
	e.files[runID] = rf
	e.refreshLatestLocked(runID)
	return rf, nil
}

// rotateLocked renames the active segment to events.ndjson.<n> (n is
// the next unused ordinal) and reopens a fresh active file, pruning
// the oldest backup once MaxBackups is exceeded.
func (e *Emitter) rotateLocked(runID string, rf *runFile) error {
	if err := rf.f.Close(); err != nil {
		return err
	}

	ordinal := 1
	for {
		candidate := fmt.Sprintf("%s.%d", rf.path, ordinal)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			if err := os.Rename(rf.path, candidate); err != nil {
				return err
			}
			break
		}
		ordinal++
	}

	if e.cfg.MaxBackups > 0 && ordinal > e.cfg.MaxBackups {
		oldest := fmt.Sprintf("%s.%d", rf.path, ordinal-e.cfg.MaxBackups)
		os.Remove(oldest) // retention pruning is best-effort
	}

	f, err := os.OpenFile(rf.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	rf.f = f
	rf.size = 0
	return nil
}

// refreshLatestLocked points <logsRoot>/latest at this run's log
// directory, replacing any prior symlink.
func (e *Emitter) refreshLatestLocked(runID string) {
	latest := filepath.Join(e.logsRoot, "latest")
	os.Remove(latest)
	if err := os.Symlink(e.runDir(runID), latest); err != nil {
		e.logger.Warn().Err(err).Str("run_id", runID).Msg("observability: failed to update latest symlink")
	}
}

package coordination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

type memRunStore struct {
	mu   sync.Mutex
	runs map[string]*models.ProcessedRun
}

func newMemRunStore(runs ...*models.ProcessedRun) *memRunStore {
	m := &memRunStore{runs: make(map[string]*models.ProcessedRun)}
	for _, r := range runs {
		cp := *r
		m.runs[r.RunID] = &cp
	}
	return m
}

func (m *memRunStore) InsertNormalized(ctx context.Context, run *models.ProcessedRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *memRunStore) RecoverStale(ctx context.Context, phase string, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := models.ActiveStatus(phase)
	preStates := models.PreStates(phase)
	n := 0
	for _, r := range m.runs {
		if r.Status == active && r.ClaimedAt != nil && time.Since(*r.ClaimedAt) > ttl {
			r.Status = preStates[0]
			r.ClaimedBy = ""
			r.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memRunStore) Claim(ctx context.Context, phase, claimedBy string) (*models.ProcessedRun, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	preStates := models.PreStates(phase)
	for _, r := range m.runs {
		for _, st := range preStates {
			if r.Status == st {
				now := time.Now()
				r.Status = models.ActiveStatus(phase)
				r.ClaimedBy = claimedBy
				r.ClaimedAt = &now
				cp := *r
				return &cp, true, nil
			}
		}
	}
	return nil, false, nil
}

func (m *memRunStore) MarkComplete(ctx context.Context, runID, phase string, totals map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return errors.New("run not found")
	}
	r.Status = models.DoneStatus(phase)
	r.ClaimedBy = ""
	r.ClaimedAt = nil
	switch phase {
	case "chunk":
		n := totals["totalChunks"]
		r.TotalChunks = &n
	case "embed":
		n := totals["embeddedChunks"]
		r.EmbeddedChunks = &n
	}
	return nil
}

func (m *memRunStore) Reset(ctx context.Context, runIDs []string, deleteArtifacts bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range runIDs {
		if r, ok := m.runs[id]; ok {
			r.Status = models.StatusReset
		}
	}
	return nil
}

func (m *memRunStore) Get(ctx context.Context, runID string) (*models.ProcessedRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *r
	return &cp, nil
}

func (m *memRunStore) ListBySource(ctx context.Context, source string) ([]*models.ProcessedRun, error) {
	return nil, nil
}

type memEventEmitter struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *memEventEmitter) Emit(ctx context.Context, ev models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memEventEmitter) Start(ctx context.Context, stage, verb, runID string) func(err error, counts models.EventCounts) {
	return func(err error, counts models.EventCounts) {
		status := models.StatusOK
		if err != nil {
			status = models.StatusFail
		}
		m.Emit(ctx, models.Event{Stage: stage, Op: stage + "." + verb, Rid: runID, Status: status, Counts: counts})
	}
}

func TestCoordinator_ClaimIsExclusive(t *testing.T) {
	store := newMemRunStore(&models.ProcessedRun{RunID: "r1", Status: models.StatusNormalized, NormalizedAt: time.Now()})
	events := &memEventEmitter{}
	coord := New(store, events, arbor.NewLogger(), time.Minute, "worker-1")

	run, ok, err := coord.ClaimNext(context.Background(), "chunk")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, models.StatusChunking, run.Status)

	_, ok, err = coord.ClaimNext(context.Background(), "chunk")
	require.NoError(t, err)
	require.False(t, ok, "second claim must find no candidates")
}

func TestCoordinator_ProcessOneMarksComplete(t *testing.T) {
	store := newMemRunStore(&models.ProcessedRun{RunID: "r1", Status: models.StatusNormalized, NormalizedAt: time.Now()})
	events := &memEventEmitter{}
	coord := New(store, events, arbor.NewLogger(), time.Minute, "worker-1")

	processed, err := coord.ProcessOne(context.Background(), "chunk", func(ctx context.Context, run *models.ProcessedRun) (map[string]int, error) {
		return map[string]int{"totalChunks": 7}, nil
	})
	require.NoError(t, err)
	require.True(t, processed)

	got, err := store.Get(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, models.StatusChunked, got.Status)
	require.Equal(t, 7, *got.TotalChunks)
}

func TestCoordinator_RecoverStaleRevertsOldClaim(t *testing.T) {
	claimedAt := time.Now().Add(-time.Hour)
	store := newMemRunStore(&models.ProcessedRun{
		RunID: "r1", Status: models.StatusChunking, NormalizedAt: time.Now(),
		ClaimedBy: "dead-worker", ClaimedAt: &claimedAt,
	})
	events := &memEventEmitter{}
	coord := New(store, events, arbor.NewLogger(), time.Minute, "worker-1")

	n, err := coord.RecoverStale(context.Background(), "chunk")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := store.Get(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, models.StatusNormalized, got.Status)
	require.Empty(t, got.ClaimedBy)
}

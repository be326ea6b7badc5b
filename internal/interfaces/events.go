package interfaces

import (
	"context"

	"github.com/trailblazer-io/trailblazer/internal/models"
)

// EventEmitter is the narrow surface every component uses to record
// start/tick/complete/error/heartbeat events into the canonical
// per-run NDJSON stream. It never returns an error to callers that
// would abort a pipeline phase; a failure to write an event is itself
// logged and swallowed by the implementation.
type EventEmitter interface {
	Emit(ctx context.Context, ev models.Event)

	// Start/End are convenience wrappers that fill in ts/op/status and
	// return a function to call on completion (recording duration_ms
	// and, on a non-nil error, a FAIL status with the error's reason).
	Start(ctx context.Context, stage, verb, runID string) func(err error, counts models.EventCounts)
}

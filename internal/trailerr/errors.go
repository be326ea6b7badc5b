// Package trailerr defines the core error taxonomy shared across pipeline
// phases. Kinds are not distinct types; they are a small closed set of
// sentinel-wrapped errors so callers can branch with errors.Is while the
// wrapped message still carries the operational detail.
package trailerr

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy buckets from the error handling design.
type Kind string

const (
	// KindConfiguration covers invalid provider/model/dimension, unknown
	// phase, or missing required settings.
	KindConfiguration Kind = "configuration"
	// KindMissingInput covers an expected prior-phase artifact that is
	// absent or empty.
	KindMissingInput Kind = "missing_input"
	// KindParse covers a malformed JSON line; callers skip and count it,
	// they do not abort the file.
	KindParse Kind = "parse"
	// KindDimensionMismatch covers existing embeddings whose dim differs
	// from the requested dim without reembedAll.
	KindDimensionMismatch Kind = "dimension_mismatch"
	// KindRemote covers embedding provider call failures.
	KindRemote Kind = "remote"
	// KindDatabase covers permanent (non-retryable) database failures.
	// Claim-row conflicts are NOT surfaced as this kind; they are a non-error.
	KindDatabase Kind = "database"
	// KindCrashStale marks a run recovered from a stale claim.
	KindCrashStale Kind = "crash_stale"
	// KindQuality is always advisory; it must never be used to abort a run.
	KindQuality Kind = "quality"
)

// Error is a kind-tagged, wrapped error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and operation label.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a new kind-tagged error from a format string.
func Newf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err (or any error it wraps) carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, returning "" if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

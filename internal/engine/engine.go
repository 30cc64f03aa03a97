// Package engine is the run driver (spec.md §4.9): it orchestrates the
// partitioned or in-memory diff path, interleaves progress frames, polls
// for cancellation, and delivers events to a sink.
package engine

import (
	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/events"
)

// Sink delivers events downstream. Implementations should treat delivery
// failures as sink_error, distinct from malformed input data.
type Sink interface {
	OnEvent(events.Event) error
}

// CancelCheck is polled between emissions for cooperative cancellation.
type CancelCheck interface {
	Cancelled() bool
}

// NeverCancel is a CancelCheck that never trips, for callers that don't
// need cancellation.
type NeverCancel struct{}

func (NeverCancel) Cancelled() bool { return false }

// ErrorKind distinguishes the three ways a run can fail, mirroring the
// source engine's three-way EngineError split (Diff/Cancelled/Sink) so
// callers can tell "the data was fine; delivery failed" apart from "the
// data is malformed" (spec.md §7, §13).
type ErrorKind int

const (
	ErrorKindDiff ErrorKind = iota
	ErrorKindCancelled
	ErrorKindSink
)

// Error is what RunFiles and RunBytes return on failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func diffError(err error) *Error {
	return &Error{Kind: ErrorKindDiff, Err: err}
}

func cancelledError() *Error {
	return &Error{Kind: ErrorKindCancelled, Err: diffyerr.New(diffyerr.Cancelled, "operation cancelled")}
}

func sinkError(err error) *Error {
	return &Error{Kind: ErrorKindSink, Err: diffyerr.Wrap(diffyerr.SinkError, err, "sink failed: %v", err)}
}

// RunConfig is the run configuration enumerated in spec.md §6, beyond the
// diff options themselves.
type RunConfig struct {
	EmitProgress           bool
	ProgressIntervalEvents int
	PartitionCount         *int
}

func (c RunConfig) validate(keyed bool) error {
	if c.EmitProgress && c.ProgressIntervalEvents <= 0 {
		return diffyerr.New(diffyerr.InvalidConfig, "progress_interval_events must be a positive integer")
	}
	if c.PartitionCount != nil {
		if *c.PartitionCount <= 0 {
			return diffyerr.New(diffyerr.InvalidConfig, "partition_count must be a positive integer")
		}
		if !keyed {
			return diffyerr.New(diffyerr.InvalidConfig, "partition_count is not compatible with positional mode")
		}
	}
	return nil
}


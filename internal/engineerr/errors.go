// Package engineerr defines the typed error taxonomy the orchestration
// engine uses to decide how a dataset failure propagates through a run.
package engineerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Kind classifies why a dataset task failed, mirroring the propagation
// rules the Stage Coordinator and the layer engines apply at stage
// boundaries.
type Kind int

const (
	// Configuration covers unknown platforms, unknown standardization
	// functions, and unknown transformation kinds. Non-retryable.
	Configuration Kind = iota
	// SourceUnavailable covers SFTP/HTTP/JDBC transport failures.
	// Non-retryable within the engine; a caller re-runs the process.
	SourceUnavailable
	// EmptyWork covers "no unprocessed files/rows at this stage", which is
	// surfaced as a dataset-level failure so silent no-ops are noticed.
	EmptyWork
	// DuplicateWork covers every acquisition candidate being filtered out
	// because it already succeeded.
	DuplicateWork
	// CriticalDQM covers a critical quality rule crossing its threshold.
	CriticalDQM
	// UnknownFunction covers an unrecognized standardization function or
	// padding type.
	UnknownFunction
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case SourceUnavailable:
		return "source_unavailable"
	case EmptyWork:
		return "empty_work"
	case DuplicateWork:
		return "duplicate_work"
	case CriticalDQM:
		return "critical_dqm"
	case UnknownFunction:
		return "unknown_function"
	default:
		return "unknown"
	}
}

// EngineError wraps an underlying cause with a Kind and a captured stack
// trace, suitable for insertion verbatim into a log_* table's error-text
// column.
type EngineError struct {
	Kind  Kind
	Msg   string
	Cause error
	Stack string
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// New builds an EngineError, capturing the current goroutine's stack so
// that it can be persisted as the "full textual stack trace" spec.md §6's
// error wire format requires.
func New(kind Kind, msg string, cause error) *EngineError {
	return &EngineError{
		Kind:  kind,
		Msg:   msg,
		Cause: cause,
		Stack: string(debug.Stack()),
	}
}

// StackTrace returns the text to persist into a log_* row's error column:
// the error's message chain plus the captured stack.
func StackTrace(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Error() + "\n" + ee.Stack
	}

	return err.Error()
}

// KindOf extracts the Kind of err, defaulting to Configuration when err is
// not an *EngineError (treated as an unclassified, non-retryable failure).
func KindOf(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}

	return Configuration
}

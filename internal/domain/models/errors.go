package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the per-symbol, recoverable failure modes. Callers
// wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrDataFetch marks a failed history fetch; recovered via the fallback
	// provider, then by skipping the symbol.
	ErrDataFetch = errors.New("data fetch failed")

	// ErrInsufficientData marks a series too short for the regime fit.
	ErrInsufficientData = errors.New("insufficient observations")

	// ErrConfigValidation is fatal at startup, before any phase runs.
	ErrConfigValidation = errors.New("config validation failed")

	// ErrCalendarParse marks a malformed event-calendar row. The affected
	// symbol is treated conservatively (no event-risk information) and the
	// problem surfaces as a data-quality warning, never as zero risk.
	ErrCalendarParse = errors.New("event calendar parse error")

	// ErrModelUnavailable means no trained, non-stale model exists for a
	// symbol; the forecast provider reports unavailable instead of guessing.
	ErrModelUnavailable = errors.New("no usable trained model")
)

// TrainingFailure wraps a per-symbol training error. It is logged and
// isolated; it never aborts the remaining queue.
type TrainingFailure struct {
	Symbol string
	Err    error
}

func (f *TrainingFailure) Error() string {
	return fmt.Sprintf("training failed for %s: %v", f.Symbol, f.Err)
}

func (f *TrainingFailure) Unwrap() error { return f.Err }

// PhaseError is the only error class allowed to halt the run. The
// orchestrator preserves checkpointed state and fires the error
// notification before stopping.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// NewPhaseError wraps err with the phase it occurred in.
func NewPhaseError(phase Phase, err error) *PhaseError {
	return &PhaseError{Phase: phase.String(), Err: err}
}

package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. See §7 for the
// full error taxonomy and propagation policy.

var (
	// ErrValidation covers malformed input, unrecognized enum values, or
	// out-of-schema payloads. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownPreset is returned when a scenario preset_id does not match
	// the fixed preset table.
	ErrUnknownPreset = errors.New("unknown scenario preset")
)

// ValidationError is the structured, user-visible form of ErrValidation. It
// carries a machine-readable Kind and a human-readable Message, and never
// leaks internal state (§7 "user-visible failure behavior").
type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string { return e.Kind + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with the given kind/message.
func NewValidationError(kind, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

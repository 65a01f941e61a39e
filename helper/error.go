package helper

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification across the pipeline.
// Callers match them with errors.Is.
var (
	// ErrInvalidInput marks bad caller input (empty text, bad chunking
	// parameters). Rejected before any I/O happens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable marks connection or timeout failures against
	// the embedding or generation endpoint. Retryable by the caller.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderError marks a malformed or unexpected provider response.
	ErrProviderError = errors.New("provider error")
	// ErrStorage marks a persistence or transaction failure.
	ErrStorage = errors.New("storage error")
	// ErrGenerationUnavailable marks a failed or timed out generation call.
	// Retrieval results are still usable when this is returned.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)

// Error wraps an error with the operation it occurred in.
type Error struct {
	Op  string
	Err error
}

// NewError creates a new wrapped error for the given operation.
func NewError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

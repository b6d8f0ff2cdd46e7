package entities

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution outcomes.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates no relational record matched. It is an expected
	// outcome and resolution falls through to semantic search.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable indicates the relational or vector store could not
	// serve the request. It is fatal to the current call.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AmbiguousMappingError signals that one ISIN maps to several LEIs.
// It is a data-quality signal, not a failure: every LEI is still reported.
type AmbiguousMappingError struct {
	ISIN string
	LEIs []string
}

func (e *AmbiguousMappingError) Error() string {
	return fmt.Sprintf("isin %s maps to %d leis: %s", e.ISIN, len(e.LEIs), strings.Join(e.LEIs, ", "))
}

// StoreUnavailable wraps err so that it matches ErrStoreUnavailable.
// Errors that already match, and context cancellation or deadline errors, are
// only wrapped with op.
func StoreUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

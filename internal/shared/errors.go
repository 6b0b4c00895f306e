package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation on a write path.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable indicates the persistence layer failed or timed out.
	// Callers must treat it as "couldn't check", never as "no".
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnauthenticated indicates no principal could be resolved for a request.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports a malformed payload on a write path.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Detail)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Detail)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

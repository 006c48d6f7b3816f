package marker

import (
	"errors"
	"fmt"
)

// Common marker detection errors
var (
	// ErrDetectionFailed is returned when a Vision API call fails.
	// Callers recover from it locally: the affected sub-check is
	// treated as "not found" and the pipeline continues.
	ErrDetectionFailed = errors.New("marker detection call failed")

	// ErrMissingCredentials is returned when no Google Cloud
	// credentials are configured in the environment.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// MarkerError wraps errors with context about the failed sub-check.
type MarkerError struct {
	// Op is the operation that failed (e.g., "DetectText").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *MarkerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("marker: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("marker: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *MarkerError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *MarkerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapMarkerError wraps an error as a MarkerError if it isn't already one.
func WrapMarkerError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var markerErr *MarkerError
	if errors.As(err, &markerErr) {
		return err // Already wrapped
	}

	return &MarkerError{Op: op, Err: err, Details: details}
}

package pipeline

import (
	"errors"
	"fmt"
)

// Terminal pipeline errors. Per-page recognition failures, marker
// sub-check failures and cleanup failures are recovered inside the
// pipeline and never surface; only the errors below abort a request.
var (
	// ErrNoInput is returned when a request carries neither a file
	// nor a URL. User-correctable; mapped to 400 at the HTTP boundary.
	ErrNoInput = errors.New("no document supplied: provide a file or a URL")

	// ErrDownload is returned when fetching a URL-referenced document fails.
	ErrDownload = errors.New("document download failed")

	// ErrRasterization is returned when PDF-to-image conversion fails.
	ErrRasterization = errors.New("PDF rasterization failed")

	// ErrTimeout is returned when an external call deadline or the
	// overall pipeline deadline expires.
	ErrTimeout = errors.New("verification timed out")
)

// PipelineError wraps errors with context about the failed stage.
type PipelineError struct {
	// Op is the operation that failed (e.g., "Verify", "download").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pipeline: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("pipeline: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapPipelineError wraps an error as a PipelineError if it isn't already one.
func WrapPipelineError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return err // Already wrapped
	}

	return &PipelineError{Op: op, Err: err, Details: details}
}

package raster

import (
	"errors"
	"fmt"
)

// Common rasterization errors
var (
	// ErrInvalidPDF is returned when the input fails PDF validation.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrRenderFailed is returned when page rendering fails.
	ErrRenderFailed = errors.New("PDF page rendering failed")
)

// RasterError wraps errors with context about the rasterization failure.
type RasterError struct {
	// Op is the operation that failed (e.g., "Rasterize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RasterError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("raster: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("raster: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RasterError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RasterError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRasterError wraps an error as a RasterError if it isn't already one.
func WrapRasterError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var rasterErr *RasterError
	if errors.As(err, &rasterErr) {
		return err // Already wrapped
	}

	return &RasterError{Op: op, Err: err, Details: details}
}

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the processing pipeline. Handlers and the
// orchestrator branch on these with errors.Is.
var (
	// ErrExtraction - document-level extraction failure, fatal to the request.
	ErrExtraction = errors.New("extraction failed")

	// ErrModel - model invocation failure after the retry budget is exhausted.
	ErrModel = errors.New("model invocation failed")

	// ErrModelUnavailable - non-retryable model failure (bad request,
	// permanent quota exhaustion, open circuit).
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrValidation - agent-level extraction failure, fatal to the
	// request but not to the process.
	ErrValidation = errors.New("validation failed")

	// ErrStorage - persistence failure. Never fatal to the request;
	// the orchestrator downgrades it to a degraded-storage flag.
	ErrStorage = errors.New("storage failed")

	// ErrNotFound - lookup of a nonexistent or expired memory entry.
	ErrNotFound = errors.New("entry not found")
)

// ExtractionError wraps a cause as a document-level extraction failure.
func ExtractionError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrExtraction, fmt.Sprintf(format, args...))
}

// ErrorCode maps a pipeline error to the code surfaced in ProcessingResponse.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrExtraction):
		return "extraction_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrModelUnavailable), errors.Is(err, ErrModel):
		return "model_error"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers wrap these with fmt.Errorf("...: %w", ...) and
// classify with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrExtraction    = errors.New("extraction failed")
	ErrNoTranscript  = fmt.Errorf("%w: no transcript or captions found for this video", ErrExtraction)
	ErrTimeout       = errors.New("request timed out")
	ErrFetch         = errors.New("fetch failed")
	ErrEmbedding     = errors.New("embedding provider error")
	ErrModelProvider = errors.New("language model provider error")
	ErrStorage       = errors.New("vector store error")

	// ErrCollectionNotFound is returned by storage backends when the shared
	// collection has not been created yet.
	ErrCollectionNotFound = fmt.Errorf("%w: collection not found", ErrStorage)
)

// detailError pairs a failure class with a message fit for end users. The
// cause stays reachable for logs and errors.Is but is never shown.
type detailError struct {
	kind  error
	msg   string
	cause error
}

// WithCause wraps cause under kind. UserMessage reports only kind and msg.
func WithCause(kind error, msg string, cause error) error {
	return &detailError{kind: kind, msg: msg, cause: cause}
}

func (e *detailError) Error() string {
	if e.cause == nil {
		return e.kind.Error() + ": " + e.msg
	}
	return e.kind.Error() + ": " + e.msg + ": " + e.cause.Error()
}

func (e *detailError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Category names the failure class of err for API consumers.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNoTranscript):
		return "no_transcript"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrEmbedding):
		return "embedding"
	case errors.Is(err, ErrModelProvider):
		return "model_provider"
	case errors.Is(err, ErrStorage):
		return "storage"
	}
	return "internal"
}

// UserMessage returns a stable message suitable for showing to end users.
// Validation and extraction errors carry their own detail, minus any wrapped
// library cause; upstream failures are reduced to a category message.
func UserMessage(err error) string {
	switch Category(err) {
	case "":
		return ""
	case "validation", "extraction":
		var d *detailError
		if errors.As(err, &d) {
			return d.kind.Error() + ": " + d.msg
		}
		return err.Error()
	case "no_transcript":
		return "No transcript or captions are available for this video."
	case "timeout":
		return "The request timed out. Please retry or try a different source."
	case "fetch":
		return "The source could not be fetched. Check the URL and try again."
	case "embedding":
		return "The embedding service is unavailable. Please try again later."
	case "model_provider":
		return "The language model is unavailable. Please try again later."
	case "storage":
		return "The document store is unavailable. Please try again later."
	}
	return "Internal error."
}

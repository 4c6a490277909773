package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Callers classify failures with
// errors.Is against these values.
var (
	// ErrConfiguration indicates an invalid or incomplete provider
	// configuration. It is fatal to the request and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrProviderUnavailable indicates the generation backend could not be
	// reached or answered with a failure. The gateway does not retry.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnknownMethod indicates a protocol method outside the supported set.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrMissingParameter indicates a required protocol parameter was absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrIngestionFailure indicates a single document could not be ingested.
	ErrIngestionFailure = errors.New("ingestion failure")

	// ErrGenerationFailed indicates the answer could not be synthesized.
	// See GenerationError for the preserved context.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat indicates a document format with no text extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParamError reports a required parameter missing from a protocol call.
type ParamError struct {
	Method string
	Param  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: missing required parameter %q", e.Method, e.Param)
}

func (e *ParamError) Unwrap() error { return ErrMissingParameter }

// GenerationError is returned when the language model fails after the
// context was already assembled. Context carries the retrieved chunks or
// the aggregate so callers can still show sources.
type GenerationError struct {
	Context QueryContext
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

// Unwrap exposes both ErrGenerationFailed and the underlying cause, so
// errors.Is matches either.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound signals that a document source cannot be opened.
	ErrSourceNotFound = errors.New("source not found")
	// ErrUnsupportedFormat signals a source that cannot be parsed as text.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidChunkConfig signals chunk parameters outside 0 < overlap < max.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")
	// ErrEmbeddingService signals an embedding provider failure.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrGenerationService signals a generation provider failure.
	ErrGenerationService = errors.New("generation service error")
	// ErrDimensionMismatch signals a vector dimension that differs from the collection's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidQuery signals a malformed query or collection name.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrCollectionNotFound signals a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Service names carried by ServiceError.
const (
	ServiceEmbedding  = "embedding"
	ServiceGeneration = "generation"
)

// ServiceError is a failure reported by an external model provider.
// Transient failures may be retried by the caller; the component itself never retries.
type ServiceError struct {
	Service    string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "retryable"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s service error (%s, status %d): %v", e.Service, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s service error (%s): %v", e.Service, kind, e.Err)
}

// Unwrap exposes both the service sentinel and the underlying cause.
func (e *ServiceError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

// Retryable reports whether the same call may succeed later.
func (e *ServiceError) Retryable() bool { return e.Transient }

func (e *ServiceError) sentinel() error {
	if e.Service == ServiceGeneration {
		return ErrGenerationService
	}
	return ErrEmbeddingService
}

// NewEmbeddingError creates an embedding ServiceError.
func NewEmbeddingError(status int, transient bool, err error) error {
	return &ServiceError{Service: ServiceEmbedding, StatusCode: status, Transient: transient, Err: err}
}

// NewGenerationError creates a generation ServiceError.
func NewGenerationError(status int, transient bool, err error) error {
	return &ServiceError{Service: ServiceGeneration, StatusCode: status, Transient: transient, Err: err}
}

// IsRetryable reports whether err carries a retryable ServiceError.
func IsRetryable(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Retryable()
}

// DimensionMismatchError wraps ErrDimensionMismatch with the expected and actual dimensions.
type DimensionMismatchError struct {
	Collection string
	Want       int
	Got        int
}

func (e *DimensionMismatchError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s: want %d, got %d", ErrDimensionMismatch.Error(), e.Want, e.Got)
	}
	return fmt.Sprintf("%s: collection %q has dimension %d, got %d",
		ErrDimensionMismatch.Error(), e.Collection, e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(collection string, want, got int) error {
	return &DimensionMismatchError{Collection: collection, Want: want, Got: got}
}

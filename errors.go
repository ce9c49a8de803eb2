package ragdex

import "github.com/kailas-cloud/ragdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSourceNotFound     = domain.ErrSourceNotFound
	ErrUnsupportedFormat  = domain.ErrUnsupportedFormat
	ErrInvalidChunkConfig = domain.ErrInvalidChunkConfig
	ErrEmbeddingService   = domain.ErrEmbeddingService
	ErrGenerationService  = domain.ErrGenerationService
	ErrDimensionMismatch  = domain.ErrDimensionMismatch
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrCollectionNotFound = domain.ErrCollectionNotFound
)

// IsRetryable reports whether err is a provider failure that may succeed if retried.
func IsRetryable(err error) bool { return domain.IsRetryable(err) }

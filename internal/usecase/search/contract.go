package search

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Repository runs KNN over one collection.
type Repository interface {
	Search(ctx context.Context, collection string, vector []float32, k int) ([]record.Hit, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

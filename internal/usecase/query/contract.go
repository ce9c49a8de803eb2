package query

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Retriever embeds the query and returns ranked hits.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, k int) ([]record.Hit, error)
}

// Generator answers from a context block.
type Generator interface {
	Generate(ctx context.Context, systemInstructions, contextBlock, query string) (domain.Generation, error)
}

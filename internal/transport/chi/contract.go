package chi

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req ingestuc.Request) (ingestuc.Report, error)
}

// Querier answers questions against a collection.
type Querier interface {
	Query(ctx context.Context, req queryuc.Request) (answer.Answer, error)
}

// Retriever returns ranked hits without generation.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, k int) ([]record.Hit, error)
}

// Collections inspects and removes collections.
type Collections interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

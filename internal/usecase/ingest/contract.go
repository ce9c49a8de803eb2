package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Loader reads a source into pages.
type Loader interface {
	Load(ctx context.Context, source string) (document.Document, error)
}

// Embedder vectorizes chunk text. A native domain.BatchEmbedder is used when available.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// RecordWriter stores a batch all-or-nothing, creating the collection if absent.
type RecordWriter interface {
	Write(ctx context.Context, collection string, records []record.Record) error
}

// ReplaceWriter drops the collection and writes the batch atomically.
// Optional: if the RecordWriter also implements it, replace runs through it.
type ReplaceWriter interface {
	Replace(ctx context.Context, collection string, records []record.Record) error
}

// CollectionDeleter drops a collection with all of its records.
type CollectionDeleter interface {
	Delete(ctx context.Context, name string) error
}

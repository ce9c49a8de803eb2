// Package metrics holds the Prometheus collectors shared across layers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ragdex"

var registerOnce sync.Once

// Register registers the embedding, generation and pipeline collectors
// with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			GenerationErrorsTotal,
			IngestDocumentsTotal,
			IngestChunksTotal,
			QueriesTotal,
		)
	})
}

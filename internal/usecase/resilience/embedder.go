package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder retries and throttles an inner embedder.
type Embedder struct {
	inner domain.Embedder
	run   *runner
}

// NewEmbedder wraps inner with the policy.
func NewEmbedder(inner domain.Embedder, p Policy, logger *zap.Logger) *Embedder {
	return &Embedder{inner: inner, run: newRunner(p, "embed", logger)}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var res domain.EmbeddingResult
	err := e.run.do(ctx, func() error {
		var err error
		res, err = e.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res, nil
}

// BatchEmbed implements domain.BatchEmbedder. A retry resends the whole batch.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var res domain.BatchEmbeddingResult
	err := e.run.do(ctx, func() error {
		var err error
		if be, ok := e.inner.(domain.BatchEmbedder); ok {
			res, err = be.BatchEmbed(ctx, texts)
		} else {
			res, err = domain.BatchFallback(ctx, e.inner, texts)
		}
		return err
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return res, nil
}

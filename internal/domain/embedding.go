package domain

import (
	"context"
	"errors"
	"fmt"
)

// Embedder maps text to a fixed-dimension vector. Implementations are deterministic for a fixed model.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries one vector and its token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries vectors in input order and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

func (r *BatchEmbeddingResult) add(o BatchEmbeddingResult) {
	r.Embeddings = append(r.Embeddings, o.Embeddings...)
	r.PromptTokens += o.PromptTokens
	r.TotalTokens += o.TotalTokens
}

// BatchFallback calls Embed once per text for providers without a native batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings = append(out.Embeddings, res.Embedding)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// EmbedAll embeds texts in sub-batches of at most size, using the native batch
// endpoint when e supports it. The result has exactly one vector per text.
func EmbedAll(ctx context.Context, e Embedder, texts []string, size int) (BatchEmbeddingResult, error) {
	if size <= 0 {
		size = len(texts)
	}
	var out BatchEmbeddingResult
	out.Embeddings = make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		part := texts[start:end]

		var (
			res BatchEmbeddingResult
			err error
		)
		if be, ok := e.(BatchEmbedder); ok {
			res, err = be.BatchEmbed(ctx, part)
		} else {
			res, err = BatchFallback(ctx, e, part)
		}
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(res.Embeddings) != len(part) {
			return BatchEmbeddingResult{}, NewEmbeddingError(0, false,
				fmt.Errorf("expected %d vectors, got %d", len(part), len(res.Embeddings)))
		}
		out.add(res)
	}
	return out, nil
}

// ErrEmptyVector is returned when a provider answers with a zero-length vector.
var ErrEmptyVector = errors.New("empty embedding vector")

// InstructionEmbedder prepends a model-specific instruction before embedding,
// e.g. "search_query: " for nomic-style models.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed prepends the instruction to each text and delegates, falling back to per-text Embed.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed fallback: %w", err)
	}
	return res, nil
}

package instrumented

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Generator wraps a domain.Generator with logging and usage accounting.
type Generator struct {
	inner  domain.Generator
	model  string
	logger *zap.Logger
}

// NewGenerator wraps a generator with observability.
func NewGenerator(inner domain.Generator, model string, logger *zap.Logger) *Generator {
	return &Generator{inner: inner, model: model, logger: logger}
}

// Generate delegates to the inner generator and records token usage on the context.
func (g *Generator) Generate(ctx context.Context, systemInstructions, contextBlock, query string) (domain.Generation, error) {
	start := time.Now()

	gen, err := g.inner.Generate(ctx, systemInstructions, contextBlock, query)

	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Int("context_bytes", len(contextBlock)),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err),
		)
		return domain.Generation{}, fmt.Errorf("generate: %w", err)
	}

	domain.UsageFromContext(ctx).AddGeneration(gen.PromptTokens + gen.CompletionTokens)

	g.logger.Debug("Generation completed",
		zap.String("model", gen.Model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", gen.FinishReason),
		zap.Int("prompt_tokens", gen.PromptTokens),
		zap.Int("completion_tokens", gen.CompletionTokens),
	)

	return gen, nil
}

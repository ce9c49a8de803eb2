package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	"github.com/kailas-cloud/ragdex/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/ragdex/internal/transport/openai"
	"github.com/kailas-cloud/ragdex/internal/usecase/instrumented"
	"github.com/kailas-cloud/ragdex/internal/usecase/resilience"
)

// Providers are the model-facing dependencies of the pipelines.
// Health checkers may be nil.
type Providers struct {
	DocumentEmbedder domain.Embedder
	QueryEmbedder    domain.Embedder
	Generator        domain.Generator
	EmbeddingHealth  domain.HealthChecker
	GenerationHealth domain.HealthChecker
}

// buildProviders assembles the decorator chains:
// OpenAI -> Cached -> Instrumented -> Retrying -> Instruction for embeddings,
// OpenAI -> Instrumented -> Retrying for generation.
func buildProviders(cfg config.Config, kv kvStore, logger *zap.Logger) Providers {
	emb := cfg.Embedding
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     emb.APIKey,
		BaseURL:    emb.BaseURL,
		Model:      emb.Model,
		Dimensions: emb.Dimensions,
		Provider:   emb.Provider,
		Timeout:    time.Duration(emb.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	policy := resilience.Policy{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialInterval:   cfg.Retry.InitialInterval(),
		MaxInterval:       cfg.Retry.MaxInterval(),
		RequestsPerSecond: cfg.Retry.RequestsPerSecond,
	}

	var embedder domain.Embedder = base
	if emb.Cache && kv != nil {
		embedder = embcache.New(base, kv, embcache.Model{
			Provider:   emb.Provider,
			BaseURL:    emb.BaseURL,
			Name:       emb.Model,
			Dimensions: emb.Dimensions,
		}, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = instrumented.NewEmbedder(embedder, emb.Provider, emb.Model, logger)
	embedder = resilience.NewEmbedder(embedder, policy, logger)

	gen := cfg.Generation
	baseGen := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      gen.APIKey,
		BaseURL:     gen.BaseURL,
		Model:       gen.Model,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		Timeout:     time.Duration(gen.TimeoutSec) * time.Second,
		Logger:      logger,
	})
	var generator domain.Generator = instrumented.NewGenerator(baseGen, gen.Model, logger)
	generator = resilience.NewGenerator(generator, policy, logger)

	return Providers{
		DocumentEmbedder: withInstruction(embedder, emb.DocumentInstruction),
		QueryEmbedder:    withInstruction(embedder, emb.QueryInstruction),
		Generator:        generator,
		EmbeddingHealth:  base,
		GenerationHealth: baseGen,
	}
}

// withInstruction is the outermost decorator, so the cache key includes the instruction.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// providerHealth adapts an optional domain.HealthChecker for the health usecase.
type providerHealth struct {
	name    string
	checker domain.HealthChecker
}

func (h providerHealth) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health check: %w", h.name, err)
	}
	return nil
}

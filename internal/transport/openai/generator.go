package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/prompt"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator answers a query from a context block with one chat completion.
// It never retries; retry policy belongs to the caller.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, systemInstructions, contextBlock, query string) (domain.Generation, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemMessage(systemInstructions, contextBlock)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		f := classify(err)
		g.fail(f.errType)
		return domain.Generation{}, domain.NewGenerationError(f.status, f.transient, f.err)
	}
	if len(resp.Choices) == 0 {
		g.fail("empty_response")
		return domain.Generation{}, domain.NewGenerationError(0, false, errors.New("no choices in completion"))
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		g.fail("empty_response")
		return domain.Generation{}, domain.NewGenerationError(0, false,
			fmt.Errorf("empty completion (finish reason %q)", choice.FinishReason))
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	model := resp.Model
	if model == "" {
		model = g.model
	}
	return domain.Generation{
		Text:             choice.Message.Content,
		Model:            model,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (g *Generator) fail(errType string) {
	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
	metrics.GenerationErrorsTotal.WithLabelValues(g.model, errType).Inc()
}

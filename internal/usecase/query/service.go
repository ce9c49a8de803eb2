package query

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	"github.com/kailas-cloud/ragdex/internal/domain/prompt"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Request is one question against a collection.
type Request struct {
	Collection string
	Query      string
	TopK       int
}

// Service answers questions: retrieve, assemble context, generate, attach citations.
type Service struct {
	retriever    Retriever
	generator    Generator
	instructions string
}

// New creates a query service. Empty instructions select prompt.DefaultInstructions.
func New(retriever Retriever, generator Generator, instructions string) *Service {
	return &Service{retriever: retriever, generator: generator, instructions: instructions}
}

// Query answers req. When retrieval finds nothing, the generator is not called
// and the answer is marked ungrounded.
func (s *Service) Query(ctx context.Context, req Request) (answer.Answer, error) {
	hits, err := s.retriever.Retrieve(ctx, req.Collection, req.Query, req.TopK)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("retrieve context: %w", err)
	}
	if len(hits) == 0 {
		metrics.QueriesTotal.WithLabelValues(strconv.FormatBool(false)).Inc()
		return answer.Ungrounded(), nil
	}

	gen, err := s.generator.Generate(ctx, s.instructions, prompt.AssembleContext(hits), req.Query)
	if err != nil {
		return answer.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	metrics.QueriesTotal.WithLabelValues(strconv.FormatBool(true)).Inc()
	return prompt.FormatAnswer(gen, hits), nil
}

package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Generator retries and throttles an inner generator.
type Generator struct {
	inner domain.Generator
	run   *runner
}

// NewGenerator wraps inner with the policy.
func NewGenerator(inner domain.Generator, p Policy, logger *zap.Logger) *Generator {
	return &Generator{inner: inner, run: newRunner(p, "generate", logger)}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, systemInstructions, contextBlock, query string) (domain.Generation, error) {
	var gen domain.Generation
	err := g.run.do(ctx, func() error {
		var err error
		gen, err = g.inner.Generate(ctx, systemInstructions, contextBlock, query)
		return err
	})
	if err != nil {
		return domain.Generation{}, err
	}
	return gen, nil
}

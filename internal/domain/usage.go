package domain

import "context"

type usageKey struct{}

// Usage collects provider token usage for one pipeline run.
// The caller puts a pointer into the context; embedders and generators add to it.
type Usage struct {
	EmbeddingTokens  int
	GenerationTokens int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the collector, or nil if none was installed.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbedding(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddGeneration records prompt plus completion tokens. Safe on a nil receiver.
func (u *Usage) AddGeneration(n int) {
	if u != nil {
		u.GenerationTokens += n
	}
}

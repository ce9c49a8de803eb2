package domain

import "context"

// Generator produces an answer constrained to a context block.
type Generator interface {
	Generate(ctx context.Context, systemInstructions, contextBlock, query string) (Generation, error)
}

// Generation is the validated result of a single chat completion.
type Generation struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

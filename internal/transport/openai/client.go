// Package openai adapts OpenAI-compatible HTTP APIs to the domain embedder and generator.
package openai

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}

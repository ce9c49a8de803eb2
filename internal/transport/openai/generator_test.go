package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func chatServer(t *testing.T, handler func(req map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-test",
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
	}
}

func newTestGenerator(url string) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey: "k", BaseURL: url, Model: "gpt-test", Temperature: 0.2, MaxTokens: 256, Logger: zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	srv := chatServer(t, func(req map[string]any) (int, any) {
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected system and user messages, got %d", len(msgs))
			return http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad"}}
		}
		sys, _ := msgs[0].(map[string]any)
		user, _ := msgs[1].(map[string]any)
		sysContent, _ := sys["content"].(string)
		if sys["role"] != "system" || !strings.Contains(sysContent, "Page Content: Node.js") {
			t.Errorf("unexpected system message: %v", sys)
		}
		if !strings.HasPrefix(sysContent, "Only from context.") {
			t.Errorf("expected custom instructions first: %v", sys["content"])
		}
		if user["role"] != "user" || user["content"] != "What is Node.js?" {
			t.Errorf("unexpected user message: %v", user)
		}
		if mt, _ := req["max_tokens"].(float64); mt != 256 {
			t.Errorf("unexpected max_tokens: %v", req["max_tokens"])
		}
		return http.StatusOK, completion("A runtime. See page 1.")
	})

	gen, err := newTestGenerator(srv.URL).Generate(context.Background(),
		"Only from context.", "Page Content: Node.js is a runtime", "What is Node.js?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Text != "A runtime. See page 1." || gen.FinishReason != "stop" || gen.Model != "gpt-test" {
		t.Errorf("unexpected generation: %+v", gen)
	}
	if gen.PromptTokens != 120 || gen.CompletionTokens != 30 {
		t.Errorf("unexpected usage: %+v", gen)
	}
}

func TestGenerator_EmptyChoicesIsFatal(t *testing.T) {
	srv := chatServer(t, func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}}
	})

	_, err := newTestGenerator(srv.URL).Generate(context.Background(), "", "ctx", "q")
	if !errors.Is(err, domain.ErrGenerationService) {
		t.Fatalf("expected ErrGenerationService, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Error("empty choices must be fatal")
	}
}

func TestGenerator_RateLimitIsRetryable(t *testing.T) {
	srv := chatServer(t, func(map[string]any) (int, any) {
		return http.StatusTooManyRequests, map[string]any{"error": map[string]any{"message": "slow down"}}
	})

	_, err := newTestGenerator(srv.URL).Generate(context.Background(), "", "ctx", "q")
	if !errors.Is(err, domain.ErrGenerationService) || !domain.IsRetryable(err) {
		t.Fatalf("expected retryable generation error, got %v", err)
	}
}

func TestGenerator_AuthIsFatal(t *testing.T) {
	srv := chatServer(t, func(map[string]any) (int, any) {
		return http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid key"}}
	})

	_, err := newTestGenerator(srv.URL).Generate(context.Background(), "", "ctx", "q")
	var se *domain.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *domain.ServiceError, got %v", err)
	}
	if se.Retryable() || se.StatusCode != http.StatusUnauthorized || se.Service != domain.ServiceGeneration {
		t.Errorf("unexpected classification: %+v", se)
	}
}

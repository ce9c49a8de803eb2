package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

// flakyEmbedder fails with errs in order, then succeeds.
type flakyEmbedder struct {
	errs  []error
	calls int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return domain.EmbeddingResult{}, f.errs[f.calls-1]
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func (f *flakyEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	res, err := f.Embed(ctx, "")
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	out := domain.BatchEmbeddingResult{}
	for range texts {
		out.Embeddings = append(out.Embeddings, res.Embedding)
	}
	return out, nil
}

var (
	transient = domain.NewEmbeddingError(503, true, errors.New("overloaded"))
	fatal     = domain.NewEmbeddingError(401, false, errors.New("bad key"))
)

func TestEmbedder_RetriesTransient(t *testing.T) {
	inner := &flakyEmbedder{errs: []error{transient, transient}}
	e := NewEmbedder(inner, fastPolicy(3), zap.NewNop())

	res, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 || len(res.Embedding) != 1 {
		t.Errorf("expected success on third call, calls=%d", inner.calls)
	}
}

func TestEmbedder_FatalNotRetried(t *testing.T) {
	inner := &flakyEmbedder{errs: []error{fatal}}
	e := NewEmbedder(inner, fastPolicy(5), zap.NewNop())

	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestEmbedder_AttemptsExhausted(t *testing.T) {
	inner := &flakyEmbedder{errs: []error{transient, transient, transient, transient}}
	e := NewEmbedder(inner, fastPolicy(2), zap.NewNop())

	_, err := e.BatchEmbed(context.Background(), []string{"a", "b"})
	if !domain.IsRetryable(err) {
		t.Fatalf("expected the last retryable error, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestEmbedder_SingleAttemptPolicy(t *testing.T) {
	inner := &flakyEmbedder{errs: []error{transient}}
	e := NewEmbedder(inner, Policy{}, zap.NewNop())

	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestEmbedder_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyEmbedder{errs: []error{transient, transient}}
	e := NewEmbedder(inner, fastPolicy(10), zap.NewNop())

	if _, err := e.Embed(ctx, "x"); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls > 1 {
		t.Errorf("expected at most 1 call after cancel, got %d", inner.calls)
	}
}

func TestEmbedder_Throttled(t *testing.T) {
	inner := &flakyEmbedder{}
	p := fastPolicy(1)
	p.RequestsPerSecond = 20
	e := NewEmbedder(inner, p, zap.NewNop())

	start := time.Now()
	for range 3 {
		if _, err := e.Embed(context.Background(), "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected throttling to space calls, took %s", elapsed)
	}
}

type flakyGenerator struct {
	errs  []error
	calls int
}

func (f *flakyGenerator) Generate(_ context.Context, _, _, _ string) (domain.Generation, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return domain.Generation{}, f.errs[f.calls-1]
	}
	return domain.Generation{Text: "answer"}, nil
}

func TestGenerator_RetriesRateLimit(t *testing.T) {
	inner := &flakyGenerator{errs: []error{domain.NewGenerationError(429, true, errors.New("slow down"))}}
	g := NewGenerator(inner, fastPolicy(3), zap.NewNop())

	gen, err := g.Generate(context.Background(), "", "ctx", "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Text != "answer" || inner.calls != 2 {
		t.Errorf("unexpected result %q after %d calls", gen.Text, inner.calls)
	}
}

func TestGenerator_QuotaIsFatal(t *testing.T) {
	inner := &flakyGenerator{errs: []error{domain.NewGenerationError(429, false, errors.New("insufficient_quota"))}}
	g := NewGenerator(inner, fastPolicy(3), zap.NewNop())

	_, err := g.Generate(context.Background(), "", "ctx", "q")
	if !errors.Is(err, domain.ErrGenerationService) || inner.calls != 1 {
		t.Fatalf("expected one fatal call, got %v after %d calls", err, inner.calls)
	}
}

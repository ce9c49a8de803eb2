package app

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

const stubDim = 384

// bagOfWords embeds text as hashed lowercase letter tokens. Deterministic and
// offline; texts sharing no token score zero against each other.
type bagOfWords struct {
	calls int
}

func (b *bagOfWords) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	b.calls++
	v := make([]float32, stubDim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%stubDim]++
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: len(tokens)}, nil
}

// echoGenerator answers with the context block so tests can see what was retrieved.
type echoGenerator struct {
	contextBlock string
	calls        int
}

func (g *echoGenerator) Generate(_ context.Context, _, contextBlock, _ string) (domain.Generation, error) {
	g.calls++
	g.contextBlock = contextBlock
	return domain.Generation{Text: "answer from context", PromptTokens: 10, CompletionTokens: 3}, nil
}

type failingChecker struct{}

func (failingChecker) HealthCheck(context.Context) error { return errors.New("unreachable") }

func newTestApp(t *testing.T) (*App, *bagOfWords, *echoGenerator) {
	t.Helper()
	cfg := config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ragdex.db"),
	}}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	emb := &bagOfWords{}
	gen := &echoGenerator{}
	a, err := NewWithProviders(context.Background(), cfg, Providers{
		DocumentEmbedder: emb,
		QueryEmbedder:    emb,
		Generator:        gen,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, emb, gen
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const nodeDoc = "Node.js is a JavaScript runtime built on V8\fExpress is a minimal web framework for Node"

func TestPipeline_NodeScenario(t *testing.T) {
	a, _, gen := newTestApp(t)
	ctx := context.Background()
	source := writeSource(t, "node.txt", nodeDoc)

	report, err := a.Ingest.Ingest(ctx, ingestuc.Request{
		Source: source, Collection: "docs", ChunkSize: 20, ChunkOverlap: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, stubDim, report.Dimension)

	splitter, err := chunk.NewSplitter(20, 5)
	require.NoError(t, err)
	perPage := splitter.Count(len([]rune("Node.js is a JavaScript runtime built on V8")))
	assert.GreaterOrEqual(t, perPage, 2)
	assert.Equal(t, 6, report.Chunks)

	col, err := a.Collections.Get(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 6, col.RecordCount())
	assert.Equal(t, stubDim, col.Dimension())

	hits, err := a.Search.Retrieve(ctx, "docs", "runtime", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Record().Page())
	assert.Equal(t, source, hits[0].Record().Source())
	assert.Contains(t, hits[0].Record().Text(), "runtime")

	ans, err := a.Query.Query(ctx, queryuc.Request{Collection: "docs", Query: "framework", TopK: 1})
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, []answer.Citation{{Source: source, Page: 2}}, ans.Citations)
	assert.Contains(t, gen.contextBlock, "Page Number: 2")
	assert.Contains(t, gen.contextBlock, "File Location: "+source)
}

func TestPipeline_SearchTopKOrdering(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	source := writeSource(t, "node.txt", nodeDoc)

	_, err := a.Ingest.Ingest(ctx, ingestuc.Request{Source: source, Collection: "docs", ChunkSize: 20, ChunkOverlap: 5})
	require.NoError(t, err)

	hits, err := a.Search.Retrieve(ctx, "docs", "node web framework", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score(), hits[i].Score())
	}
}

func TestPipeline_EmptyCollectionIsUngrounded(t *testing.T) {
	a, _, gen := newTestApp(t)

	ans, err := a.Query.Query(context.Background(), queryuc.Request{Collection: "nothing", Query: "anything", TopK: 3})
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Equal(t, answer.NoContext, ans.Text)
	assert.Zero(t, gen.calls)
}

func TestPipeline_InvalidTopK(t *testing.T) {
	a, _, _ := newTestApp(t)

	_, err := a.Query.Query(context.Background(), queryuc.Request{Collection: "docs", Query: "q", TopK: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestPipeline_ReingestIsIdempotent(t *testing.T) {
	a, emb, _ := newTestApp(t)
	ctx := context.Background()
	source := writeSource(t, "node.txt", nodeDoc)
	req := ingestuc.Request{Source: source, Collection: "docs", ChunkSize: 20, ChunkOverlap: 5}

	_, err := a.Ingest.Ingest(ctx, req)
	require.NoError(t, err)
	first := emb.calls
	_, err = a.Ingest.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first*2, emb.calls)

	col, err := a.Collections.Get(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 6, col.RecordCount(), "same ids overwrite instead of duplicating")
}

func TestPipeline_ReplaceAndDelete(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.Ingest.Ingest(ctx, ingestuc.Request{
		Source: writeSource(t, "a.md", strings.Repeat("alpha ", 10)), Collection: "docs",
	})
	require.NoError(t, err)
	_, err = a.Ingest.Ingest(ctx, ingestuc.Request{
		Source: writeSource(t, "b.md", "beta"), Collection: "docs", Replace: true,
	})
	require.NoError(t, err)

	col, err := a.Collections.Get(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, col.RecordCount())

	require.NoError(t, a.Collections.Delete(ctx, "docs"))
	_, err = a.Collections.Get(ctx, "docs")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestPipeline_LoaderErrors(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	_, err := a.Ingest.Ingest(ctx, ingestuc.Request{Source: "/does/not/exist.pdf", Collection: "docs"})
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	_, err = a.Ingest.Ingest(ctx, ingestuc.Request{Source: writeSource(t, "img.png", "\x89PNG"), Collection: "docs"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = a.Ingest.Ingest(ctx, ingestuc.Request{
		Source: writeSource(t, "ok.txt", "text"), Collection: "docs", ChunkSize: 5, ChunkOverlap: 6,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
}

func TestHealth(t *testing.T) {
	a, _, _ := newTestApp(t)

	r := a.Health.Check(context.Background())
	assert.Equal(t, healthuc.Healthy, r.Status)
	assert.Equal(t, healthuc.CheckOK, r.Checks["database"])
	_, ok := r.Checks["embedding"]
	assert.False(t, ok, "stub providers carry no health checker")
}

func TestHealth_ProviderDown(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "ragdex.db"),
	}}
	cfg.ApplyDefaults()
	emb := &bagOfWords{}
	a, err := NewWithProviders(context.Background(), cfg, Providers{
		DocumentEmbedder: emb, QueryEmbedder: emb, Generator: &echoGenerator{},
		GenerationHealth: failingChecker{},
	}, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	r := a.Health.Check(context.Background())
	assert.Equal(t, healthuc.Degraded, r.Status)
	assert.Equal(t, healthuc.CheckError, r.Checks["generation"])
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := openBackend(context.Background(), config.Config{Database: config.DatabaseConfig{Driver: "mongo"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestWithInstruction(t *testing.T) {
	emb := &bagOfWords{}
	assert.Same(t, domain.Embedder(emb), withInstruction(emb, ""))
	_, ok := withInstruction(emb, "search_query: ").(*domain.InstructionEmbedder)
	assert.True(t, ok)
}

func TestSourceIngest_ConfinedToSourceRoot(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	parent := t.TempDir()
	a.cfg.Ingest.SourceRoot = filepath.Join(parent, "sources")

	ingest, err := a.SourceIngest()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(parent, "sources", "node.txt"), []byte(nodeDoc), 0o600))
	outside := filepath.Join(parent, "private.txt")
	require.NoError(t, os.WriteFile(outside, []byte("private notes"), 0o600))

	report, err := ingest.Ingest(ctx, ingestuc.Request{Source: "node.txt", Collection: "docs"})
	require.NoError(t, err)
	assert.Equal(t, "node.txt", report.Source)

	for _, source := range []string{"../private.txt", outside} {
		_, err := ingest.Ingest(ctx, ingestuc.Request{Source: source, Collection: "leak"})
		assert.ErrorIs(t, err, domain.ErrSourceNotFound, source)
	}
	_, err = a.Collections.Get(ctx, "leak")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	// the unconfined service still reads absolute paths
	_, err = a.Ingest.Ingest(ctx, ingestuc.Request{Source: outside, Collection: "local"})
	require.NoError(t, err)
}

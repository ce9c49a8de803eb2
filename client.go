package ragdex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/app"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	collectionuc "github.com/kailas-cloud/ragdex/internal/usecase/collection"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// Client is the ragdex library entry point.
type Client struct {
	app *app.App
}

// New creates a Client and connects to the vector store.
func New(opts ...Option) (*Client, error) {
	c := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o.apply(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	c.cfg.ApplyDefaults()
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ragdex: %w", err)
	}

	var p app.Providers
	if c.embedder != nil {
		emb := adaptEmbedder(c.embedder)
		p.DocumentEmbedder, p.QueryEmbedder = emb, emb
	}
	if c.generator != nil {
		p.Generator = &generatorAdapter{inner: c.generator}
	}

	a, err := app.NewWithProviders(context.Background(), c.cfg, p, c.logger)
	if err != nil {
		return nil, fmt.Errorf("ragdex: %w", err)
	}
	return &Client{app: a}, nil
}

// Close releases the store.
func (c *Client) Close() error {
	return c.app.Close()
}

// Ingest loads, chunks, embeds and stores one document. On error nothing is written.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (IngestReport, error) {
	r, err := c.app.Ingest.Ingest(ctx, ingestuc.Request{
		Source:       req.Source,
		Collection:   req.Collection,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		Replace:      req.Replace,
		Progress:     req.Progress,
	})
	if err != nil {
		return IngestReport{}, err
	}
	return IngestReport{
		RunID:      r.RunID,
		Source:     r.Source,
		Collection: r.Collection,
		Pages:      r.Pages,
		Chunks:     r.Chunks,
		Dimension:  r.Dimension,
		Duration:   r.Duration,
	}, nil
}

// Query answers question from the topK most similar chunks of collection.
func (c *Client) Query(ctx context.Context, collection, question string, topK int) (Answer, error) {
	a, err := c.app.Query.Query(ctx, queryuc.Request{Collection: collection, Query: question, TopK: topK})
	if err != nil {
		return Answer{}, err
	}
	cites := make([]Citation, len(a.Citations))
	for i, ct := range a.Citations {
		cites[i] = Citation{Source: ct.Source, Page: ct.Page}
	}
	return Answer{Text: a.Text, Citations: cites, Grounded: a.Grounded}, nil
}

// Search returns the topK most similar chunks without generating an answer.
func (c *Client) Search(ctx context.Context, collection, query string, topK int) ([]Hit, error) {
	hits, err := c.app.Search.Retrieve(ctx, collection, query, topK)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		r := h.Record()
		out[i] = Hit{ID: r.ID(), Score: h.Score(), Text: r.Text(), Source: r.Source(), Page: r.Page()}
	}
	return out, nil
}

// Collections returns the collection management service.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{svc: c.app.Collections}
}

// CollectionService inspects and removes collections.
type CollectionService struct {
	svc *collectionuc.Service
}

// List returns all collections.
func (s *CollectionService) List(ctx context.Context) ([]Collection, error) {
	cols, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Collection, len(cols))
	for i, col := range cols {
		out[i] = collectionFromDomain(col)
	}
	return out, nil
}

// Get returns one collection with its record count.
func (s *CollectionService) Get(ctx context.Context, name string) (Collection, error) {
	col, err := s.svc.Get(ctx, name)
	if err != nil {
		return Collection{}, err
	}
	return collectionFromDomain(col), nil
}

// Delete removes a collection and all of its records.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	return s.svc.Delete(ctx, name)
}

func collectionFromDomain(c domcol.Collection) Collection {
	return Collection{
		Name:        c.Name(),
		Dimension:   c.Dimension(),
		RecordCount: c.RecordCount(),
		CreatedAt:   time.UnixMilli(c.CreatedAt()),
	}
}

// Health reports "ok", "degraded" or "error" plus the per-component results.
func (c *Client) Health(ctx context.Context) (string, map[string]string) {
	r := c.app.Health.Check(ctx)
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return string(r.Status), checks
}

// Package app is the composition root: it builds every component from a config.Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
	"github.com/kailas-cloud/ragdex/internal/loader"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	collectionuc "github.com/kailas-cloud/ragdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
	searchuc "github.com/kailas-cloud/ragdex/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Ingest      *ingestuc.Service
	Query       *queryuc.Service
	Search      *searchuc.Service
	Collections *collectionuc.Service
	Health      *healthuc.Service

	cfg     config.Config
	backend *backend
	roots   []*os.Root
	logger  *zap.Logger
}

// New opens the configured store and wires OpenAI-compatible providers.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, be, buildProviders(cfg, be.kv, logger), logger), nil
}

// NewWithProviders opens the configured store and wires the given providers instead of
// the OpenAI-compatible ones. Nil fields are filled from the config.
func NewWithProviders(ctx context.Context, cfg config.Config, p Providers, logger *zap.Logger) (*App, error) {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if p.DocumentEmbedder == nil || p.QueryEmbedder == nil || p.Generator == nil {
		def := buildProviders(cfg, be.kv, logger)
		if p.DocumentEmbedder == nil {
			p.DocumentEmbedder, p.EmbeddingHealth = def.DocumentEmbedder, def.EmbeddingHealth
		}
		if p.QueryEmbedder == nil {
			p.QueryEmbedder = def.QueryEmbedder
		}
		if p.Generator == nil {
			p.Generator, p.GenerationHealth = def.Generator, def.GenerationHealth
		}
	}
	return assemble(cfg, be, p, logger), nil
}

func assemble(cfg config.Config, be *backend, p Providers, logger *zap.Logger) *App {
	metrics.Register()

	search := searchuc.New(be.records, p.QueryEmbedder).WithMaxTopK(cfg.Query.MaxTopK)

	var embHealth, genHealth healthuc.ProviderChecker
	if p.EmbeddingHealth != nil {
		embHealth = providerHealth{name: "embedding", checker: p.EmbeddingHealth}
	}
	if p.GenerationHealth != nil {
		genHealth = providerHealth{name: "generation", checker: p.GenerationHealth}
	}

	return &App{
		Ingest: ingestuc.New(loader.New(logger), p.DocumentEmbedder, be.records, be.collections, ingestuc.Config{
			ChunkSize:      cfg.Ingest.ChunkSize,
			ChunkOverlap:   cfg.Ingest.ChunkOverlap,
			EmbedBatchSize: cfg.Ingest.EmbedBatchSize,
		}, logger),
		Query:       queryuc.New(search, p.Generator, cfg.Generation.Instructions),
		Search:      search,
		Collections: collectionuc.New(be.collections),
		Health:      healthuc.New(pingFunc(be.ping), embHealth, genHealth),
		cfg:         cfg,
		backend:     be,
		logger:      logger,
	}
}

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// SourceIngest returns an ingest service that reads sources only inside
// ingest.source_root, creating the directory if needed. Used for remote callers.
func (a *App) SourceIngest() (*ingestuc.Service, error) {
	dir := a.cfg.Ingest.SourceRoot
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create source root: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open source root: %w", err)
	}
	a.roots = append(a.roots, root)
	return a.Ingest.WithLoader(loader.NewWithin(root, a.logger)), nil
}

// Close releases the store and any opened source roots.
func (a *App) Close() error {
	var errs []error
	for _, r := range a.roots {
		errs = append(errs, r.Close())
	}
	if err := a.backend.close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

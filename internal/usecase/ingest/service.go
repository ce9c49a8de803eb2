package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// DefaultEmbedBatchSize is the number of chunks sent per embedding call.
const DefaultEmbedBatchSize = 64

// Config holds pipeline defaults applied when a Request leaves them zero.
type Config struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
}

// Request describes one ingestion run.
type Request struct {
	Source       string
	Collection   string
	ChunkSize    int
	ChunkOverlap int
	// Replace drops the collection before writing the new records.
	Replace bool
	// Progress, if set, is called after each embedding sub-batch.
	Progress func(done, total int)
}

// Report summarizes a successful run.
type Report struct {
	RunID           string
	Source          string
	Collection      string
	Pages           int
	Chunks          int
	Dimension       int
	EmbeddingTokens int
	Duration        time.Duration
}

// Service runs load, split, embed and write as one synchronous pipeline.
type Service struct {
	loader   Loader
	embedder Embedder
	writer   RecordWriter
	cols     CollectionDeleter
	cfg      Config
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(
	loader Loader, embedder Embedder, writer RecordWriter, cols CollectionDeleter,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunk.DefaultMax
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}
	return &Service{loader: loader, embedder: embedder, writer: writer, cols: cols, cfg: cfg, logger: logger}
}

// WithLoader returns a copy of the service that reads sources through l.
func (s *Service) WithLoader(l Loader) *Service {
	c := *s
	c.loader = l
	return &c
}

// Ingest runs the pipeline. Any error aborts the run with nothing written.
func (s *Service) Ingest(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("source", req.Source),
		zap.String("collection", req.Collection),
	)

	report, err := s.run(ctx, req, log)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
		log.Error("Ingestion failed", zap.Error(err))
		return Report{}, err
	}

	report.RunID = runID
	report.Duration = time.Since(start)
	metrics.IngestDocumentsTotal.WithLabelValues("success").Inc()
	metrics.IngestChunksTotal.Add(float64(report.Chunks))
	log.Info("Ingestion completed",
		zap.Int("pages", report.Pages),
		zap.Int("chunks", report.Chunks),
		zap.Int("dimension", report.Dimension),
		zap.Int("embedding_tokens", report.EmbeddingTokens),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) run(ctx context.Context, req Request, log *zap.Logger) (Report, error) {
	if err := domcol.ValidateName(req.Collection); err != nil {
		return Report{}, err
	}
	size, overlap := req.ChunkSize, req.ChunkOverlap
	if size == 0 {
		size = s.cfg.ChunkSize
	}
	if overlap == 0 {
		overlap = s.cfg.ChunkOverlap
	}
	splitter, err := chunk.NewSplitter(size, overlap)
	if err != nil {
		return Report{}, err
	}

	doc, err := s.loader.Load(ctx, req.Source)
	if err != nil {
		return Report{}, fmt.Errorf("load %s: %w", req.Source, err)
	}

	chunks := splitter.SplitDocument(doc)
	log.Debug("Document split",
		zap.Int("pages", doc.PageCount()),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", size),
		zap.Int("chunk_overlap", overlap),
	)

	vectors, tokens, err := s.embed(ctx, chunks, req.Progress)
	if err != nil {
		return Report{}, err
	}

	records := make([]record.Record, len(chunks))
	for i, c := range chunks {
		records[i] = record.New(record.ID(c.Source(), c.Page(), c.Index()), c.Text(), c.Source(), c.Page(), vectors[i])
	}
	dim, err := record.BatchDimension(req.Collection, records)
	if err != nil {
		return Report{}, err
	}

	if err := s.store(ctx, req, records, log); err != nil {
		return Report{}, err
	}

	return Report{
		Source:          doc.Source(),
		Collection:      req.Collection,
		Pages:           doc.PageCount(),
		Chunks:          len(records),
		Dimension:       dim,
		EmbeddingTokens: tokens,
	}, nil
}

// store writes records, dropping the collection first on replace. Writers that
// implement ReplaceWriter do both atomically; otherwise a failed write after the
// drop leaves the collection empty.
func (s *Service) store(ctx context.Context, req Request, records []record.Record, log *zap.Logger) error {
	if !req.Replace {
		if err := s.writer.Write(ctx, req.Collection, records); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		return nil
	}

	if rw, ok := s.writer.(ReplaceWriter); ok {
		if err := rw.Replace(ctx, req.Collection, records); err != nil {
			return fmt.Errorf("replace collection: %w", err)
		}
		log.Info("Collection replaced")
		return nil
	}

	if err := s.cols.Delete(ctx, req.Collection); err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
		return fmt.Errorf("replace collection: %w", err)
	}
	log.Info("Collection replaced")
	if err := s.writer.Write(ctx, req.Collection, records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// embed vectorizes chunks in sub-batches, reporting progress after each one.
func (s *Service) embed(ctx context.Context, chunks []chunk.Chunk, progress func(done, total int)) ([][]float32, int, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	vectors := make([][]float32, 0, len(texts))
	tokens := 0
	for start := 0; start < len(texts); start += s.cfg.EmbedBatchSize {
		end := min(start+s.cfg.EmbedBatchSize, len(texts))
		res, err := domain.EmbedAll(ctx, s.embedder, texts[start:end], s.cfg.EmbedBatchSize)
		if err != nil {
			return nil, 0, fmt.Errorf("embed chunks: %w", err)
		}
		vectors = append(vectors, res.Embeddings...)
		tokens += res.TotalTokens
		if progress != nil {
			progress(end, len(texts))
		}
	}
	return vectors, tokens, nil
}

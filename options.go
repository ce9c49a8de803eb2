package ragdex

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg       config.Config
	embedder  Embedder
	generator Generator
	logger    *zap.Logger
}

// WithSQLite stores vectors in a local SQLite file. This is the default, at data/ragdex.db.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverSQLite
		c.cfg.Database.Path = path
	})
}

// WithValkey stores vectors in Valkey with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverValkey
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithRedis stores vectors in Redis 8+ with the query engine.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithPostgres stores vectors in Postgres with the pgvector extension.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverPostgres
		c.cfg.Database.DSN = dsn
	})
}

// WithOpenAI sets credentials for an OpenAI-compatible endpoint used for both
// embeddings and generation. An empty baseURL selects api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.APIKey = apiKey
		c.cfg.Embedding.BaseURL = baseURL
		c.cfg.Generation.APIKey = apiKey
		c.cfg.Generation.BaseURL = baseURL
	})
}

// WithEmbeddingModel selects the embedding model. dimensions 0 keeps the model default.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.Dimensions = dimensions
	})
}

// WithGenerationModel selects the chat model and its sampling temperature.
func WithGenerationModel(model string, temperature float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Model = model
		c.cfg.Generation.Temperature = temperature
	})
}

// WithInstructions replaces the default system instructions given to the chat model.
func WithInstructions(instructions string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.Instructions = instructions
	})
}

// WithChunking sets the default chunk size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ingest.ChunkSize = size
		c.cfg.Ingest.ChunkOverlap = overlap
	})
}

// WithRetry bounds provider calls to maxAttempts and throttles them to
// requestsPerSecond (0 disables throttling).
func WithRetry(maxAttempts int, requestsPerSecond float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retry.MaxAttempts = maxAttempts
		c.cfg.Retry.RequestsPerSecond = requestsPerSecond
	})
}

// WithEmbeddingCache caches vectors in the store, keyed by model and text.
func WithEmbeddingCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Cache = true
	})
}

// WithEmbedder replaces the OpenAI-compatible embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator replaces the OpenAI-compatible chat model.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithLogger enables structured logging. Logging is off by default.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

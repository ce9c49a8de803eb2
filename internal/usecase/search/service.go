package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Service embeds a query and retrieves the most similar records.
type Service struct {
	repo    Repository
	embed   Embedder
	maxTopK int
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// WithMaxTopK caps k; larger requests fail with ErrInvalidQuery.
func (s *Service) WithMaxTopK(maxTopK int) *Service {
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	return s
}

// Retrieve returns up to k hits for query, highest similarity first.
// A missing or empty collection yields no hits and no error.
func (s *Service) Retrieve(ctx context.Context, collection, query string, k int) ([]record.Hit, error) {
	if err := s.validate(collection, query, k); err != nil {
		return nil, err
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.repo.Search(ctx, collection, embResult.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	return hits, nil
}

func (s *Service) validate(collection, query string, k int) error {
	if err := domcol.ValidateName(collection); err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if k <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	if s.maxTopK > 0 && k > s.maxTopK {
		return fmt.Errorf("%w: top_k %d exceeds limit %d", domain.ErrInvalidQuery, k, s.maxTopK)
	}
	return nil
}

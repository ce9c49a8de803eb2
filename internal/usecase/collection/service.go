package collection

import (
	"context"
	"fmt"

	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// Service handles collection inspection and removal.
type Service struct {
	repo Repository
}

// New creates a collection service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get retrieves a collection by name with its current record count.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if err := domcol.ValidateName(name); err != nil {
		return domcol.Collection{}, err
	}
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection and every record in it.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := domcol.ValidateName(name); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

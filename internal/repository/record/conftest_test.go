package record

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

type mockStore struct {
	hsetMultiFn func(ctx context.Context, items []db.HashSetItem) error
	searchFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)

	written []db.HashSetItem
	deleted []string
}

func (m *mockStore) ExistsMulti(_ context.Context, keys []string) ([]bool, error) {
	found := make([]bool, len(keys))
	for i, key := range keys {
		for _, item := range m.written {
			if item.Key == key {
				found[i] = true
				break
			}
		}
	}
	return found, nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		if err := m.hsetMultiFn(ctx, items); err != nil {
			return err
		}
	}
	m.written = append(m.written, items...)
	return nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	m.deleted = append(m.deleted, keys...)
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

// mockCollections keeps collections in memory.
type mockCollections struct {
	cols    map[string]domcol.Collection
	dropped []string
}

func (m *mockCollections) Ensure(_ context.Context, name string, dim int) (domcol.Collection, error) {
	if c, ok := m.cols[name]; ok {
		if err := c.CheckDimension(dim); err != nil {
			return domcol.Collection{}, err
		}
		return c, nil
	}
	c, err := domcol.New(name, dim)
	if err != nil {
		return domcol.Collection{}, err
	}
	m.cols[name] = c
	return c, nil
}

func (m *mockCollections) Lookup(_ context.Context, name string) (domcol.Collection, error) {
	if c, ok := m.cols[name]; ok {
		return c, nil
	}
	return domcol.Collection{}, domain.ErrCollectionNotFound
}

func (m *mockCollections) Delete(_ context.Context, name string) error {
	if _, ok := m.cols[name]; !ok {
		return domain.ErrCollectionNotFound
	}
	delete(m.cols, name)
	m.dropped = append(m.dropped, name)
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore, *mockCollections) {
	t.Helper()
	ms := &mockStore{}
	mc := &mockCollections{cols: map[string]domcol.Collection{}}
	return New(ms, mc, zap.NewNop()), ms, mc
}

package collection

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// mockStore implements the consumer interface for tests, backed by in-memory hashes.
type mockStore struct {
	hashes map[string]map[string]string

	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	countFn       func(ctx context.Context, index, query string) (int, error)

	deleted []string
	indexes map[string]*db.IndexDefinition
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  map[string]map[string]string{},
		indexes: map[string]*db.IndexDefinition{},
	}
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		if err := m.hsetFn(ctx, key, fields); err != nil {
			return err
		}
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) error {
	for _, k := range keys {
		_ = m.Del(ctx, k)
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		if err := m.createIndexFn(ctx, def); err != nil {
			return err
		}
	}
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	if _, ok := m.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(m.indexes, name)
	return nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms), ms
}

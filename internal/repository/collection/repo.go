package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash, index and count operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores collection metadata and manages the FT index of each collection.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Ensure returns the collection, creating it with dimension dim if absent.
// An existing collection with a different dimension yields a DimensionMismatchError.
func (r *Repo) Ensure(ctx context.Context, name string, dim int) (domcol.Collection, error) {
	col, err := r.Lookup(ctx, name)
	switch {
	case err == nil:
		if err := col.CheckDimension(dim); err != nil {
			return domcol.Collection{}, err
		}
		return col, nil
	case !errors.Is(err, domain.ErrCollectionNotFound):
		return domcol.Collection{}, err
	}

	col, err = domcol.New(name, dim)
	if err != nil {
		return domcol.Collection{}, err
	}
	def, err := buildIndex(name, dim, r.hnsw)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("build index: %w", err)
	}

	metaKey := MetaKey(name)
	if err := r.store.HSet(ctx, metaKey, collectionToHash(col)); err != nil {
		return domcol.Collection{}, fmt.Errorf("hset collection %s: %w", name, err)
	}

	// FT.CREATE, rolling back the metadata on failure
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		cleanupErr := r.store.Del(ctx, metaKey)
		return domcol.Collection{}, errors.Join(fmt.Errorf("create index %s: %w", name, err), cleanupErr)
	}
	return col, nil
}

// Lookup reads collection metadata without counting records.
func (r *Repo) Lookup(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, MetaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrCollectionNotFound
	}
	return collectionFromHash(m)
}

// Get returns the collection with its current record count.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := r.Lookup(ctx, name)
	if err != nil {
		return domcol.Collection{}, err
	}
	n, err := r.store.SearchCount(ctx, IndexName(name), "*")
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("count records %s: %w", name, err)
	}
	return col.WithRecordCount(n), nil
}

// List returns all collections sorted by creation time.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, MetaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}

	cols := make([]domcol.Collection, 0, len(keys))
	for _, key := range keys {
		name := key[len(MetaKey("")):]
		col, err := r.Get(ctx, name)
		if errors.Is(err, domain.ErrCollectionNotFound) {
			continue // deleted between SCAN and HGETALL
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	sort.Slice(cols, func(i, j int) bool {
		return cols[i].CreatedAt() < cols[j].CreatedAt()
	})
	return cols, nil
}

// Delete removes the collection's records, its index and its metadata, in that order.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if _, err := r.Lookup(ctx, name); err != nil {
		return err
	}

	keys, err := r.store.Scan(ctx, RecordPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan records %s: %w", name, err)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete records %s: %w", name, err)
	}
	if err := r.store.DropIndex(ctx, IndexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	if err := r.store.Del(ctx, MetaKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

// buildIndex defines the record index: TEXT text, TAG source, NUMERIC page, HNSW/COSINE vector.
func buildIndex(name string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(IndexName(name)).
		Prefix(RecordPrefix(name)).
		Text(FieldText).
		Tag(FieldSource).
		Numeric(FieldPage).
		VectorHNSW(FieldVector, dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}

// Record hash fields.
const (
	FieldText   = "text"
	FieldSource = "source"
	FieldPage   = "page"
	FieldVector = "vector"
)

package record

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	colrepo "github.com/kailas-cloud/ragdex/internal/repository/collection"
)

// store is the consumer interface for records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// collections resolves, creates and drops collection metadata.
type collections interface {
	Ensure(ctx context.Context, name string, dim int) (domcol.Collection, error)
	Lookup(ctx context.Context, name string) (domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// Repo is the valkey/redis vector store.
type Repo struct {
	store       store
	collections collections
	logger      *zap.Logger
}

// New creates a record repository.
func New(s store, cols collections, logger *zap.Logger) *Repo {
	return &Repo{store: s, collections: cols, logger: logger}
}

// Write stores records in one pipeline, creating the collection from the first record's dimension.
//
// A failed pipeline is compensated: a collection created by this call is dropped, otherwise
// only keys that did not exist before the call are deleted. Pre-existing keys keep their hash,
// possibly overwritten with the new values for the same id.
func (r *Repo) Write(ctx context.Context, collection string, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := record.BatchDimension(collection, records)
	if err != nil {
		return err
	}

	_, err = r.collections.Lookup(ctx, collection)
	created := errors.Is(err, domain.ErrCollectionNotFound)
	if err != nil && !created {
		return fmt.Errorf("lookup collection: %w", err)
	}
	if _, err := r.collections.Ensure(ctx, collection, dim); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	items := make([]db.HashSetItem, len(records))
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = colrepo.RecordKey(collection, rec.ID())
		items[i] = db.HashSetItem{Key: keys[i], Fields: recordToHash(rec)}
	}

	fresh := keys
	if !created {
		if fresh, err = r.newKeys(ctx, keys); err != nil {
			return err
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		writeErr := fmt.Errorf("write records: %w", err)
		if cleanupErr := r.compensate(context.WithoutCancel(ctx), collection, created, fresh); cleanupErr != nil {
			r.logger.Error("Failed to compensate partial write",
				zap.String("collection", collection), zap.Int("records", len(fresh)), zap.Error(cleanupErr))
			return errors.Join(writeErr, cleanupErr)
		}
		return writeErr
	}
	return nil
}

// newKeys returns the keys that are not stored yet.
func (r *Repo) newKeys(ctx context.Context, keys []string) ([]string, error) {
	found, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("check existing records: %w", err)
	}
	fresh := make([]string, 0, len(keys))
	for i, key := range keys {
		if !found[i] {
			fresh = append(fresh, key)
		}
	}
	return fresh, nil
}

func (r *Repo) compensate(ctx context.Context, collection string, created bool, fresh []string) error {
	if created {
		if err := r.collections.Delete(ctx, collection); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		return nil
	}
	if err := r.store.DelMulti(ctx, fresh); err != nil {
		return fmt.Errorf("delete new records: %w", err)
	}
	return nil
}

// Search returns the k nearest records by cosine similarity.
// A missing collection yields an empty result.
func (r *Repo) Search(ctx context.Context, collection string, vector []float32, k int) ([]record.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	col, err := r.collections.Lookup(ctx, collection)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []record.Hit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup collection: %w", err)
	}
	if err := col.CheckDimension(len(vector)); err != nil {
		return nil, err
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    colrepo.IndexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{colrepo.FieldText, colrepo.FieldSource, colrepo.FieldPage},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	prefix := colrepo.RecordPrefix(collection)
	hits := make([]record.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		page, _ := strconv.Atoi(e.Fields[colrepo.FieldPage])
		rec := record.New(
			strings.TrimPrefix(e.Key, prefix),
			e.Fields[colrepo.FieldText],
			e.Fields[colrepo.FieldSource],
			page,
			nil,
		)
		hits = append(hits, record.NewHit(rec, e.Score))
	}
	return record.TopK(hits, k), nil
}

func recordToHash(rec record.Record) map[string]string {
	return map[string]string{
		colrepo.FieldText:   rec.Text(),
		colrepo.FieldSource: rec.Source(),
		colrepo.FieldPage:   strconv.Itoa(rec.Page()),
		colrepo.FieldVector: string(db.EncodeVector(rec.Vector())),
	}
}

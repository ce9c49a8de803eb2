package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Records stores vectors in per-collection tables and searches with the cosine operator.
type Records struct {
	store *Store
}

// Write upserts the batch in one transaction, creating the collection if absent.
func (r *Records) Write(ctx context.Context, collection string, records []record.Record) error {
	dim, err := record.BatchDimension(collection, records)
	if err != nil {
		return err
	}
	if dim == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.store.pool, func(tx pgx.Tx) error {
		if _, err := ensure(ctx, tx, collection, dim); err != nil {
			return err
		}
		return insertRecords(ctx, tx, collection, records)
	})
}

// Replace drops the collection and writes the batch in one transaction.
// On failure the previous collection is left untouched.
func (r *Records) Replace(ctx context.Context, collection string, records []record.Record) error {
	dim, err := record.BatchDimension(collection, records)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.store.pool, func(tx pgx.Tx) error {
		if _, err := dropCollection(ctx, tx, collection); err != nil {
			return err
		}
		if dim == 0 {
			return nil
		}
		if _, err := ensure(ctx, tx, collection, dim); err != nil {
			return err
		}
		return insertRecords(ctx, tx, collection, records)
	})
}

func insertRecords(ctx context.Context, tx pgx.Tx, collection string, records []record.Record) error {
	insert := `INSERT INTO ` + tableName(collection) + ` (id, text, source, page, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, source = EXCLUDED.source,
			page = EXCLUDED.page, embedding = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insert, rec.ID(), rec.Text(), rec.Source(), rec.Page(), pgvector.NewVector(rec.Vector()))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

// Search returns the k records closest to vector by cosine distance.
func (r *Records) Search(ctx context.Context, collection string, vector []float32, k int) ([]record.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	col, err := lookup(ctx, r.store.pool, collection)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []record.Hit{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := col.CheckDimension(len(vector)); err != nil {
		return nil, err
	}

	query := `SELECT id, text, source, page, embedding, 1 - (embedding <=> $1) AS score
		FROM ` + tableName(collection) + `
		ORDER BY embedding <=> $1, id
		LIMIT $2`
	rows, err := r.store.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer rows.Close()

	hits := make([]record.Hit, 0, k)
	for rows.Next() {
		var (
			id, text, source string
			page             int
			emb              pgvector.Vector
			score            float64
		)
		if err := rows.Scan(&id, &text, &source, &page, &emb, &score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, record.NewHit(record.New(id, text, source, page, emb.Slice()), score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	return record.TopK(hits, k), nil
}

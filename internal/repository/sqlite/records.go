package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Records stores vectors and answers KNN queries by brute-force cosine similarity.
type Records struct {
	store *Store
}

// Write stores the batch in one transaction, creating the collection if absent.
// Existing records with the same id are replaced.
func (r *Records) Write(ctx context.Context, collection string, records []record.Record) error {
	dim, err := record.BatchDimension(collection, records)
	if err != nil {
		return err
	}
	if dim == 0 {
		return nil
	}

	return r.store.inTx(ctx, func(tx *sql.Tx) error {
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

	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := deleteCollection(ctx, tx, collection); err != nil {
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

func insertRecords(ctx context.Context, tx *sql.Tx, collection string, records []record.Record) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO records
		(collection, id, text, source, page, vector) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			collection, rec.ID(), rec.Text(), rec.Source(), rec.Page(), db.EncodeVector(rec.Vector()),
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID(), err)
		}
	}
	return nil
}

// Search scores every record in the collection and returns the k most similar.
func (r *Records) Search(ctx context.Context, collection string, vector []float32, k int) ([]record.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	col, err := lookup(ctx, r.store.db, collection)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []record.Hit{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := col.CheckDimension(len(vector)); err != nil {
		return nil, err
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id, text, source, page, vector FROM records WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	hits := make([]record.Hit, 0)
	for rows.Next() {
		var (
			id, text, source string
			page             int
			blob             []byte
		)
		if err := rows.Scan(&id, &text, &source, &page, &blob); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		vec, err := db.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("record %s: corrupt vector: %w", id, err)
		}
		if len(vec) != len(vector) {
			return nil, fmt.Errorf("record %s: stored vector has %d dimensions, collection has %d", id, len(vec), len(vector))
		}
		rec := record.New(id, text, source, page, vec)
		hits = append(hits, record.NewHit(rec, record.Cosine(vector, vec)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return record.TopK(hits, k), nil
}

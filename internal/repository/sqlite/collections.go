package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// Collections manages collection metadata rows.
type Collections struct {
	store *Store
}

// Get returns the collection with its current record count.
func (c *Collections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if err := domcol.ValidateName(name); err != nil {
		return domcol.Collection{}, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	row := c.store.db.QueryRowContext(ctx, `
		SELECT c.name, c.dimension, c.created_at,
		       (SELECT COUNT(*) FROM records r WHERE r.collection = c.name)
		FROM collections c WHERE c.name = ?`, name)
	col, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domcol.Collection{}, fmt.Errorf("collection %s: %w", name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

// List returns all collections ordered by creation time.
func (c *Collections) List(ctx context.Context) ([]domcol.Collection, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT c.name, c.dimension, c.created_at,
		       (SELECT COUNT(*) FROM records r WHERE r.collection = c.name)
		FROM collections c ORDER BY c.created_at, c.name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	out := make([]domcol.Collection, 0)
	for rows.Next() {
		col, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// Delete removes the collection and all of its records.
func (c *Collections) Delete(ctx context.Context, name string) error {
	if err := domcol.ValidateName(name); err != nil {
		return err
	}
	return c.store.inTx(ctx, func(tx *sql.Tx) error {
		found, err := deleteCollection(ctx, tx, name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("collection %s: %w", name, domain.ErrCollectionNotFound)
		}
		return nil
	})
}

// deleteCollection removes the collection's records and metadata, reporting whether it existed.
func deleteCollection(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, name); err != nil {
		return false, fmt.Errorf("delete records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete collection: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ensure returns the collection, creating it with dim when absent.
func ensure(ctx context.Context, tx *sql.Tx, name string, dim int) (domcol.Collection, error) {
	var storedDim int
	var createdAt int64
	err := tx.QueryRowContext(ctx,
		`SELECT dimension, created_at FROM collections WHERE name = ?`, name,
	).Scan(&storedDim, &createdAt)
	switch {
	case err == nil:
		col := domcol.Reconstruct(name, storedDim, createdAt, 0)
		return col, col.CheckDimension(dim)
	case !errors.Is(err, sql.ErrNoRows):
		return domcol.Collection{}, fmt.Errorf("lookup collection: %w", err)
	}

	col, err := domcol.New(name, dim)
	if err != nil {
		return domcol.Collection{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (name, dimension, created_at) VALUES (?, ?, ?)`,
		col.Name(), col.Dimension(), col.CreatedAt(),
	); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return col, nil
}

// lookup returns the collection without counting records.
func lookup(ctx context.Context, q queryer, name string) (domcol.Collection, error) {
	var dim int
	var createdAt int64
	err := q.QueryRowContext(ctx,
		`SELECT dimension, created_at FROM collections WHERE name = ?`, name,
	).Scan(&dim, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domcol.Collection{}, domain.ErrCollectionNotFound
	}
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("lookup collection: %w", err)
	}
	return domcol.Reconstruct(name, dim, createdAt, 0), nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(s scanner) (domcol.Collection, error) {
	var (
		name      string
		dim       int
		createdAt int64
		count     int
	)
	if err := s.Scan(&name, &dim, &createdAt, &count); err != nil {
		return domcol.Collection{}, err
	}
	return domcol.Reconstruct(name, dim, createdAt, count), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// Collections manages collection metadata and per-collection tables.
type Collections struct {
	store *Store
}

// Get returns the collection with its current record count.
func (c *Collections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if err := domcol.ValidateName(name); err != nil {
		return domcol.Collection{}, err
	}
	col, err := lookup(ctx, c.store.pool, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("collection %s: %w", name, err)
	}
	return c.withCount(ctx, col)
}

// List returns all collections ordered by creation time.
func (c *Collections) List(ctx context.Context) ([]domcol.Collection, error) {
	rows, err := c.store.pool.Query(ctx,
		`SELECT name, dimension, created_at FROM ragdex_collections ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	var metas []domcol.Collection
	for rows.Next() {
		var (
			name      string
			dim       int
			createdAt int64
		)
		if err := rows.Scan(&name, &dim, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		metas = append(metas, domcol.Reconstruct(name, dim, createdAt, 0))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	out := make([]domcol.Collection, 0, len(metas))
	for _, m := range metas {
		col, err := c.withCount(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// Delete drops the collection table and its metadata row.
func (c *Collections) Delete(ctx context.Context, name string) error {
	if err := domcol.ValidateName(name); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, c.store.pool, func(tx pgx.Tx) error {
		found, err := dropCollection(ctx, tx, name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("collection %s: %w", name, domain.ErrCollectionNotFound)
		}
		return nil
	})
}

// dropCollection removes the metadata row and table, reporting whether the collection existed.
func dropCollection(ctx context.Context, tx pgx.Tx, name string) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM ragdex_collections WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete collection: %w", err)
	}
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+tableName(name)); err != nil {
		return false, fmt.Errorf("drop collection table: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (c *Collections) withCount(ctx context.Context, col domcol.Collection) (domcol.Collection, error) {
	var n int
	if err := c.store.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+tableName(col.Name())).Scan(&n); err != nil {
		return domcol.Collection{}, fmt.Errorf("count records %s: %w", col.Name(), err)
	}
	return col.WithRecordCount(n), nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lookup returns collection metadata without counting records.
func lookup(ctx context.Context, q queryer, name string) (domcol.Collection, error) {
	var (
		dim       int
		createdAt int64
	)
	err := q.QueryRow(ctx,
		`SELECT dimension, created_at FROM ragdex_collections WHERE name = $1`, name,
	).Scan(&dim, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domcol.Collection{}, domain.ErrCollectionNotFound
	}
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("lookup collection: %w", err)
	}
	return domcol.Reconstruct(name, dim, createdAt, 0), nil
}

// ensure returns the collection, creating its metadata row, table and HNSW index when absent.
func ensure(ctx context.Context, tx pgx.Tx, name string, dim int) (domcol.Collection, error) {
	// Serializes concurrent first writers to the same collection.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return domcol.Collection{}, fmt.Errorf("lock collection: %w", err)
	}

	col, err := lookup(ctx, tx, name)
	if err == nil {
		return col, col.CheckDimension(dim)
	}
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		return domcol.Collection{}, err
	}

	col, err = domcol.New(name, dim)
	if err != nil {
		return domcol.Collection{}, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ragdex_collections (name, dimension, created_at) VALUES ($1, $2, $3)`,
		col.Name(), col.Dimension(), col.CreatedAt(),
	); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id        TEXT PRIMARY KEY,
		text      TEXT NOT NULL,
		source    TEXT NOT NULL,
		page      INTEGER NOT NULL,
		embedding vector(%d) NOT NULL
	)`, tableName(name), dim)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection table: %w", err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
		indexName(name), tableName(name))
	if _, err := tx.Exec(ctx, idx); err != nil {
		return domcol.Collection{}, fmt.Errorf("create vector index: %w", err)
	}
	return col, nil
}

package collection

import (
	"context"

	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// Repository defines the storage contract for collections.
// Collections are created implicitly by the first record write.
type Repository interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

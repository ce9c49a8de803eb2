package collection

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateName checks ^[a-zA-Z0-9_-]{1,64}$.
func ValidateName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: collection name %q must be 1-64 alphanumeric, underscore or hyphen characters",
			domain.ErrInvalidQuery, name)
	}
	return nil
}

// Collection is a named set of records sharing one vector dimension (immutable value object).
type Collection struct {
	name        string
	dimension   int
	createdAt   int64
	recordCount int
}

// New validates and creates a Collection.
func New(name string, dimension int) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	if dimension <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}
	return Collection{name: name, dimension: dimension, createdAt: time.Now().UnixMilli()}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name string, dimension int, createdAt int64, recordCount int) Collection {
	return Collection{name: name, dimension: dimension, createdAt: createdAt, recordCount: recordCount}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Dimension returns the vector dimension fixed at creation.
func (c Collection) Dimension() int { return c.dimension }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// RecordCount returns the number of stored records, as last counted by the store.
func (c Collection) RecordCount() int { return c.recordCount }

// WithRecordCount returns a copy with the record count set.
func (c Collection) WithRecordCount(n int) Collection {
	c.recordCount = n
	return c
}

// CheckDimension returns a DimensionMismatchError if got differs from the collection's dimension.
func (c Collection) CheckDimension(got int) error {
	if got != c.dimension {
		return domain.NewDimensionMismatch(c.name, c.dimension, got)
	}
	return nil
}

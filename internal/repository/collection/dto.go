package collection

import (
	"fmt"
	"strconv"

	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

func collectionToHash(col domcol.Collection) map[string]string {
	return map[string]string{
		"name":       col.Name(),
		"dimension":  strconv.Itoa(col.Dimension()),
		"created_at": strconv.FormatInt(col.CreatedAt(), 10),
	}
}

func collectionFromHash(m map[string]string) (domcol.Collection, error) {
	dim, err := strconv.Atoi(m["dimension"])
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("invalid dimension: %w", err)
	}
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}
	return domcol.Reconstruct(m["name"], dim, createdAt, 0), nil
}

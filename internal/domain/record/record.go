package record

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Record is a stored chunk with its vector. Created at write time, never updated in place.
type Record struct {
	id     string
	text   string
	source string
	page   int
	vector []float32
}

// New creates a Record. The vector is copied.
func New(id, text, source string, page int, vector []float32) Record {
	return Record{
		id:     id,
		text:   text,
		source: source,
		page:   page,
		vector: append([]float32(nil), vector...),
	}
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Text returns the chunk text.
func (r Record) Text() string { return r.text }

// Source returns the originating document identifier.
func (r Record) Source() string { return r.source }

// Page returns the 1-based page number.
func (r Record) Page() int { return r.page }

// Vector returns the embedding vector.
func (r Record) Vector() []float32 { return r.vector }

// Dimension returns len(Vector()).
func (r Record) Dimension() int { return len(r.vector) }

// ID derives a stable record id from the source, page and chunk position,
// so re-ingesting the same document overwrites instead of duplicating.
func ID(source string, page, index int) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s:%d:%d", hex.EncodeToString(sum[:])[:16], page, index)
}

// Hit is one search result.
type Hit struct {
	record Record
	score  float64
}

// NewHit creates a Hit.
func NewHit(r Record, score float64) Hit { return Hit{record: r, score: score} }

// Record returns the matched record.
func (h Hit) Record() Record { return h.record }

// Score returns the cosine similarity, higher is closer.
func (h Hit) Score() float64 { return h.score }

// SortHits orders hits by descending score, ties broken by ascending record id.
func SortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.record.id, b.record.id)
	})
}

// TopK sorts hits and trims them to at most k.
func TopK(hits []Hit, k int) []Hit {
	SortHits(hits)
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero vector.
// The vectors must have equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BatchDimension returns the dimension shared by every record in a write batch.
// Mixed or empty vectors yield ErrDimensionMismatch.
func BatchDimension(collection string, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	dim := records[0].Dimension()
	if dim == 0 {
		return 0, fmt.Errorf("%w: record %s has an empty vector", domain.ErrDimensionMismatch, records[0].ID())
	}
	for _, rec := range records[1:] {
		if rec.Dimension() != dim {
			return 0, domain.NewDimensionMismatch(collection, dim, rec.Dimension())
		}
	}
	return dim, nil
}

package chunk

import (
	"fmt"
	"iter"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/document"
)

// Defaults used when a caller leaves chunk parameters unset.
const (
	DefaultMax     = 1000
	DefaultOverlap = 400
)

// Chunk is a contiguous rune window of one page.
type Chunk struct {
	text   string
	source string
	page   int
	index  int
}

// New creates a Chunk. Used by storage hydration and tests.
func New(text, source string, page, index int) Chunk {
	return Chunk{text: text, source: source, page: page, index: index}
}

// Text returns the chunk text.
func (c Chunk) Text() string { return c.text }

// Source returns the originating document identifier.
func (c Chunk) Source() string { return c.source }

// Page returns the 1-based page number.
func (c Chunk) Page() int { return c.page }

// Index returns the 0-based position of the chunk within its page.
func (c Chunk) Index() int { return c.index }

// Splitter cuts page text into fixed-size overlapping windows measured in runes.
type Splitter struct {
	max     int
	overlap int
}

// NewSplitter validates 0 < overlap < max.
func NewSplitter(maxRunes, overlap int) (Splitter, error) {
	if maxRunes <= 0 || overlap <= 0 || overlap >= maxRunes {
		return Splitter{}, fmt.Errorf("%w: need 0 < overlap < max, got max=%d overlap=%d",
			domain.ErrInvalidChunkConfig, maxRunes, overlap)
	}
	return Splitter{max: maxRunes, overlap: overlap}, nil
}

// Max returns the window size in runes.
func (s Splitter) Max() int { return s.max }

// Overlap returns the number of runes shared by consecutive chunks.
func (s Splitter) Overlap() int { return s.overlap }

// Split yields the chunks of one page. Every range over the sequence walks the page again.
func (s Splitter) Split(page document.Page, source string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		runes := []rune(page.Text)
		n := len(runes)
		if n == 0 {
			return
		}
		step := s.max - s.overlap
		for i, start := 0, 0; ; i, start = i+1, start+step {
			end := min(start+s.max, n)
			if !yield(New(string(runes[start:end]), source, page.Number, i)) {
				return
			}
			if end == n {
				return
			}
		}
	}
}

// Count returns how many chunks Split yields for a text of length runes.
func (s Splitter) Count(length int) int {
	switch {
	case length == 0:
		return 0
	case length <= s.max:
		return 1
	}
	step := s.max - s.overlap
	return (length - s.overlap + step - 1) / step
}

// SplitDocument collects the chunks of every page in page order.
func (s Splitter) SplitDocument(doc document.Document) []Chunk {
	var out []Chunk
	for _, p := range doc.Pages() {
		for c := range s.Split(p, doc.Source()) {
			out = append(out, c)
		}
	}
	return out
}

// Reassemble rebuilds page text from its chunks in order, dropping each overlap.
func Reassemble(chunks []Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.text)
			continue
		}
		runes := []rune(c.text)
		if overlap < len(runes) {
			b.WriteString(string(runes[overlap:]))
		}
	}
	return b.String()
}

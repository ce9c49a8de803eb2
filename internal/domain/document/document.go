package document

import (
	"fmt"
	"strings"
)

// Page is one page of extracted text. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Document is a loaded source (immutable value object).
type Document struct {
	source string
	pages  []Page
}

// New validates and creates a Document.
// Pages must be non-empty with ascending 1-based numbers.
func New(source string, pages []Page) (Document, error) {
	if source == "" {
		return Document{}, fmt.Errorf("document source is required")
	}
	if len(pages) == 0 {
		return Document{}, fmt.Errorf("document has no pages")
	}
	prev := 0
	for _, p := range pages {
		if p.Number <= prev {
			return Document{}, fmt.Errorf("page numbers must be 1-based and ascending, got %d after %d", p.Number, prev)
		}
		prev = p.Number
	}
	return Document{source: source, pages: append([]Page(nil), pages...)}, nil
}

// Source returns the document identifier (usually its path).
func (d Document) Source() string { return d.source }

// Pages returns a copy of the pages in original order.
func (d Document) Pages() []Page { return append([]Page(nil), d.pages...) }

// PageCount returns the number of pages.
func (d Document) PageCount() int { return len(d.pages) }

// IsBlank reports whether every page is empty after trimming whitespace.
func (d Document) IsBlank() bool {
	for _, p := range d.pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

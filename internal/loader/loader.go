// Package loader turns a source path into a paged document.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/document"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Loader extracts text from local files, dispatching on extension.
type Loader struct {
	root   *os.Root
	logger *zap.Logger
}

// New creates a Loader that reads any path the process can open.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// NewWithin creates a Loader confined to root. Sources are paths relative to it;
// absolute paths, ".." and symlinks leading outside yield ErrSourceNotFound.
func NewWithin(root *os.Root, logger *zap.Logger) *Loader {
	return &Loader{root: root, logger: logger}
}

func (l *Loader) stat(source string) (os.FileInfo, error) {
	if l.root == nil {
		return os.Stat(source)
	}
	if !filepath.IsLocal(source) {
		return nil, fmt.Errorf("outside source root %s", l.root.Name())
	}
	return l.root.Stat(source)
}

func (l *Loader) readFile(source string) ([]byte, error) {
	if l.root == nil {
		return os.ReadFile(source)
	}
	return l.root.ReadFile(source)
}

// Supported reports whether the path has an extension Load can parse.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".txt", ".md":
		return true
	}
	return false
}

// Load reads source and returns its pages in original order.
// A missing file yields ErrSourceNotFound; unknown or unreadable content yields ErrUnsupportedFormat.
func (l *Loader) Load(ctx context.Context, source string) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}

	info, err := l.stat(source)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrSourceNotFound, source, err)
	}
	if info.IsDir() {
		return document.Document{}, fmt.Errorf("%w: %s is a directory", domain.ErrSourceNotFound, source)
	}
	if !Supported(source) {
		return document.Document{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(source))
	}

	data, err := l.readFile(source)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrSourceNotFound, source, err)
	}

	var pages []document.Page
	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		pages, err = l.pdfPages(data)
	case ".docx":
		pages, err = l.docxPages(data)
	default:
		pages = textPages(string(data))
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedFormat, source, err)
	}

	doc, err := document.New(source, pages)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedFormat, source, err)
	}
	if doc.IsBlank() {
		return document.Document{}, fmt.Errorf("%w: %s has no extractable text", domain.ErrUnsupportedFormat, source)
	}

	l.logger.Debug("Loaded document",
		zap.String("source", source),
		zap.Int("pages", doc.PageCount()),
	)
	return doc, nil
}

// pdfPages keeps one slot per PDF page; null pages stay empty.
func (l *Loader) pdfPages(data []byte) (pages []document.Page, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, errors.New("pdf has no pages")
	}
	pages = make([]document.Page, 0, total)
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			l.logger.Warn("Null PDF page", zap.Int("page", i))
			pages = append(pages, document.Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, document.Page{Number: i, Text: text})
	}
	return pages, nil
}

func (l *Loader) docxPages(data []byte) ([]document.Page, error) {
	res, err := docconv.Convert(bytes.NewReader(data), docxMime, false)
	if err != nil {
		return nil, fmt.Errorf("convert docx: %w", err)
	}
	return []document.Page{{Number: 1, Text: res.Body}}, nil
}

// textPages splits plain text on form feeds, one page per segment.
func textPages(s string) []document.Page {
	parts := strings.Split(s, "\f")
	pages := make([]document.Page, len(parts))
	for i, p := range parts {
		pages[i] = document.Page{Number: i + 1, Text: p}
	}
	return pages
}

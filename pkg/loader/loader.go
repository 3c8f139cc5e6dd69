// Package loader reads raw medical documents from disk into plain text.
// Formats are resolved by file extension through a Registry; paginated
// formats produce one document per page.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// ErrUnsupportedFormat is returned when no loader is registered for a
// file's extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Loader extracts plain-text documents from a file on disk.
type Loader interface {
	Load(ctx context.Context, path string) ([]document.Document, error)
}

// Registry maps lowercase file extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates a registry with the default loaders: .txt and .md
// as plain text, .docx and .doc as Word archives, and .pdf through the
// pdftotext tool.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(".txt", TextLoader{})
	r.Register(".md", TextLoader{})
	r.Register(".docx", DocxLoader{})
	r.Register(".doc", DocxLoader{})
	r.Register(".pdf", NewPDFLoader())
	return r
}

// Register adds or replaces the loader for an extension. The extension
// must include the leading dot.
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// Supported reports whether a loader is registered for the path's
// extension.
func (r *Registry) Supported(path string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads the file at path with the loader registered for its
// extension.
func (r *Registry) Load(ctx context.Context, path string) ([]document.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return l.Load(ctx, path)
}

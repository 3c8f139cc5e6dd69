package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// TextLoader reads plain-text files (.txt, .md) verbatim.
type TextLoader struct{}

var _ Loader = TextLoader{}

// Load reads the whole file as one document. An empty file is not an
// error; it yields a document with empty text.
func (TextLoader) Load(_ context.Context, path string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return []document.Document{{
		Source: filepath.Base(path),
		Text:   string(data),
	}}, nil
}

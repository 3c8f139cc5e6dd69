package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// ErrPDFToolNotFound is returned when the pdftotext binary is missing
// from PATH.
var ErrPDFToolNotFound = errors.New(
	"pdftotext not found in PATH: install poppler (apt install poppler-utils / brew install poppler)")

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can stand in for the pdftotext binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFLoader extracts text from PDFs by shelling out to pdftotext. Each
// page becomes its own document carrying a "page" metadata field.
type PDFLoader struct {
	runner CommandRunner
}

var _ Loader = (*PDFLoader)(nil)

// NewPDFLoader creates a loader that runs the real pdftotext binary.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{runner: execRunner{}}
}

// NewPDFLoaderWithRunner creates a loader with an injected runner.
func NewPDFLoaderWithRunner(runner CommandRunner) *PDFLoader {
	return &PDFLoader{runner: runner}
}

// Load converts the PDF to text and splits it on the form-feed
// characters pdftotext emits between pages. Blank pages are dropped;
// page numbers count from 1 and keep their position when earlier pages
// are blank.
func (l *PDFLoader) Load(ctx context.Context, path string) ([]document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	out, err := l.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrPDFToolNotFound
		}
		return nil, fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}

	source := filepath.Base(path)
	pages := strings.Split(string(out), "\f")

	var docs []document.Document
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		docs = append(docs, document.Document{
			Source:   source,
			Text:     page,
			Metadata: map[string]string{"page": strconv.Itoa(i + 1)},
		})
	}

	return docs, nil
}

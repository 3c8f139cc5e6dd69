// Package ingest drives documents from the raw directory into the
// vector store: load, chunk, persist sidecars, embed in batches, write.
//
// Per-file and per-batch failures are logged and recorded on the run's
// Result rather than aborting it, so one malformed document cannot halt
// a batch job. A store write failure rolls the store back to the
// pre-run snapshot and the write phase is retried once.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/chartdexhq/chartdex/pkg/chunker"
	"github.com/chartdexhq/chartdex/pkg/datadir"
	"github.com/chartdexhq/chartdex/pkg/document"
	"github.com/chartdexhq/chartdex/pkg/embeddings"
	"github.com/chartdexhq/chartdex/pkg/eventstream"
	"github.com/chartdexhq/chartdex/pkg/eventstream/nop"
	"github.com/chartdexhq/chartdex/pkg/loader"
	"github.com/chartdexhq/chartdex/pkg/store"
)

const (
	// DefaultBatchSize is how many chunk texts go to the embedder per call.
	DefaultBatchSize = 10

	// defaultBatchTimeout bounds one embedding round trip so a stalled
	// service fails the batch, not the run.
	defaultBatchTimeout = 60 * time.Second
)

// Store is the slice of the vector store manager the pipeline writes
// through.
type Store interface {
	Add(ctx context.Context, chunks []document.Chunk, embeddings [][]float32) error
	Snapshot(ctx context.Context) (*store.Snapshot, error)
	Restore(ctx context.Context, snap *store.Snapshot) error
}

var _ Store = (*store.Manager)(nil)

// Config is the configuration options for the ingestion pipeline.
type Config struct {
	// Loaders maps file extensions to document loaders. Defaults to the
	// standard registry.
	Loaders *loader.Registry

	// Splitter chunks loaded documents. Defaults to the standard sizes.
	Splitter *chunker.Splitter

	// Embedder generates chunk embeddings.
	Embedder embeddings.Embedder

	// Store receives embedded chunks.
	Store Store

	// Publisher receives one event per processed document. Defaults to
	// the no-op publisher.
	Publisher eventstream.Publisher

	// Paths locates the raw and processed directories.
	Paths datadir.Paths

	// BatchSize overrides how many chunks are embedded per call.
	BatchSize int

	// BatchTimeout overrides the per-batch embedding deadline.
	BatchTimeout time.Duration

	// Logger is the provided slog logger.
	Logger *slog.Logger
}

// FileFailure records one file that could not be processed.
type FileFailure struct {
	Path string
	Err  error
}

// FileResult is the outcome of processing a single file.
type FileResult struct {
	Path       string
	ChunkCount int
	PatientID  string
}

// Result summarizes one ingestion run. Processed paths are the
// authoritative output; chunk counts can be recomputed from sidecars
// with CountChunks.
type Result struct {
	Processed      []string
	Failed         []FileFailure
	ChunksWritten  int
	BatchesSkipped int
}

// Pipeline ingests raw documents end-to-end.
type Pipeline struct {
	config *Config
	logger *slog.Logger
}

// New creates an ingestion pipeline, filling config defaults.
func New(c *Config) (*Pipeline, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if c.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if c.Paths.Raw == "" || c.Paths.Processed == "" {
		return nil, fmt.Errorf("raw and processed paths are required")
	}

	if c.Loaders == nil {
		c.Loaders = loader.NewRegistry()
	}
	if c.Splitter == nil {
		c.Splitter = chunker.New()
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultBatchTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{config: c, logger: c.Logger}, nil
}

// ProcessFile loads one document, splits it into chunks, and writes the
// sidecar. The sidecar's presence is the sole signal that a raw file
// has been processed.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	docs, err := p.config.Loaders.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	var chunks []document.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.config.Splitter.ChunkDocument(doc)...)
	}

	filename := filepath.Base(path)
	if err := WriteSidecar(p.config.Paths.Processed, filename, chunks); err != nil {
		return nil, err
	}

	p.logger.Info("processed document", "file", filename, "chunks", len(chunks))

	patientID, _ := chunker.PatientID(filename)
	return &FileResult{Path: path, ChunkCount: len(chunks), PatientID: patientID}, nil
}

// Run processes every supported file in the raw directory, then embeds
// and stores all sidecar chunks.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	entries, err := os.ReadDir(p.config.Paths.Raw)
	if err != nil {
		return nil, fmt.Errorf("reading raw directory %s: %w", p.config.Paths.Raw, err)
	}

	var processed []*FileResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !p.config.Loaders.Supported(name) {
			p.logger.Debug("skipping unsupported file", "file", name)
			continue
		}

		fr, err := p.ProcessFile(ctx, filepath.Join(p.config.Paths.Raw, name))
		if err != nil {
			p.logger.Error("processing file failed", "file", name, "error", err)
			result.Failed = append(result.Failed, FileFailure{Path: name, Err: err})
			continue
		}
		processed = append(processed, fr)
		result.Processed = append(result.Processed, fr.Path)
	}

	// Snapshot before the write phase so a corrupting failure can roll
	// back. A failed snapshot downgrades recovery, not the run.
	var snap *store.Snapshot
	if s, err := p.config.Store.Snapshot(ctx); err != nil {
		p.logger.Warn("snapshot before write phase failed", "error", err)
	} else {
		snap = s
	}

	written, skipped, embedErr := p.embedSidecars(ctx)
	if embedErr != nil && snap != nil {
		p.logger.Warn("write phase failed, restoring snapshot and retrying",
			"snapshot", snap.Path,
			"error", embedErr,
		)

		if restoreErr := p.config.Store.Restore(ctx, snap); restoreErr != nil {
			p.logger.Error("restoring snapshot failed", "error", restoreErr)
			return result, embedErr
		}

		var retryErr error
		written, skipped, retryErr = p.embedSidecars(ctx)
		if retryErr != nil {
			p.logger.Error("write phase failed again after restore", "error", retryErr)
			return result, embedErr
		}
	} else if embedErr != nil {
		return result, embedErr
	}

	result.ChunksWritten = written
	result.BatchesSkipped = skipped

	for _, fr := range processed {
		p.publishProcessed(ctx, fr)
	}

	return result, nil
}

// embedSidecars reads every chunk sidecar in the processed directory
// and writes its chunks to the store in embedding batches. A store
// failure aborts the phase; recovery is the caller's job.
func (p *Pipeline) embedSidecars(ctx context.Context) (written, skipped int, err error) {
	entries, err := os.ReadDir(p.config.Paths.Processed)
	if err != nil {
		return 0, 0, fmt.Errorf("reading processed directory %s: %w", p.config.Paths.Processed, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sidecarSuffix) {
			continue
		}

		chunks, readErr := readSidecarFile(filepath.Join(p.config.Paths.Processed, entry.Name()))
		if readErr != nil {
			p.logger.Error("reading sidecar failed", "file", entry.Name(), "error", readErr)
			continue
		}

		w, s, writeErr := p.writeChunks(ctx, chunks)
		written += w
		skipped += s
		if writeErr != nil {
			return written, skipped, writeErr
		}
	}

	return written, skipped, nil
}

// writeChunks embeds and stores chunks in batches. An embedding failure
// skips that batch; a store failure is returned.
func (p *Pipeline) writeChunks(ctx context.Context, chunks []document.Chunk) (written, skipped int, err error) {
	for start := 0; start < len(chunks); start += p.config.BatchSize {
		end := min(start+p.config.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embedded, embedErr := p.embedBatch(ctx, texts)
		if embedErr != nil {
			p.logger.Error("embedding batch failed",
				"batch_size", len(batch),
				"error", embedErr,
			)
			skipped++
			continue
		}

		if addErr := p.config.Store.Add(ctx, batch, embedded); addErr != nil {
			return written, skipped, fmt.Errorf("writing batch to store: %w", addErr)
		}
		written += len(batch)
	}

	return written, skipped, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.BatchTimeout)
	defer cancel()

	return p.config.Embedder.EmbedBatch(ctx, texts)
}

func (p *Pipeline) publishProcessed(ctx context.Context, fr *FileResult) {
	event := eventstream.NewDocumentProcessed(filepath.Base(fr.Path), fr.ChunkCount, fr.PatientID)
	if err := p.config.Publisher.PublishDocument(ctx, event); err != nil {
		p.logger.Warn("publishing document event failed", "file", fr.Path, "error", err)
	}
}

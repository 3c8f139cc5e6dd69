// Package store owns the vector store lifecycle at a data directory
// path: opening the driver, writing chunk batches, filtered reads, and
// the snapshot/restore/repair operations the CLI exposes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/chartdexhq/chartdex/pkg/document"
	"github.com/chartdexhq/chartdex/pkg/vector"
	vectorutils "github.com/chartdexhq/chartdex/pkg/vector/utils"
)

// ProviderSQLiteVec is the default on-disk provider.
const ProviderSQLiteVec = "sqlitevec"

// storeFileName is the sqlite database file inside the store directory.
const storeFileName = "chartdex.db"

// Config holds the settings for opening a store.
type Config struct {
	// Path is the live store directory (processed/vector_db). Required
	// for on-disk providers; lifecycle operations (snapshot, restore,
	// reset) only work when it is set.
	Path string

	// Provider selects the vector driver. Defaults to sqlitevec.
	Provider string

	// TargetURL is the endpoint for server-backed providers. Ignored
	// for sqlitevec, which derives its database path from Path.
	TargetURL string

	// CollectionName is the collection or table documents live in.
	CollectionName string

	// Dimensions is the embedding vector size.
	Dimensions uint

	// APIKey authenticates against providers that require one.
	APIKey string
}

// Manager serializes store access: data operations share a read lock
// while lifecycle operations (snapshot, restore, reset, repair, close)
// take the write lock and may swap the underlying driver. Two managers
// must not share a path.
type Manager struct {
	mu     sync.RWMutex
	driver vector.Driver
	cfg    Config
	logger *slog.Logger
}

// New opens the vector store driver and returns a manager owning it.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Manager, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderSQLiteVec
	}
	if cfg.Provider == ProviderSQLiteVec && cfg.Path == "" {
		return nil, fmt.Errorf("store path is required for the %s provider", ProviderSQLiteVec)
	}

	m := &Manager{cfg: cfg, logger: logger}

	driver, err := m.openDriver(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	m.driver = driver

	return m, nil
}

// NewWithDriver wraps an already-open driver. Lifecycle operations
// reopen from cfg, so they still require cfg.Path.
func NewWithDriver(cfg Config, driver vector.Driver, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, driver: driver, logger: logger}
}

// Add writes one chunk batch. Each chunk gets a fresh UUID so re-adding
// the same content never collides; if the driver still reports a
// duplicate the batch is skipped with a warning rather than failing the
// caller.
func (m *Manager) Add(ctx context.Context, chunks []document.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("got %d chunks and %d embeddings", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]vector.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vector.Document{
			ID:        uuid.NewString(),
			Embedding: embeddings[i],
			Text:      chunk.Text,
			Metadata:  chunk.Metadata,
		}
	}

	err := m.driver.Add(ctx, docs)
	if errors.Is(err, vector.ErrDuplicateID) {
		m.logger.Warn("skipping chunk batch with duplicate document id", "error", err)
		return nil
	}
	return err
}

// QuerySimilar returns the topK entries closest to the embedding,
// ascending by distance.
func (m *Manager) QuerySimilar(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.driver.Query(ctx, embedding, topK)
}

// GetExact returns every entry whose patient_id metadata equals
// patientID. Entries without the key never match.
func (m *Manager) GetExact(ctx context.Context, patientID string) ([]vector.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.driver.Get(ctx, vector.Filter{Metadata: map[string]string{"patient_id": patientID}})
}

// GetByContent returns every entry whose stored text contains the given
// substring.
func (m *Manager) GetByContent(ctx context.Context, text string) ([]vector.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.driver.Get(ctx, vector.Filter{TextContains: text})
}

// DeleteBySource removes every entry that came from the named source
// file.
func (m *Manager) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return fmt.Errorf("source is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.driver.Delete(ctx, vector.Filter{Metadata: map[string]string{"source": source}})
}

// Count returns the number of stored entries.
func (m *Manager) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.driver.Count(ctx)
}

// Close closes the underlying driver.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.driver.Close()
}

// openDriver builds a fresh driver from the manager's config. For the
// on-disk provider the store directory is created if missing.
func (m *Manager) openDriver(ctx context.Context) (vector.Driver, error) {
	target := m.cfg.TargetURL
	if m.cfg.Provider == ProviderSQLiteVec {
		if err := os.MkdirAll(m.cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", m.cfg.Path, err)
		}
		target = filepath.Join(m.cfg.Path, storeFileName)
	}

	return vectorutils.NewDriver(ctx, &vectorutils.NewDriverOpts{
		ProviderType:   m.cfg.Provider,
		TargetURL:      target,
		CollectionName: m.cfg.CollectionName,
		Dimensions:     m.cfg.Dimensions,
		APIKey:         m.cfg.APIKey,
		Logger:         m.logger,
	})
}

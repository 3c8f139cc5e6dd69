package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chartdexhq/chartdex/pkg/document"
)

// sidecarSuffix is appended to a raw filename to name its chunk sidecar.
const sidecarSuffix = "_chunks.json"

// SidecarPath returns the chunk sidecar path for a raw filename.
func SidecarPath(processedDir, filename string) string {
	return filepath.Join(processedDir, filename+sidecarSuffix)
}

// WriteSidecar persists a document's chunks as an ordered JSON array.
// An empty document still writes a sidecar (an empty array) so the file
// counts as processed.
func WriteSidecar(processedDir, filename string, chunks []document.Chunk) error {
	if chunks == nil {
		chunks = []document.Chunk{}
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks for %s: %w", filename, err)
	}

	path := SidecarPath(processedDir, filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing sidecar %s: %w", path, err)
	}

	return nil
}

// ReadSidecar loads a document's chunks back from its sidecar.
func ReadSidecar(processedDir, filename string) ([]document.Chunk, error) {
	return readSidecarFile(SidecarPath(processedDir, filename))
}

func readSidecarFile(path string) ([]document.Chunk, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %s: %w", path, err)
	}

	var chunks []document.Chunk
	if err := json.Unmarshal(payload, &chunks); err != nil {
		return nil, fmt.Errorf("decoding sidecar %s: %w", path, err)
	}

	return chunks, nil
}

// IsProcessed reports whether a raw file already has a sidecar.
func IsProcessed(processedDir, filename string) bool {
	_, err := os.Stat(SidecarPath(processedDir, filename))
	return err == nil
}

// CountChunks reports how many chunks a processed file produced.
func CountChunks(processedDir, filename string) (int, error) {
	chunks, err := ReadSidecar(processedDir, filename)
	if err != nil {
		return 0, err
	}

	return len(chunks), nil
}

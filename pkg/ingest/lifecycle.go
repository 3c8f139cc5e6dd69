package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chartdexhq/chartdex/pkg/datadir"
)

// RemoveDocument deletes a raw file and its sidecar. The sidecar may
// not exist yet; the raw file must. Vector store entries are removed
// separately by the caller.
func RemoveDocument(paths datadir.Paths, filename string) error {
	raw := filepath.Join(paths.Raw, filename)
	if err := os.Remove(raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no document named %q in %s", filename, paths.Raw)
		}
		return fmt.Errorf("removing %s: %w", raw, err)
	}

	sidecar := SidecarPath(paths.Processed, filename)
	if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing sidecar %s: %w", sidecar, err)
	}

	return nil
}

// Purge deletes every raw document and every chunk sidecar, leaving the
// directory layout and the vector store in place. It reports how many
// raw files were removed.
func Purge(paths datadir.Paths) (int, error) {
	docs, err := datadir.ListRaw(paths)
	if err != nil {
		return 0, err
	}

	for _, doc := range docs {
		path := filepath.Join(paths.Raw, doc.Name)
		if err := os.Remove(path); err != nil {
			return 0, fmt.Errorf("removing %s: %w", path, err)
		}
	}

	entries, err := os.ReadDir(paths.Processed)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", paths.Processed, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sidecarSuffix) {
			continue
		}
		path := filepath.Join(paths.Processed, entry.Name())
		if err := os.Remove(path); err != nil {
			return 0, fmt.Errorf("removing %s: %w", path, err)
		}
	}

	return len(docs), nil
}

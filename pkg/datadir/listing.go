package datadir

import (
	"fmt"
	"os"
	"strings"
)

// RawDocument is one file in the raw documents directory.
type RawDocument struct {
	Name string
	Size int64
}

// ListRaw lists the files in the raw directory, skipping subdirectories
// and dotfiles.
func ListRaw(paths Paths) ([]RawDocument, error) {
	entries, err := os.ReadDir(paths.Raw)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", paths.Raw, err)
	}

	var docs []RawDocument
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		docs = append(docs, RawDocument{Name: entry.Name(), Size: info.Size()})
	}

	return docs, nil
}

// Package datadir manages the .chartdex/ data directory that holds raw
// documents, processed chunk sidecars, and the on-disk vector store.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the chartdex data directory.
	dirName = ".chartdex"

	rawDirName       = "raw"
	processedDirName = "processed"
	vectorDirName    = "vector_db"
)

// Paths is the resolved layout under the data directory root. Snapshots
// of the vector store live next to VectorDB inside Processed.
type Paths struct {
	Root      string
	Raw       string
	Processed string
	VectorDB  string
}

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .chartdex/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.chartdex/ dir
//  3. Home ~/.chartdex/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Layout resolves the data directory root and ensures the raw/ and
// processed/ subdirectories exist. The vector store directory itself is
// created by the store on first open.
func (m *Manager) Layout(overrideDir string) (Paths, error) {
	root, err := m.Target(overrideDir)
	if err != nil {
		return Paths{}, err
	}

	processed := filepath.Join(root, processedDirName)
	paths := Paths{
		Root:      root,
		Raw:       filepath.Join(root, rawDirName),
		Processed: processed,
		VectorDB:  filepath.Join(processed, vectorDirName),
	}

	for _, dir := range []string{paths.Raw, paths.Processed} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	return paths, nil
}

// localDirExists checks whether a .chartdex/ directory exists in the
// current working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}

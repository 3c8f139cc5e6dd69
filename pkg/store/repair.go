package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// RepairFailure records one path whose permissions could not be fixed.
type RepairFailure struct {
	Path string
	Err  error
}

// RepairReport summarizes a permissions repair pass over the store
// tree.
type RepairReport struct {
	DirsFixed  int
	FilesFixed int
	Failures   []RepairFailure
}

// RepairPermissions walks the store directory setting directories to
// 0o755 and files to 0o644. Failures are accumulated in the report
// rather than aborting the walk, so a single bad path cannot hide the
// rest of the repair.
func (m *Manager) RepairPermissions() (*RepairReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Path == "" {
		return nil, fmt.Errorf("repair requires an on-disk store path")
	}
	if _, err := os.Stat(m.cfg.Path); err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	report := &RepairReport{}
	filepath.WalkDir(m.cfg.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Failures = append(report.Failures, RepairFailure{Path: path, Err: err})
			return nil
		}

		mode := fs.FileMode(0o644)
		if d.IsDir() {
			mode = 0o755
		}

		if err := os.Chmod(path, mode); err != nil {
			report.Failures = append(report.Failures, RepairFailure{Path: path, Err: err})
			return nil
		}

		if d.IsDir() {
			report.DirsFixed++
		} else {
			report.FilesFixed++
		}
		return nil
	})

	m.logger.Info("repaired store permissions",
		"dirs", report.DirsFixed,
		"files", report.FilesFixed,
		"failures", len(report.Failures))

	return report, nil
}

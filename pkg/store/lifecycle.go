package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// snapshotPrefix names snapshot directories, created as siblings of the
// live store directory.
const snapshotPrefix = "vector_db_backup_"

// snapshotTimeFormat stamps snapshot directory names.
const snapshotTimeFormat = "20060102_150405"

// maxSnapshots is how many snapshots are kept; older ones are pruned
// after each new snapshot.
const maxSnapshots = 3

// Snapshot is one point-in-time copy of the store directory.
type Snapshot struct {
	Path      string
	CreatedAt time.Time
}

// Snapshot closes the store, copies its directory to a timestamped
// sibling, reopens, and prunes snapshots beyond the newest three.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Path == "" {
		return nil, fmt.Errorf("snapshots require an on-disk store path")
	}

	now := time.Now()
	dest := m.snapshotPath(now)

	if err := m.driver.Close(); err != nil {
		return nil, fmt.Errorf("closing store before snapshot: %w", err)
	}

	copyErr := copyDir(m.cfg.Path, dest)

	driver, openErr := m.openDriver(ctx)
	if openErr != nil {
		return nil, fmt.Errorf("reopening store after snapshot: %w", openErr)
	}
	m.driver = driver

	if copyErr != nil {
		return nil, fmt.Errorf("copying store to %s: %w", dest, copyErr)
	}

	m.pruneSnapshots()

	m.logger.Info("created store snapshot", "path", dest)
	return &Snapshot{Path: dest, CreatedAt: now}, nil
}

// Snapshots lists existing snapshots, newest first.
func (m *Manager) Snapshots() ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listSnapshots()
}

// Restore replaces the live store directory with the snapshot's
// contents and reopens the driver.
func (m *Manager) Restore(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.Path == "" {
		return fmt.Errorf("snapshot is required")
	}

	info, err := os.Stat(snap.Path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", snap.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot %s is not a directory", snap.Path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Path == "" {
		return fmt.Errorf("restore requires an on-disk store path")
	}

	if err := m.driver.Close(); err != nil {
		return fmt.Errorf("closing store before restore: %w", err)
	}

	restoreErr := replaceDir(snap.Path, m.cfg.Path)

	driver, openErr := m.openDriver(ctx)
	if openErr != nil {
		return fmt.Errorf("reopening store after restore: %w", openErr)
	}
	m.driver = driver

	if restoreErr != nil {
		return fmt.Errorf("restoring snapshot %s: %w", snap.Path, restoreErr)
	}

	m.logger.Info("restored store snapshot", "path", snap.Path)
	return nil
}

// Reset deletes the live store directory and reopens an empty store.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Path == "" {
		return fmt.Errorf("reset requires an on-disk store path")
	}

	if err := m.driver.Close(); err != nil {
		return fmt.Errorf("closing store before reset: %w", err)
	}

	removeErr := os.RemoveAll(m.cfg.Path)

	driver, openErr := m.openDriver(ctx)
	if openErr != nil {
		return fmt.Errorf("reopening store after reset: %w", openErr)
	}
	m.driver = driver

	if removeErr != nil {
		return fmt.Errorf("removing store directory: %w", removeErr)
	}

	m.logger.Info("reset vector store", "path", m.cfg.Path)
	return nil
}

// snapshotPath picks a snapshot directory name, suffixing _1, _2, ...
// when a snapshot from the same second already exists.
func (m *Manager) snapshotPath(now time.Time) string {
	parent := filepath.Dir(m.cfg.Path)
	base := filepath.Join(parent, snapshotPrefix+now.Format(snapshotTimeFormat))

	dest := base
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = fmt.Sprintf("%s_%d", base, n)
	}
}

// listSnapshots reads the snapshot siblings of the live store, newest
// first by modification time. Callers must hold at least a read lock.
func (m *Manager) listSnapshots() ([]Snapshot, error) {
	if m.cfg.Path == "" {
		return nil, nil
	}

	parent := filepath.Dir(m.cfg.Path)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", parent, err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Path:      filepath.Join(parent, entry.Name()),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	return snaps, nil
}

// pruneSnapshots removes snapshots beyond the newest maxSnapshots.
// Callers must hold the write lock. Failures are logged, not fatal.
func (m *Manager) pruneSnapshots() {
	snaps, err := m.listSnapshots()
	if err != nil {
		m.logger.Warn("listing snapshots for pruning", "error", err)
		return
	}
	if len(snaps) <= maxSnapshots {
		return
	}

	for _, old := range snaps[maxSnapshots:] {
		if err := os.RemoveAll(old.Path); err != nil {
			m.logger.Warn("removing old snapshot", "path", old.Path, "error", err)
			continue
		}
		m.logger.Info("pruned old snapshot", "path", old.Path)
	}
}

// replaceDir swaps dest's contents for src's.
func replaceDir(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return copyDir(src, dest)
}

// copyDir recursively copies a directory tree, preserving file modes.
func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}

		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

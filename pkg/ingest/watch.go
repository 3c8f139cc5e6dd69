package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch processes files as they land in the raw directory. It blocks
// until ctx is done or the watcher shuts down.
func (p *Pipeline) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.config.Paths.Raw); err != nil {
		return fmt.Errorf("watching %s: %w", p.config.Paths.Raw, err)
	}

	p.logger.Info("watching for new documents", "dir", p.config.Paths.Raw)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Rename covers tools that write to a temp name and move
			// the finished file into place.
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			p.handleWatchEvent(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}

// handleWatchEvent chunks, embeds, and stores one new file. Failures
// are logged; the watch keeps running.
func (p *Pipeline) handleWatchEvent(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}
	if !p.config.Loaders.Supported(name) {
		p.logger.Debug("ignoring unsupported file", "file", name)
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	fr, err := p.ProcessFile(ctx, path)
	if err != nil {
		p.logger.Error("processing watched file failed", "file", name, "error", err)
		return
	}

	chunks, err := ReadSidecar(p.config.Paths.Processed, name)
	if err != nil {
		p.logger.Error("reading sidecar failed", "file", name, "error", err)
		return
	}

	if _, _, err := p.writeChunks(ctx, chunks); err != nil {
		p.logger.Error("writing watched file to store failed", "file", name, "error", err)
		return
	}

	p.publishProcessed(ctx, fr)
}

package localfs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

// debounceInterval coalesces bursts of filesystem events (extracting
// an archive, a large copy) into one change notification.
const debounceInterval = 200 * time.Millisecond

// Watcher implements ports.DirectoryWatcher with fsnotify. Each
// WatchDirectory call owns its own underlying watcher; the caller
// replaces a watch by cancelling the previous context.
type Watcher struct{}

// Verify interface compliance at compile time
var _ ports.DirectoryWatcher = (*Watcher)(nil)

// NewWatcher creates a directory watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// WatchDirectory emits a debounced ChangeEvent whenever the directory's
// contents change. The channel closes when ctx ends.
func (w *Watcher) WatchDirectory(ctx context.Context, path string) (<-chan ports.ChangeEvent, error) {
	norm := domain.NormalizePath(path)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.FromSlash(norm)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", norm, err)
	}

	events := make(chan ports.ChangeEvent, 1)
	go func() {
		defer close(events)
		defer fsWatcher.Close()

		var lastEvent time.Time
		pending := false
		ticker := time.NewTicker(debounceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
					event.Has(fsnotify.Rename) || event.Has(fsnotify.Write) {
					lastEvent = time.Now()
					pending = true
				}

			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logging.Logger.Warn("directory watcher error", "path", norm, "error", err)

			case <-ticker.C:
				if pending && time.Since(lastEvent) >= debounceInterval {
					pending = false
					select {
					case events <- ports.ChangeEvent{Path: norm}:
					default:
					}
				}
			}
		}
	}()

	return events, nil
}

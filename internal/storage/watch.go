package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long Watch waits for writes to settle.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watch calls onChange whenever the file at path is written, created or
// replaced, until ctx is done. Bursts of events within debounce collapse
// into one call. The parent directory is watched so that WriteAll's
// rename-into-place is seen. An error from onChange is logged and watching
// continues.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", target, "error", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				logger.Error("handling change", "path", target, "error", err)
			}
		}
	}
}

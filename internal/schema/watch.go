package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads registry from file whenever it is written, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up too. A failed reload is logged and the previous schemas stay
// active.
func Watch(ctx context.Context, file string, registry *Registry, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating schema watcher: %w", err)
	}
	defer w.Close()

	file = filepath.Clean(file)
	if err := w.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(file), err)
	}
	logger.Info("watching schema override", "file", file)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != file || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := registry.ReloadFile(file); err != nil {
				logger.Error("schema reload failed", "file", file, "error", err)
				continue
			}
			logger.Info("schema reloaded", "file", file, "providers", registry.Names())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("schema watcher error", "error", err)
		}
	}
}

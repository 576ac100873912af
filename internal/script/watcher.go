package script

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile calls onChange whenever path is written, created or renamed into place.
// It watches the parent directory so editors that replace the file are still seen.
// The watcher stops when ctx is done.
func WatchFile(ctx context.Context, path string, onChange func(), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				logger.Debug("Script watcher stopped", "path", abs)
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					logger.Debug("Script file changed", "event", event.Op.String(), "path", abs)
					onChange()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("File system watcher error", "error", err)
			}
		}
	}()

	logger.Debug("Started file system watcher for script hot-reloading", "path", abs)
	return nil
}

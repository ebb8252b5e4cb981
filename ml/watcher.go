package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchArtifact logs a warning whenever the artifact file changes on disk.
// The loaded model is never swapped: a restart is needed to pick up a new
// artifact. It blocks until ctx is done.
func WatchArtifact(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating artifact watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: deploy tooling usually replaces the file by rename.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Warn("model artifact changed on disk, restart to load it",
				zap.String("path", path),
				zap.String("op", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

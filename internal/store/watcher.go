package store

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/meletis/propflow/internal/apperr"
)

// EventCallback is called after a watcher-driven document change.
// kind is currently always "deleted".
type EventCallback func(kind string, filename string)

// Watch starts an fsnotify watcher on the uploads directory and keeps
// the document table consistent with it until ctx is cancelled: when a
// stored file is removed or renamed away, its document row is deleted.
// cb (if non-nil) is called after each row removal.
func Watch(ctx context.Context, db *DB, uploadsDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(uploadsDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", uploadsDir))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)

			delErr := db.DeleteDocumentByFilename(ctx, name)
			switch {
			case errors.Is(delErr, apperr.ErrNotFound):
				// Not a tracked upload (temp file, stray drop). Ignore.
			case delErr != nil:
				logger.Warn("watcher: delete row failed",
					slog.String("file", name), slog.String("error", delErr.Error()))
			default:
				logger.Info("watcher: removed row for vanished file", slog.String("file", name))
				if cb != nil {
					cb("deleted", name)
				}
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/storage"
)

// Sweep reconciles the uploads directory with the document table:
//   - files with no document row are removed from disk
//   - document rows whose file is gone are deleted
//   - a file whose content no longer matches its recorded checksum is
//     kept but logged, so an operator can investigate
func Sweep(ctx context.Context, db *DB, files storage.Provider, logger *slog.Logger) error {
	names, err := files.List()
	if err != nil {
		return err
	}

	recorded, err := db.AllDocumentChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(names))
	for _, name := range names {
		disk[name] = struct{}{}

		want, ok := recorded[name]
		if !ok {
			if delErr := files.Delete(name); delErr != nil {
				logger.Warn("sweep: remove orphan failed",
					slog.String("file", name), slog.String("error", delErr.Error()))
			} else {
				logger.Info("sweep: removed orphan file", slog.String("file", name))
			}
			continue
		}

		got, csErr := files.Checksum(name)
		if csErr != nil {
			logger.Warn("sweep: checksum failed",
				slog.String("file", name), slog.String("error", csErr.Error()))
			continue
		}
		if got != want {
			logger.Warn("sweep: checksum mismatch", slog.String("file", name))
		}
	}

	// Remove rows whose file is gone.
	for name := range recorded {
		if _, ok := disk[name]; ok {
			continue
		}
		switch delErr := db.DeleteDocumentByFilename(ctx, name); {
		case delErr == nil:
			logger.Info("sweep: removed stale document row", slog.String("file", name))
		case !errors.Is(delErr, apperr.ErrNotFound):
			logger.Warn("sweep: delete stale row failed",
				slog.String("file", name), slog.String("error", delErr.Error()))
		}
	}

	return nil
}

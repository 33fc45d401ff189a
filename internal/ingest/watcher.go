package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tallyhq/tally/internal/store"
)

// settleDelay is how long a file must sit quiet in the inbox before it is
// picked up; writers that are still streaming keep resetting it.
const settleDelay = 500 * time.Millisecond

// Watch runs an fsnotify watcher on the inbox root until ctx is cancelled.
// Files are dropped into per-project sub-directories (inbox/<projectID>/x.md);
// once a file settles it is ingested and removed from the inbox. cb, if
// non-nil, is called after each successful ingest.
func Watch(ctx context.Context, svc *Service, db *store.DB, inboxRoot string, logger *slog.Logger, cb func(projectID, docID string)) error {
	if err := os.MkdirAll(inboxRoot, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, inboxRoot); err != nil {
		return err
	}

	logger.Info("ingest watcher: started", slog.String("inbox", inboxRoot))

	// pending maps a settling file path to its debounce deadline.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("ingest watcher: stopped")
			return nil

		case <-ticker.C:
			now := time.Now()
			for path, deadline := range pending {
				if now.Before(deadline) {
					continue
				}
				delete(pending, path)
				ingestFile(ctx, svc, db, inboxRoot, path, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("ingest watcher: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[ev.Name] = time.Now().Add(settleDelay)
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("ingest watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ingestFile reads one settled inbox file, resolves its project from the
// directory name, ingests it, and removes the original.
func ingestFile(ctx context.Context, svc *Service, db *store.DB, inboxRoot, path string, logger *slog.Logger, cb func(projectID, docID string)) {
	rel, err := filepath.Rel(inboxRoot, path)
	if err != nil {
		return
	}
	projectID := filepath.Dir(rel)
	if projectID == "." || projectID == "" {
		logger.Warn("ingest watcher: file outside a project dir", slog.String("path", rel))
		return
	}
	projectID = filepath.ToSlash(projectID)

	if _, err := db.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("ingest watcher: unknown project dir", slog.String("project_id", projectID))
		} else {
			logger.Warn("ingest watcher: project lookup failed", slog.String("error", err.Error()))
		}
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("ingest watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	doc, err := svc.Ingest(ctx, projectID, filepath.Base(path), data)
	if err != nil {
		logger.Warn("ingest watcher: ingest failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("ingest watcher: remove failed", slog.String("path", rel), slog.String("error", err.Error()))
	}

	logger.Info("ingest watcher: ingested",
		slog.String("project_id", projectID),
		slog.String("doc_id", doc.ID),
		slog.String("filename", doc.Filename))
	if cb != nil {
		cb(projectID, doc.ID)
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opsforge/envsync/internal/envfile"
)

const (
	// watchDebounceInterval is how often the watcher checks for pending
	// filesystem events to batch rapid writes into a single sync per file.
	watchDebounceInterval = 500 * time.Millisecond

	// watchSettleDelay is how long a file must be quiet before it syncs.
	watchSettleDelay = 300 * time.Millisecond
)

// Watcher monitors the local tree for env file changes and syncs each
// changed file to its remote coordinate.
type Watcher struct {
	root    string
	walker  *Walker
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a tree watcher syncing through walker.
func NewWatcher(root string, walker *Walker, logger *slog.Logger) *Watcher {
	return &Watcher{root: root, walker: walker, logger: logger}
}

// Watch blocks until the context is cancelled, syncing env files as
// they change. Directories are watched recursively; new directories are
// picked up as they appear.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	w.watcher = watcher
	defer watcher.Close()

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watching tree root: %w", err)
	}

	w.logger.Info("tree watcher started", slog.String("dir", w.root))

	// Debounce: batch rapid writes into a single sync per file.
	pending := make(map[string]time.Time)

	ticker := time.NewTicker(watchDebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				// A new directory needs its own watch. Use Lstat so
				// symlinks pointing outside the tree are not followed.
				if event.Has(fsnotify.Create) {
					info, err := os.Lstat(event.Name)
					if err == nil && info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
						_ = w.addRecursive(event.Name)
						continue
					}
				}

				if envfile.IsEnvFile(filepath.Base(event.Name)) {
					pending[event.Name] = time.Now()
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				// Deletions never propagate: remote keys are only ever
				// added or updated from local files.
				delete(pending, event.Name)
				removeWatch(watcher, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}

			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) < watchSettleDelay {
					continue
				}

				delete(pending, path)
				w.syncChanged(ctx, path)
			}
		}
	}
}

func (w *Watcher) syncChanged(ctx context.Context, absPath string) {
	if _, err := os.Stat(absPath); err != nil {
		return
	}

	stats := w.walker.SyncFile(ctx, absPath)

	w.logger.Info("synced changed file",
		slog.String("file", absPath),
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("failed", stats.Failed))
}

// removeWatch drops the watch on name when one exists and reports
// whether it did. Only directories are ever watched, so removed files
// have nothing to drop.
func removeWatch(w *fsnotify.Watcher, name string) bool {
	if !slices.Contains(w.WatchList(), name) {
		return false
	}

	return w.Remove(name) == nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if w.shouldIgnore(path) && path != dir {
			return filepath.SkipDir
		}

		if d.Type()&os.ModeSymlink != 0 {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}

	return false
}

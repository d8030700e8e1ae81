package syncer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/opsforge/envsync/internal/envfile"
)

// ServiceInfo describes one service directory found in the tree: its
// remote folder path and which environments have a file for it.
type ServiceInfo struct {
	Path         string
	Environments []string
}

// HasEnvironment reports whether the service has a local file for env.
func (s ServiceInfo) HasEnvironment(env string) bool {
	return slices.Contains(s.Environments, env)
}

// Walker traverses the local tree in lexicographic order, syncing each
// env file to its remote coordinate.
type Walker struct {
	root         string
	environments []string
	mapper       *Mapper
	folders      *Folders
	reconciler   *Reconciler
	logger       *slog.Logger
}

// NewWalker returns a walker over the tree at root.
func NewWalker(root string, environments []string, mapper *Mapper, folders *Folders, reconciler *Reconciler, logger *slog.Logger) *Walker {
	return &Walker{
		root:         root,
		environments: environments,
		mapper:       mapper,
		folders:      folders,
		reconciler:   reconciler,
		logger:       logger,
	}
}

// SyncShared walks the shared namespace for every environment and
// reconciles each group file into its remote folder.
func (w *Walker) SyncShared(ctx context.Context) Stats {
	var stats Stats

	for _, env := range w.environments {
		dir := filepath.Join(w.root, SharedNamespace, env)
		if !dirExists(dir) {
			continue
		}

		stats.Merge(w.syncSharedDir(ctx, env, dir, "/"+SharedNamespace))
	}

	return stats
}

// syncSharedDir reconciles one shared directory: each <name>.env file
// becomes the folder remoteBase/<name>, and subdirectories recurse with
// their name appended to the base.
func (w *Walker) syncSharedDir(ctx context.Context, env, dir, remoteBase string) Stats {
	var stats Stats

	files, subdirs := listSorted(dir)

	for _, name := range files {
		remotePath := remoteBase + "/" + envfile.Stem(name)
		stats.Merge(w.syncOne(ctx, filepath.Join(dir, name), env, remotePath))
	}

	for _, name := range subdirs {
		stats.Merge(w.syncSharedDir(ctx, env, filepath.Join(dir, name), remoteBase+"/"+name))
	}

	return stats
}

// SyncServices walks the services namespace, reconciling each service's
// env files, and returns the discovered services alongside the stats.
func (w *Walker) SyncServices(ctx context.Context) ([]ServiceInfo, Stats) {
	var (
		services []ServiceInfo
		stats    Stats
	)

	w.walkServices(filepath.Join(w.root, ServicesNamespace), func(dir string, info ServiceInfo) {
		services = append(services, info)

		for _, env := range info.Environments {
			file := filepath.Join(dir, env+envfile.Extension)
			stats.Merge(w.syncOne(ctx, file, env, info.Path))
		}
	})

	return services, stats
}

// ScanServices discovers the services in the tree without touching the
// remote store.
func (w *Walker) ScanServices() []ServiceInfo {
	var services []ServiceInfo

	w.walkServices(filepath.Join(w.root, ServicesNamespace), func(_ string, info ServiceInfo) {
		services = append(services, info)
	})

	return services
}

// walkServices visits every directory under the services namespace that
// holds at least one env-named file, depth-first in lexicographic
// order.
func (w *Walker) walkServices(dir string, visit func(dir string, info ServiceInfo)) {
	if !dirExists(dir) {
		return
	}

	files, subdirs := listSorted(dir)

	var present []string

	for _, env := range w.environments {
		if slices.Contains(files, env+envfile.Extension) {
			present = append(present, env)
		}
	}

	if len(present) > 0 {
		rel, err := filepath.Rel(w.root, dir)
		if err == nil {
			visit(dir, ServiceInfo{
				Path:         "/" + filepath.ToSlash(rel),
				Environments: present,
			})
		}
	}

	for _, name := range subdirs {
		w.walkServices(filepath.Join(dir, name), visit)
	}
}

// SyncFile maps one local file to its coordinate and reconciles it. A
// file outside the coordinate grammar counts as one failure.
func (w *Walker) SyncFile(ctx context.Context, file string) Stats {
	coord, err := w.mapper.MapFile(file)
	if err != nil {
		if errors.Is(err, ErrInvalidCoordinate) {
			w.logger.Warn("Skipping file with no remote coordinate", "file", file, "error", err)
		} else {
			w.logger.Warn("Failed to map file", "file", file, "error", err)
		}

		return Stats{Failed: 1}
	}

	if !filepath.IsAbs(file) {
		file = filepath.Join(w.root, file)
	}

	return w.syncOne(ctx, file, coord.Environment, coord.Path)
}

// SyncPath reconciles the local files feeding one remote folder path,
// optionally recursing into the subtree beneath it.
func (w *Walker) SyncPath(ctx context.Context, remotePath string, recursive bool) Stats {
	targets, err := w.mapper.FilesForPath(remotePath, recursive)
	if err != nil {
		w.logger.Warn("Failed to resolve path to local files", "path", remotePath, "error", err)

		return Stats{Failed: 1}
	}

	if len(targets) == 0 {
		w.logger.Warn("No local files found for path", "path", remotePath, "recursive", recursive)

		return Stats{}
	}

	var stats Stats

	for _, t := range targets {
		stats.Merge(w.syncOne(ctx, t.File, t.Environment, t.Path))
	}

	return stats
}

// syncOne parses one env file, ensures its remote folder, and applies
// the keys. Folder ensure failure fails every key in the file.
func (w *Walker) syncOne(ctx context.Context, file, env, remotePath string) Stats {
	desired, err := envfile.Parse(file)
	if err != nil {
		w.logger.Warn("Failed to parse env file", "file", file, "error", err)

		return Stats{Failed: 1}
	}

	if len(desired) == 0 {
		return Stats{}
	}

	w.logger.Debug("Syncing file", "file", file, "environment", env, "path", remotePath, "keys", len(desired))

	if err := w.folders.EnsurePath(ctx, env, remotePath); err != nil {
		w.logger.Warn("Failed to ensure folder path",
			"environment", env, "path", remotePath, "error", err)

		return Stats{Failed: len(desired)}
	}

	return w.reconciler.Apply(ctx, env, remotePath, desired)
}

// listSorted returns the visible file and directory names in dir, each
// sorted lexicographically. Env files only; hidden entries skipped.
func listSorted(dir string) (files, subdirs []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if e.IsDir() {
			subdirs = append(subdirs, name)
		} else if envfile.IsEnvFile(name) {
			files = append(files, name)
		}
	}

	sort.Strings(files)
	sort.Strings(subdirs)

	return files, subdirs
}

func dirExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

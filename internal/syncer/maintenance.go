package syncer

import (
	"context"
	"log/slog"

	"github.com/opsforge/envsync/internal/infisical"
)

// CleanupStats summarizes a deprecated-path cleanup run.
type CleanupStats struct {
	Deleted int
	Absent  int
	Failed  int
}

// Maintenance holds the destructive tree operations: deprecated-path
// cleanup and full purge.
type Maintenance struct {
	store        Store
	folders      *Folders
	linker       *Linker
	logger       *slog.Logger
	environments []string
	dryRun       bool
}

// NewMaintenance returns the maintenance operations over store.
func NewMaintenance(store Store, folders *Folders, linker *Linker, environments []string, logger *slog.Logger, dryRun bool) *Maintenance {
	return &Maintenance{
		store:        store,
		folders:      folders,
		linker:       linker,
		logger:       logger,
		environments: environments,
		dryRun:       dryRun,
	}
}

// Cleanup deletes each deprecated remote path from every environment.
// Paths that are already gone count as absent, not failures.
func (m *Maintenance) Cleanup(ctx context.Context, paths []string) CleanupStats {
	var stats CleanupStats

	for _, remotePath := range paths {
		for _, env := range m.environments {
			deleted, err := m.folders.DeleteRecursive(ctx, env, remotePath)

			switch {
			case err != nil:
				m.logger.Warn("Failed to delete deprecated path",
					"environment", env, "path", remotePath, "error", err)

				stats.Failed++
			case deleted:
				stats.Deleted++
			default:
				stats.Absent++
			}
		}
	}

	return stats
}

// Purge removes everything under the project root in every environment:
// root-level secrets, root-level imports, then each top-level folder
// recursively. Used before a full resync to start from a clean slate.
func (m *Maintenance) Purge(ctx context.Context) error {
	for _, env := range m.environments {
		if err := m.purgeEnvironment(ctx, env); err != nil {
			return err
		}
	}

	return nil
}

func (m *Maintenance) purgeEnvironment(ctx context.Context, env string) error {
	m.logger.Info("Purging environment", "environment", env, "dry_run", m.dryRun)

	secrets, err := m.store.ListSecrets(ctx, env, "/", false)
	if err != nil && !infisical.IsNotFound(err) {
		m.logger.Warn("Failed to list root secrets", "environment", env, "error", err)
	}

	for _, s := range secrets {
		if m.dryRun {
			m.logger.Info("Would delete secret", "environment", env, "path", "/", "key", s.Key)

			continue
		}

		if err := m.store.DeleteSecret(ctx, env, "/", s.Key); err != nil && !infisical.IsNotFound(err) {
			m.logger.Warn("Failed to delete secret",
				"environment", env, "path", "/", "key", s.Key, "error", err)
		}
	}

	m.linker.DeleteAll(ctx, env, "/")

	folders, err := m.store.ListFolders(ctx, env, "/")
	if err != nil && !infisical.IsNotFound(err) {
		m.logger.Warn("Failed to list root folders", "environment", env, "error", err)
	}

	for _, folder := range folders {
		if _, err := m.folders.DeleteRecursive(ctx, env, "/"+folder.Name); err != nil {
			m.logger.Warn("Failed to delete folder tree",
				"environment", env, "path", "/"+folder.Name, "error", err)
		}
	}

	return nil
}

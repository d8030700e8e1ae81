package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsforge/envsync/internal/infisical"
)

// ImportState is the outcome of ensuring one import edge.
type ImportState int

const (
	ImportExists ImportState = iota
	ImportCreated
)

// Linker manages secret import edges between environments: the base
// environment's folder is imported into the same folder of each derived
// environment, so shared values are defined once.
type Linker struct {
	store  Store
	logger *slog.Logger
	dryRun bool
}

// NewLinker returns a linker writing through store.
func NewLinker(store Store, logger *slog.Logger, dryRun bool) *Linker {
	return &Linker{store: store, logger: logger, dryRun: dryRun}
}

// EnsureImport makes (sourceEnv, sourcePath) imported at (environment,
// remotePath). An edge that already exists is left alone, so the
// operation is idempotent.
func (l *Linker) EnsureImport(ctx context.Context, environment, remotePath, sourceEnv, sourcePath string) (ImportState, error) {
	imports, err := l.store.ListImports(ctx, environment, remotePath)
	if err != nil && !infisical.IsNotFound(err) {
		return ImportExists, fmt.Errorf("listing imports at %s: %w", remotePath, err)
	}

	for _, imp := range imports {
		if imp.Environment == sourceEnv && normalizePath(imp.Path) == normalizePath(sourcePath) {
			return ImportExists, nil
		}
	}

	if l.dryRun {
		l.logger.Info("Would create import",
			"environment", environment, "path", remotePath,
			"source_environment", sourceEnv, "source_path", sourcePath)

		return ImportCreated, nil
	}

	if err := l.store.CreateImport(ctx, environment, remotePath, sourceEnv, sourcePath); err != nil {
		return ImportExists, fmt.Errorf("creating import at %s from %s:%s: %w", remotePath, sourceEnv, sourcePath, err)
	}

	l.logger.Info("Created import",
		"environment", environment, "path", remotePath,
		"source_environment", sourceEnv, "source_path", sourcePath)

	return ImportCreated, nil
}

// DeleteAll removes every import at the coordinate, best effort, and
// returns how many were deleted.
func (l *Linker) DeleteAll(ctx context.Context, environment, remotePath string) int {
	imports, err := l.store.ListImports(ctx, environment, remotePath)
	if err != nil {
		if !infisical.IsNotFound(err) {
			l.logger.Warn("Failed to list imports",
				"environment", environment, "path", remotePath, "error", err)
		}

		return 0
	}

	deleted := 0

	for _, imp := range imports {
		if l.dryRun {
			l.logger.Info("Would delete import",
				"environment", environment, "path", remotePath, "import_id", imp.ID)

			deleted++

			continue
		}

		if err := l.store.DeleteImport(ctx, environment, remotePath, imp.ID); err != nil {
			if !infisical.IsNotFound(err) {
				l.logger.Warn("Failed to delete import",
					"environment", environment, "path", remotePath, "import_id", imp.ID, "error", err)
			}

			continue
		}

		deleted++
	}

	return deleted
}

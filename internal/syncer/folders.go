package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsforge/envsync/internal/infisical"
)

// maxFolderDepth bounds recursive folder deletion against cyclic or
// pathological listings.
const maxFolderDepth = 32

// Folders manages remote folder lifecycle: idempotent path creation and
// recursive deletion.
type Folders struct {
	store  Store
	logger *slog.Logger
	dryRun bool
}

// NewFolders returns a folder manager writing through store.
func NewFolders(store Store, logger *slog.Logger, dryRun bool) *Folders {
	return &Folders{store: store, logger: logger, dryRun: dryRun}
}

// EnsurePath creates every missing folder along remotePath, top-down.
// Existing segments are left untouched, so repeated calls are
// idempotent.
func (f *Folders) EnsurePath(ctx context.Context, environment, remotePath string) error {
	parts := splitPath(remotePath)
	current := "/"

	for _, name := range parts {
		folders, err := f.store.ListFolders(ctx, environment, current)
		if err != nil && !infisical.IsNotFound(err) {
			return fmt.Errorf("listing folders at %s: %w", current, err)
		}

		if folderID(folders, name) == "" {
			if f.dryRun {
				f.logger.Info("Would create folder",
					"environment", environment, "parent", current, "name", name)
			} else {
				if err := f.store.CreateFolder(ctx, environment, current, name); err != nil {
					return fmt.Errorf("creating folder %s under %s: %w", name, current, err)
				}

				f.logger.Info("Created folder",
					"environment", environment, "parent", current, "name", name)
			}
		}

		current = joinPath(current, name)
	}

	return nil
}

// DeleteRecursive removes the folder at remotePath and everything in
// it: imports first, then secrets, then child folders depth-first, then
// the folder itself. A folder that does not exist is not an error; the
// return value reports whether anything was deleted. In dry-run mode it
// only checks existence.
func (f *Folders) DeleteRecursive(ctx context.Context, environment, remotePath string) (bool, error) {
	remotePath = normalizePath(remotePath)
	if remotePath == "/" {
		return false, fmt.Errorf("refusing to delete the project root")
	}

	id, err := f.lookup(ctx, environment, remotePath)
	if err != nil {
		return false, err
	}

	if id == "" {
		return false, nil
	}

	if f.dryRun {
		f.logger.Info("Would delete folder recursively",
			"environment", environment, "path", remotePath)

		return true, nil
	}

	return true, f.deleteTree(ctx, environment, remotePath, id, 0)
}

func (f *Folders) deleteTree(ctx context.Context, environment, remotePath, id string, depth int) error {
	if depth >= maxFolderDepth {
		return fmt.Errorf("folder tree at %s deeper than %d levels", remotePath, maxFolderDepth)
	}

	f.deleteImports(ctx, environment, remotePath)
	f.deleteSecrets(ctx, environment, remotePath)

	children, err := f.store.ListFolders(ctx, environment, remotePath)
	if err != nil && !infisical.IsNotFound(err) {
		return fmt.Errorf("listing folders at %s: %w", remotePath, err)
	}

	for _, child := range children {
		if err := f.deleteTree(ctx, environment, joinPath(remotePath, child.Name), child.ID, depth+1); err != nil {
			return err
		}
	}

	parent := parentPath(remotePath)

	if err := f.store.DeleteFolder(ctx, environment, id, parent); err != nil && !infisical.IsNotFound(err) {
		return fmt.Errorf("deleting folder %s: %w", remotePath, err)
	}

	f.logger.Info("Deleted folder", "environment", environment, "path", remotePath)

	return nil
}

// deleteImports removes all imports at the coordinate, best effort.
func (f *Folders) deleteImports(ctx context.Context, environment, remotePath string) {
	imports, err := f.store.ListImports(ctx, environment, remotePath)
	if err != nil {
		if !infisical.IsNotFound(err) {
			f.logger.Warn("Failed to list imports for deletion",
				"environment", environment, "path", remotePath, "error", err)
		}

		return
	}

	for _, imp := range imports {
		if err := f.store.DeleteImport(ctx, environment, remotePath, imp.ID); err != nil && !infisical.IsNotFound(err) {
			f.logger.Warn("Failed to delete import",
				"environment", environment, "path", remotePath, "import_id", imp.ID, "error", err)
		}
	}
}

// deleteSecrets removes all secrets at the coordinate, best effort.
func (f *Folders) deleteSecrets(ctx context.Context, environment, remotePath string) {
	secrets, err := f.store.ListSecrets(ctx, environment, remotePath, false)
	if err != nil {
		if !infisical.IsNotFound(err) {
			f.logger.Warn("Failed to list secrets for deletion",
				"environment", environment, "path", remotePath, "error", err)
		}

		return
	}

	for _, s := range secrets {
		if err := f.store.DeleteSecret(ctx, environment, remotePath, s.Key); err != nil && !infisical.IsNotFound(err) {
			f.logger.Warn("Failed to delete secret",
				"environment", environment, "path", remotePath, "key", s.Key, "error", err)
		}
	}
}

// lookup finds the folder's ID by listing its parent's children.
// Returns empty when the folder (or any ancestor) does not exist.
func (f *Folders) lookup(ctx context.Context, environment, remotePath string) (string, error) {
	parent := parentPath(remotePath)
	name := remotePath[strings.LastIndex(remotePath, "/")+1:]

	folders, err := f.store.ListFolders(ctx, environment, parent)
	if err != nil {
		if infisical.IsNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("listing folders at %s: %w", parent, err)
	}

	return folderID(folders, name), nil
}

func folderID(folders []infisical.Folder, name string) string {
	for _, folder := range folders {
		if folder.Name == name {
			return folder.ID
		}
	}

	return ""
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}

	return parent + "/" + name
}

func parentPath(remotePath string) string {
	idx := strings.LastIndex(remotePath, "/")
	if idx <= 0 {
		return "/"
	}

	return remotePath[:idx]
}

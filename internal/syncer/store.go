// Package syncer reconciles the local configuration tree against the
// remote secret store: mapping coordinates between the two topologies,
// diffing key sets additively, managing folder and import lifecycle,
// and walking the whole tree while aggregating per-key statistics.
package syncer

import (
	"context"

	"github.com/opsforge/envsync/internal/infisical"
)

// Store is the remote store surface the sync engine depends on.
// *infisical.Client satisfies it; tests substitute a mock. Every call is
// a blocking request/response; any non-success response fails that one
// call only.
type Store interface {
	ListEnvironments(ctx context.Context) ([]infisical.Environment, error)
	CreateEnvironment(ctx context.Context, name, slug string, position int) error
	DeleteEnvironment(ctx context.Context, slug string) error

	ListSecrets(ctx context.Context, environment, path string, expand bool) ([]infisical.Secret, error)
	CreateSecret(ctx context.Context, environment, path, key, value string) error
	UpdateSecret(ctx context.Context, environment, path, key, value string) error
	DeleteSecret(ctx context.Context, environment, path, key string) error

	ListFolders(ctx context.Context, environment, path string) ([]infisical.Folder, error)
	CreateFolder(ctx context.Context, environment, parentPath, name string) error
	DeleteFolder(ctx context.Context, environment, folderID, parentPath string) error

	ListImports(ctx context.Context, environment, path string) ([]infisical.SecretImport, error)
	CreateImport(ctx context.Context, environment, path, sourceEnv, sourcePath string) error
	DeleteImport(ctx context.Context, environment, path, importID string) error
}

// Stats aggregates per-key reconciliation outcomes. Merging is
// commutative, so subtree totals are independent of traversal order.
type Stats struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

// Merge adds other's counts into s.
func (s *Stats) Merge(other Stats) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Failed += other.Failed
}

// Total returns the number of keys classified.
func (s Stats) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.Failed
}

// Changed reports whether any key needs (or needed) a write.
func (s Stats) Changed() bool {
	return s.Created > 0 || s.Updated > 0
}

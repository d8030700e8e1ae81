package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/opsforge/envsync/internal/infisical"
)

func TestEnsurePath_CreatesMissingSegments(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	gomock.InOrder(
		store.EXPECT().ListFolders(gomock.Any(), "prod", "/").
			Return([]infisical.Folder{{ID: "f1", Name: "services"}}, nil),
		store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").
			Return(nil, nil),
		store.EXPECT().CreateFolder(gomock.Any(), "prod", "/services", "api").Return(nil),
	)

	f := NewFolders(store, testLogger, false)
	require.NoError(t, f.EnsurePath(context.Background(), "prod", "/services/api"))
}

func TestEnsurePath_AllPresentIsReadOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListFolders(gomock.Any(), "prod", "/").
		Return([]infisical.Folder{{ID: "f1", Name: "services"}}, nil)
	store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").
		Return([]infisical.Folder{{ID: "f2", Name: "api"}}, nil)

	f := NewFolders(store, testLogger, false)
	require.NoError(t, f.EnsurePath(context.Background(), "prod", "/services/api"))
}

func TestEnsurePath_RootIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	f := NewFolders(store, testLogger, false)
	require.NoError(t, f.EnsurePath(context.Background(), "prod", "/"))
}

func TestEnsurePath_DryRunNeverCreates(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListFolders(gomock.Any(), "prod", "/").Return(nil, nil)
	store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").Return(nil, infisical.ErrNotFound)

	f := NewFolders(store, testLogger, true)
	require.NoError(t, f.EnsurePath(context.Background(), "prod", "/services/api"))
}

func TestDeleteRecursive_Ordering(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	// /services/api holds one import, one secret, and one child folder
	// that itself holds a secret. Deletion must drain imports, then
	// secrets, then children depth-first, then the folder itself.
	store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").
		Return([]infisical.Folder{{ID: "api-id", Name: "api"}}, nil)

	gomock.InOrder(
		store.EXPECT().ListImports(gomock.Any(), "prod", "/services/api").
			Return([]infisical.SecretImport{{ID: "imp-1"}}, nil),
		store.EXPECT().DeleteImport(gomock.Any(), "prod", "/services/api", "imp-1").Return(nil),
		store.EXPECT().ListSecrets(gomock.Any(), "prod", "/services/api", false).
			Return([]infisical.Secret{{Key: "A"}}, nil),
		store.EXPECT().DeleteSecret(gomock.Any(), "prod", "/services/api", "A").Return(nil),
		store.EXPECT().ListFolders(gomock.Any(), "prod", "/services/api").
			Return([]infisical.Folder{{ID: "sub-id", Name: "sub"}}, nil),

		store.EXPECT().ListImports(gomock.Any(), "prod", "/services/api/sub").Return(nil, nil),
		store.EXPECT().ListSecrets(gomock.Any(), "prod", "/services/api/sub", false).
			Return([]infisical.Secret{{Key: "B"}}, nil),
		store.EXPECT().DeleteSecret(gomock.Any(), "prod", "/services/api/sub", "B").Return(nil),
		store.EXPECT().ListFolders(gomock.Any(), "prod", "/services/api/sub").Return(nil, nil),
		store.EXPECT().DeleteFolder(gomock.Any(), "prod", "sub-id", "/services/api").Return(nil),

		store.EXPECT().DeleteFolder(gomock.Any(), "prod", "api-id", "/services").Return(nil),
	)

	f := NewFolders(store, testLogger, false)

	deleted, err := f.DeleteRecursive(context.Background(), "prod", "/services/api")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestDeleteRecursive_MissingFolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").Return(nil, nil)

	f := NewFolders(store, testLogger, false)

	deleted, err := f.DeleteRecursive(context.Background(), "prod", "/services/gone")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteRecursive_NotFoundOnDeleteSuppressed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListFolders(gomock.Any(), "prod", "/").
		Return([]infisical.Folder{{ID: "x-id", Name: "x"}}, nil)
	store.EXPECT().ListImports(gomock.Any(), "prod", "/x").Return(nil, infisical.ErrNotFound)
	store.EXPECT().ListSecrets(gomock.Any(), "prod", "/x", false).Return(nil, infisical.ErrNotFound)
	store.EXPECT().ListFolders(gomock.Any(), "prod", "/x").Return(nil, infisical.ErrNotFound)
	store.EXPECT().DeleteFolder(gomock.Any(), "prod", "x-id", "/").Return(infisical.ErrNotFound)

	f := NewFolders(store, testLogger, false)

	deleted, err := f.DeleteRecursive(context.Background(), "prod", "/x")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestDeleteRecursive_RefusesRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	f := NewFolders(store, testLogger, false)

	_, err := f.DeleteRecursive(context.Background(), "prod", "/")
	assert.Error(t, err)
}

func TestDeleteRecursive_DryRunOnlyChecksExistence(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListFolders(gomock.Any(), "prod", "/services").
		Return([]infisical.Folder{{ID: "api-id", Name: "api"}}, nil)

	f := NewFolders(store, testLogger, true)

	deleted, err := f.DeleteRecursive(context.Background(), "prod", "/services/api")
	require.NoError(t, err)
	assert.True(t, deleted)
}

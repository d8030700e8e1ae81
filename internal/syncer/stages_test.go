package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/opsforge/envsync/internal/infisical"
)

var testSpecs = []EnvironmentSpec{
	{Name: "Common", Slug: "common", Position: 1},
	{Name: "Production", Slug: "prod", Position: 2},
	{Name: "Staging", Slug: "staging", Position: 3},
}

func TestStageOrder(t *testing.T) {
	order := StageOrder()

	assert.Equal(t, []Stage{StageEnvironments, StageShared, StageServices, StageImports}, order)

	// Every stage appears after all of its dependencies.
	position := make(map[Stage]int, len(order))
	for i, stage := range order {
		position[stage] = i
	}

	for stage, deps := range stageDeps {
		for _, dep := range deps {
			assert.Less(t, position[dep], position[stage],
				"stage %s must run after %s", stage, dep)
		}
	}
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("imports")
	require.NoError(t, err)
	assert.Equal(t, StageImports, stage)

	_, err = ParseStage("bogus")
	assert.Error(t, err)
}

func newTestPipeline(store Store, walker *Walker, dryRun bool) *Pipeline {
	linker := NewLinker(store, testLogger, dryRun)

	return NewPipeline(store, walker, linker, testSpecs, testLogger, dryRun)
}

func TestEnvironmentsStage_CreatesMissingAndDeletesLegacy(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListEnvironments(gomock.Any()).Return([]infisical.Environment{
		{ID: "e1", Slug: "dev", Name: "Development"},
		{ID: "e2", Slug: "common", Name: "Common"},
	}, nil)
	store.EXPECT().DeleteEnvironment(gomock.Any(), "dev").Return(nil)
	store.EXPECT().CreateEnvironment(gomock.Any(), "Production", "prod", 2).Return(nil)
	store.EXPECT().CreateEnvironment(gomock.Any(), "Staging", "staging", 3).Return(nil)

	p := newTestPipeline(store, newTestWalker(t.TempDir(), store, false), false)

	_, err := p.Run(context.Background(), StageEnvironments)
	require.NoError(t, err)
}

func TestEnvironmentsStage_AllPresentIsReadOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListEnvironments(gomock.Any()).Return([]infisical.Environment{
		{Slug: "common"}, {Slug: "prod"}, {Slug: "staging"},
	}, nil)

	p := newTestPipeline(store, newTestWalker(t.TempDir(), store, false), false)

	_, err := p.Run(context.Background(), StageEnvironments)
	require.NoError(t, err)
}

func TestEnvironmentsStage_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	store.EXPECT().ListEnvironments(gomock.Any()).Return([]infisical.Environment{
		{Slug: "dev"},
	}, nil)

	p := newTestPipeline(store, newTestWalker(t.TempDir(), store, false), true)

	_, err := p.Run(context.Background(), StageEnvironments)
	require.NoError(t, err)
}

func TestImportsStage_LinksDerivedEnvironments(t *testing.T) {
	root := writeTreeFiles(t, map[string]string{
		"services/api/common.env":  "PORT=8080\n",
		"services/api/prod.env":    "PORT=9090\n",
		"services/api/staging.env": "PORT=9091\n",
		"services/web/prod.env":    "PORT=3000\n",
	})

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	// api has a base file, so prod and staging each get an import edge.
	// web has no base file and is skipped entirely.
	store.EXPECT().ListImports(gomock.Any(), "prod", "/services/api").Return(nil, nil)
	store.EXPECT().CreateImport(gomock.Any(), "prod", "/services/api", "common", "/services/api").Return(nil)
	store.EXPECT().ListImports(gomock.Any(), "staging", "/services/api").Return([]infisical.SecretImport{
		{ID: "imp-1", Environment: "common", Path: "/services/api"},
	}, nil)

	p := newTestPipeline(store, newTestWalker(root, store, false), false)

	result, err := p.Run(context.Background(), StageImports)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Created: 1, Existing: 1}, result.Imports)
}

func TestImportsStage_ReusesServicesFromSameRun(t *testing.T) {
	root := writeTreeFiles(t, map[string]string{
		"services/api/common.env": "PORT=8080\n",
		"services/api/prod.env":   "PORT=9090\n",
	})

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	for _, env := range []string{"common", "prod"} {
		store.EXPECT().ListFolders(gomock.Any(), env, gomock.Any()).Return(nil, nil).AnyTimes()
		store.EXPECT().CreateFolder(gomock.Any(), env, gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		store.EXPECT().ListSecrets(gomock.Any(), env, "/services/api", false).Return(nil, nil)
		store.EXPECT().CreateSecret(gomock.Any(), env, "/services/api", "PORT", gomock.Any()).Return(nil)
	}

	store.EXPECT().ListImports(gomock.Any(), "prod", "/services/api").Return(nil, nil)
	store.EXPECT().CreateImport(gomock.Any(), "prod", "/services/api", "common", "/services/api").Return(nil)

	p := newTestPipeline(store, newTestWalker(root, store, false), false)

	var result Result

	require.NoError(t, p.runStage(context.Background(), StageServices, &result))
	require.NoError(t, p.runStage(context.Background(), StageImports, &result))

	assert.Equal(t, Stats{Created: 2}, result.Secrets)
	assert.Equal(t, ImportStats{Created: 1}, result.Imports)
}

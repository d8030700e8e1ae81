package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/opsforge/envsync/internal/infisical"
)

// Stage is one phase of a full sync run.
type Stage string

const (
	StageEnvironments Stage = "environments"
	StageShared       Stage = "shared"
	StageServices     Stage = "services"
	StageImports      Stage = "imports"
)

// legacyEnvironmentSlug is the stock environment provisioned with new
// projects. The environments stage removes it so only configured
// environments remain.
const legacyEnvironmentSlug = "dev"

// stageDeps is the stage dependency graph: a stage runs only after the
// stages it depends on. Shared and service secrets need the
// environments to exist; imports link folders the services stage
// creates.
var stageDeps = map[Stage][]Stage{
	StageEnvironments: {},
	StageShared:       {StageEnvironments},
	StageServices:     {StageEnvironments},
	StageImports:      {StageServices},
}

// EnvironmentSpec describes one environment the pipeline ensures.
type EnvironmentSpec struct {
	Name     string
	Slug     string
	Position int
}

// ImportStats counts import edges touched by the imports stage.
type ImportStats struct {
	Created  int
	Existing int
}

// Result is the aggregate outcome of a pipeline run.
type Result struct {
	Secrets Stats
	Imports ImportStats
}

// Pipeline runs the sync stages in dependency order.
type Pipeline struct {
	store        Store
	walker       *Walker
	linker       *Linker
	logger       *slog.Logger
	environments []EnvironmentSpec
	dryRun       bool

	// services discovered by the services stage, reused by the imports
	// stage within the same run.
	services []ServiceInfo
	scanned  bool
}

// NewPipeline returns a pipeline over the given stores and walkers.
// environments must be in position order; the first is the base
// environment imports draw from.
func NewPipeline(store Store, walker *Walker, linker *Linker, environments []EnvironmentSpec, logger *slog.Logger, dryRun bool) *Pipeline {
	return &Pipeline{
		store:        store,
		walker:       walker,
		linker:       linker,
		logger:       logger,
		environments: environments,
		dryRun:       dryRun,
	}
}

// stageRank fixes tie-breaking between independent stages so the run
// order is stable.
var stageRank = map[Stage]int{
	StageEnvironments: 0,
	StageShared:       1,
	StageServices:     2,
	StageImports:      3,
}

// StageOrder returns all stages topologically sorted by stageDeps, with
// rank tie-breaking so the order is stable.
func StageOrder() []Stage {
	indegree := make(map[Stage]int, len(stageDeps))
	dependents := make(map[Stage][]Stage, len(stageDeps))

	for stage, deps := range stageDeps {
		indegree[stage] += 0

		for _, dep := range deps {
			indegree[stage]++
			dependents[dep] = append(dependents[dep], stage)
		}
	}

	var ready []Stage

	for stage, n := range indegree {
		if n == 0 {
			ready = append(ready, stage)
		}
	}

	order := make([]Stage, 0, len(stageDeps))

	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return stageRank[ready[i]] < stageRank[ready[j]] })

		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	return order
}

// ParseStage validates a stage name from the command line.
func ParseStage(name string) (Stage, error) {
	stage := Stage(name)
	if _, ok := stageDeps[stage]; !ok {
		return "", fmt.Errorf("unknown stage %q (stages: %v)", name, StageOrder())
	}

	return stage, nil
}

// RunAll executes every stage in dependency order.
func (p *Pipeline) RunAll(ctx context.Context) (Result, error) {
	var result Result

	for _, stage := range StageOrder() {
		if err := p.runStage(ctx, stage, &result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// Run executes a single stage. Its dependencies are assumed satisfied
// by earlier runs.
func (p *Pipeline) Run(ctx context.Context, stage Stage) (Result, error) {
	var result Result

	err := p.runStage(ctx, stage, &result)

	return result, err
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, result *Result) error {
	p.logger.Info("Running stage", "stage", string(stage), "dry_run", p.dryRun)

	switch stage {
	case StageEnvironments:
		return p.ensureEnvironments(ctx)
	case StageShared:
		result.Secrets.Merge(p.walker.SyncShared(ctx))

		return nil
	case StageServices:
		services, stats := p.walker.SyncServices(ctx)
		p.services = services
		p.scanned = true
		result.Secrets.Merge(stats)

		return nil
	case StageImports:
		stats, err := p.ensureImports(ctx)
		result.Imports.Created += stats.Created
		result.Imports.Existing += stats.Existing

		return err
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// ensureEnvironments creates every configured environment that is
// missing and removes the stock legacy one.
func (p *Pipeline) ensureEnvironments(ctx context.Context) error {
	existing, err := p.store.ListEnvironments(ctx)
	if err != nil {
		return fmt.Errorf("listing environments: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, env := range existing {
		present[env.Slug] = true
	}

	if present[legacyEnvironmentSlug] {
		if p.dryRun {
			p.logger.Info("Would delete legacy environment", "slug", legacyEnvironmentSlug)
		} else if err := p.store.DeleteEnvironment(ctx, legacyEnvironmentSlug); err != nil && !infisical.IsNotFound(err) {
			p.logger.Warn("Failed to delete legacy environment",
				"slug", legacyEnvironmentSlug, "error", err)
		} else {
			p.logger.Info("Deleted legacy environment", "slug", legacyEnvironmentSlug)
		}
	}

	for _, spec := range p.environments {
		if present[spec.Slug] {
			continue
		}

		if p.dryRun {
			p.logger.Info("Would create environment", "name", spec.Name, "slug", spec.Slug)

			continue
		}

		if err := p.store.CreateEnvironment(ctx, spec.Name, spec.Slug, spec.Position); err != nil {
			return fmt.Errorf("creating environment %s: %w", spec.Slug, err)
		}

		p.logger.Info("Created environment", "name", spec.Name, "slug", spec.Slug, "position", spec.Position)
	}

	return nil
}

// ensureImports links each service's base environment folder into the
// derived environments that also have a file for the service.
func (p *Pipeline) ensureImports(ctx context.Context) (ImportStats, error) {
	var stats ImportStats

	if len(p.environments) < 2 {
		return stats, nil
	}

	base := p.environments[0].Slug

	services := p.services
	if !p.scanned {
		services = p.walker.ScanServices()
	}

	for _, svc := range services {
		if !svc.HasEnvironment(base) {
			continue
		}

		for _, spec := range p.environments[1:] {
			if !svc.HasEnvironment(spec.Slug) {
				continue
			}

			state, err := p.linker.EnsureImport(ctx, spec.Slug, svc.Path, base, svc.Path)
			if err != nil {
				p.logger.Warn("Failed to ensure import",
					"environment", spec.Slug, "path", svc.Path, "error", err)

				continue
			}

			if state == ImportCreated {
				stats.Created++
			} else {
				stats.Existing++
			}
		}
	}

	return stats, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/opsforge/envsync/internal/archive"
	"github.com/opsforge/envsync/internal/compare"
	"github.com/opsforge/envsync/internal/config"
	"github.com/opsforge/envsync/internal/infisical"
	"github.com/opsforge/envsync/internal/logging"
	"github.com/opsforge/envsync/internal/syncer"
)

var Version = "dev"

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)

	return nil
}

type options struct {
	configPath string
	dryRun     bool
	stage      string
	files      stringList
	paths      stringList
	recursive  bool
	cleanup    bool
	purge      bool
	fetch      bool
	compare    bool
	watch      bool
	verbose    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}

	flag.StringVar(&opts.configPath, "config", "envsync.yaml", "path to the config file")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing")
	flag.StringVar(&opts.stage, "stage", "", "run a single stage (environments, shared, services, imports)")
	flag.Var(&opts.files, "file", "sync a single local file (repeatable)")
	flag.Var(&opts.paths, "path", "sync the local files feeding a remote path (repeatable)")
	flag.BoolVar(&opts.recursive, "recursive", false, "with -path, include the whole subtree")
	flag.BoolVar(&opts.cleanup, "cleanup", false, "delete the configured deprecated paths and exit")
	flag.BoolVar(&opts.purge, "purge", false, "delete everything remote, then run a full sync")
	flag.BoolVar(&opts.fetch, "fetch", false, "archive expanded snapshots for later comparison")
	flag.BoolVar(&opts.compare, "compare", false, "compare archived snapshots against the remote store")
	flag.BoolVar(&opts.watch, "watch", false, "watch the tree and sync files as they change")
	flag.BoolVar(&opts.verbose, "v", false, "verbose comparison output")
	flag.Parse()

	return opts
}

func run() error {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)
	logger.Info("envsync starting",
		slog.String("version", Version),
		slog.String("server", cfg.Server),
		slog.String("tree_root", cfg.TreeRoot),
		slog.Bool("dry_run", opts.dryRun),
	)

	arch, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer arch.Close()

	client := infisical.New(infisical.Config{
		Server:       cfg.Server,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		ProjectID:    cfg.ProjectID,
		Tokens:       arch,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	project, err := client.GetProject(ctx)
	if err != nil {
		return fmt.Errorf("connecting to secret store: %w", err)
	}

	logger.Info("connected", slog.String("project", project.Name))

	app := newApp(cfg, client, arch, logger, opts.dryRun)

	switch {
	case opts.purge:
		return app.runPurge(ctx)
	case opts.cleanup:
		return app.runCleanup(ctx)
	case opts.fetch:
		return app.fetcher.FetchExpanded(ctx, cfg.Compare.Services, cfg.EnvironmentSlugs())
	case opts.compare:
		return app.runCompare(ctx, opts.verbose)
	case len(opts.files) > 0:
		return app.runFiles(ctx, opts.files)
	case len(opts.paths) > 0:
		return app.runPaths(ctx, opts.paths, opts.recursive)
	case opts.stage != "":
		return app.runStage(ctx, opts.stage)
	case opts.watch:
		return app.runWatch(ctx)
	default:
		return app.runFull(ctx)
	}
}

// app wires the sync engine components over one client and config.
type app struct {
	cfg         *config.Config
	arch        *archive.Store
	logger      *slog.Logger
	walker      *syncer.Walker
	pipeline    *syncer.Pipeline
	maintenance *syncer.Maintenance
	fetcher     *syncer.Fetcher
	watcher     *syncer.Watcher
}

func newApp(cfg *config.Config, client *infisical.Client, arch *archive.Store, logger *slog.Logger, dryRun bool) *app {
	slugs := cfg.EnvironmentSlugs()

	mapper := syncer.NewMapper(cfg.TreeRoot, slugs)
	folders := syncer.NewFolders(client, logger, dryRun)
	reconciler := syncer.NewReconciler(client, logger, dryRun)
	walker := syncer.NewWalker(cfg.TreeRoot, slugs, mapper, folders, reconciler, logger)
	linker := syncer.NewLinker(client, logger, dryRun)

	specs := make([]syncer.EnvironmentSpec, 0, len(cfg.Environments))
	for _, e := range cfg.Environments {
		specs = append(specs, syncer.EnvironmentSpec{Name: e.Name, Slug: e.Slug, Position: e.Position})
	}

	return &app{
		cfg:         cfg,
		arch:        arch,
		logger:      logger,
		walker:      walker,
		pipeline:    syncer.NewPipeline(client, walker, linker, specs, logger, dryRun),
		maintenance: syncer.NewMaintenance(client, folders, linker, slugs, logger, dryRun),
		fetcher:     syncer.NewFetcher(client, arch, walker, cfg.BaseEnvironment(), logger),
		watcher:     syncer.NewWatcher(cfg.TreeRoot, walker, logger),
	}
}

func (a *app) runFull(ctx context.Context) error {
	result, err := a.pipeline.RunAll(ctx)
	if err != nil {
		return err
	}

	a.report(result)

	return nil
}

func (a *app) runStage(ctx context.Context, name string) error {
	stage, err := syncer.ParseStage(name)
	if err != nil {
		return err
	}

	result, err := a.pipeline.Run(ctx, stage)
	if err != nil {
		return err
	}

	a.report(result)

	return nil
}

func (a *app) runFiles(ctx context.Context, files []string) error {
	var stats syncer.Stats

	for _, file := range files {
		stats.Merge(a.walker.SyncFile(ctx, file))
	}

	a.report(syncer.Result{Secrets: stats})

	return nil
}

func (a *app) runPaths(ctx context.Context, paths []string, recursive bool) error {
	var stats syncer.Stats

	for _, path := range paths {
		stats.Merge(a.walker.SyncPath(ctx, path, recursive))
	}

	a.report(syncer.Result{Secrets: stats})

	return nil
}

func (a *app) runCleanup(ctx context.Context) error {
	if len(a.cfg.DeprecatedPaths) == 0 {
		return fmt.Errorf("no deprecated_paths configured")
	}

	stats := a.maintenance.Cleanup(ctx, a.cfg.DeprecatedPaths)

	// Per-path failures show up in the counts; only fatal failures
	// change the exit status.
	fmt.Printf("cleanup: %d deleted, %d absent, %d failed\n", stats.Deleted, stats.Absent, stats.Failed)

	return nil
}

func (a *app) runPurge(ctx context.Context) error {
	if err := a.maintenance.Purge(ctx); err != nil {
		return err
	}

	return a.runFull(ctx)
}

func (a *app) runCompare(ctx context.Context, verbose bool) error {
	comparator := compare.New(a.cfg.Compare.AllowKeys, a.cfg.Compare.KeyPrefixes, a.logger)
	services := a.fetcher.Services(a.cfg.Compare.Services)

	if len(services) == 0 {
		return fmt.Errorf("no services to compare")
	}

	clean := true
	compared := 0

	for _, service := range services {
		for _, env := range a.cfg.EnvironmentSlugs() {
			if env == a.cfg.BaseEnvironment() {
				continue
			}

			snap, err := a.arch.GetSnapshot(service, env)
			if err != nil {
				return fmt.Errorf("reading snapshot %s/%s: %w", service, env, err)
			}

			if snap == nil {
				a.logger.Warn("no archived snapshot, run -fetch first",
					slog.String("service", service), slog.String("environment", env))

				continue
			}

			fresh, err := a.fetcher.Expanded(ctx, service, env)
			if err != nil {
				a.logger.Warn("failed to fetch current values",
					slog.String("service", service), slog.String("environment", env),
					slog.String("error", err.Error()))

				continue
			}

			result := comparator.Compare(service, snap.Values, fresh)
			result.WriteReport(os.Stdout, service+"/"+env, verbose)

			compared++

			if !result.Clean() {
				clean = false
			}
		}
	}

	if compared == 0 {
		return fmt.Errorf("nothing compared: no archived snapshots")
	}

	if !clean {
		return fmt.Errorf("unexpected differences found")
	}

	return nil
}

func (a *app) runWatch(ctx context.Context) error {
	// Bring the remote up to date first so the watcher only has to
	// handle incremental changes.
	if err := a.runFull(ctx); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.watcher.Watch(gctx)
	})

	return g.Wait()
}

// report prints the run statistics. Per-key failures are reported
// through the counts only; they never change the exit status.
func (a *app) report(result syncer.Result) {
	stats := result.Secrets

	fmt.Printf("secrets: %d created, %d updated, %d unchanged, %d failed\n",
		stats.Created, stats.Updated, stats.Unchanged, stats.Failed)

	if result.Imports.Created > 0 || result.Imports.Existing > 0 {
		fmt.Printf("imports: %d created, %d existing\n", result.Imports.Created, result.Imports.Existing)
	}
}

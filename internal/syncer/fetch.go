package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opsforge/envsync/internal/archive"
	"github.com/opsforge/envsync/internal/infisical"
)

// SnapshotWriter persists fetched snapshots. *archive.Store satisfies
// it.
type SnapshotWriter interface {
	PutSnapshot(snap archive.Snapshot) error
}

// Fetcher pulls reference-expanded secret sets from the remote store
// and archives them for later offline comparison.
type Fetcher struct {
	store   Store
	writer  SnapshotWriter
	walker  *Walker
	logger  *slog.Logger
	baseEnv string
}

// NewFetcher returns a fetcher archiving through writer. baseEnv is the
// environment whose values underlie every derived environment.
func NewFetcher(store Store, writer SnapshotWriter, walker *Walker, baseEnv string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		store:   store,
		writer:  writer,
		walker:  walker,
		logger:  logger,
		baseEnv: baseEnv,
	}
}

// Services returns the service list to fetch: the given one, or the
// services discovered in the local tree when it is empty.
func (f *Fetcher) Services(services []string) []string {
	if len(services) > 0 {
		return services
	}

	for _, info := range f.walker.ScanServices() {
		services = append(services, strings.TrimPrefix(info.Path, "/"+ServicesNamespace+"/"))
	}

	return services
}

// FetchExpanded archives the flattened view of each (service,
// environment) pair. When services is empty the tree is scanned
// instead. A failed pair is logged and skipped; the rest still fetch.
func (f *Fetcher) FetchExpanded(ctx context.Context, services, environments []string) error {
	services = f.Services(services)
	if len(services) == 0 {
		return fmt.Errorf("no services to fetch")
	}

	fetched := 0

	for _, service := range services {
		for _, env := range environments {
			if env == f.baseEnv {
				continue
			}

			values, err := f.Expanded(ctx, service, env)
			if err != nil {
				f.logger.Warn("Failed to fetch expanded values",
					"service", service, "environment", env, "error", err)

				continue
			}

			snap := archive.Snapshot{
				Service:     service,
				Environment: env,
				Values:      values,
				FetchedAt:   time.Now().UTC(),
			}

			if err := f.writer.PutSnapshot(snap); err != nil {
				return fmt.Errorf("archiving snapshot %s/%s: %w", service, env, err)
			}

			f.logger.Info("Archived snapshot",
				"service", service, "environment", env, "keys", len(values))

			fetched++
		}
	}

	if fetched == 0 {
		return fmt.Errorf("no snapshots fetched")
	}

	return nil
}

// Expanded returns the flattened view for one (service, environment)
// pair without archiving it: the base environment's reference-expanded
// values overlaid with the environment's own.
func (f *Fetcher) Expanded(ctx context.Context, service, env string) (map[string]string, error) {
	remotePath := "/" + ServicesNamespace + "/" + service

	base, err := f.expanded(ctx, f.baseEnv, remotePath)
	if err != nil {
		return nil, fmt.Errorf("fetching base environment %s: %w", f.baseEnv, err)
	}

	overlay, err := f.expanded(ctx, env, remotePath)
	if err != nil {
		return nil, fmt.Errorf("fetching environment %s: %w", env, err)
	}

	values := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		values[k] = v
	}

	for k, v := range overlay {
		values[k] = v
	}

	return values, nil
}

// expanded lists reference-expanded secrets at the coordinate. A folder
// that does not exist reads as empty.
func (f *Fetcher) expanded(ctx context.Context, env, remotePath string) (map[string]string, error) {
	secrets, err := f.store.ListSecrets(ctx, env, remotePath, true)
	if err != nil {
		if infisical.IsNotFound(err) {
			return map[string]string{}, nil
		}

		return nil, err
	}

	values := make(map[string]string, len(secrets))
	for _, s := range secrets {
		values[s.Key] = s.Value
	}

	return values, nil
}

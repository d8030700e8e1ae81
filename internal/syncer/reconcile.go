package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/opsforge/envsync/internal/infisical"
)

// KeyState classifies one desired key against the remote state.
type KeyState int

const (
	KeyCreated KeyState = iota
	KeyUpdated
	KeyUnchanged
	KeyFailed
)

func (s KeyState) String() string {
	switch s {
	case KeyCreated:
		return "created"
	case KeyUpdated:
		return "updated"
	case KeyUnchanged:
		return "unchanged"
	case KeyFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// KeyChange is one planned (or attempted) per-key action.
type KeyChange struct {
	Key      string
	State    KeyState
	NewValue string
}

// Classify compares the desired key set against the current remote
// values and decides, per key, whether it must be created, updated, or
// left alone. Keys present remotely but absent locally are never
// touched. The result is ordered by key so runs are deterministic.
func Classify(desired, current map[string]string) []KeyChange {
	keys := make([]string, 0, len(desired))
	for k := range desired {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	changes := make([]KeyChange, 0, len(keys))

	for _, key := range keys {
		value := desired[key]

		change := KeyChange{Key: key, NewValue: value}

		remote, ok := current[key]
		switch {
		case !ok:
			change.State = KeyCreated
		case remote != value:
			change.State = KeyUpdated
		default:
			change.State = KeyUnchanged
		}

		changes = append(changes, change)
	}

	return changes
}

// Reconciler applies a desired key set to one remote coordinate. In
// dry-run mode it classifies identically but performs no writes.
type Reconciler struct {
	store  Store
	logger *slog.Logger
	dryRun bool
}

// NewReconciler returns a reconciler writing through store.
func NewReconciler(store Store, logger *slog.Logger, dryRun bool) *Reconciler {
	return &Reconciler{store: store, logger: logger, dryRun: dryRun}
}

// Apply reconciles desired into the coordinate (environment, path). It
// fetches the current raw values, classifies every desired key, and
// issues the create/update writes. A failed write marks that key failed
// and the remaining keys still proceed. If the fetch itself fails, all
// desired keys count as failed and no writes happen.
func (r *Reconciler) Apply(ctx context.Context, environment, remotePath string, desired map[string]string) Stats {
	var stats Stats

	if len(desired) == 0 {
		return stats
	}

	current, err := r.fetchCurrent(ctx, environment, remotePath)
	if err != nil {
		r.logger.Warn("Failed to fetch current secrets, skipping coordinate",
			"environment", environment, "path", remotePath, "error", err)

		stats.Failed = len(desired)

		return stats
	}

	for _, change := range Classify(desired, current) {
		switch change.State {
		case KeyCreated:
			if r.write(ctx, environment, remotePath, change, r.store.CreateSecret) {
				stats.Created++
			} else {
				stats.Failed++
			}
		case KeyUpdated:
			if r.write(ctx, environment, remotePath, change, r.store.UpdateSecret) {
				stats.Updated++
			} else {
				stats.Failed++
			}
		case KeyUnchanged:
			stats.Unchanged++
		}
	}

	if stats.Changed() || stats.Failed > 0 {
		r.logger.Info("Reconciled coordinate",
			"environment", environment, "path", remotePath, "dry_run", r.dryRun,
			"created", stats.Created, "updated", stats.Updated,
			"unchanged", stats.Unchanged, "failed", stats.Failed)
	}

	return stats
}

// fetchCurrent lists the raw (unexpanded) secrets at the coordinate. A
// missing folder reads as empty: every desired key classifies as
// created, which also keeps dry runs working against paths that do not
// exist yet.
func (r *Reconciler) fetchCurrent(ctx context.Context, environment, remotePath string) (map[string]string, error) {
	secrets, err := r.store.ListSecrets(ctx, environment, remotePath, false)
	if err != nil {
		if infisical.IsNotFound(err) {
			return map[string]string{}, nil
		}

		return nil, err
	}

	current := make(map[string]string, len(secrets))
	for _, s := range secrets {
		current[s.Key] = s.Value
	}

	return current, nil
}

type writeFunc func(ctx context.Context, environment, path, key, value string) error

func (r *Reconciler) write(ctx context.Context, environment, remotePath string, change KeyChange, fn writeFunc) bool {
	if r.dryRun {
		r.logger.Info(fmt.Sprintf("Would mark secret %s", change.State),
			"environment", environment, "path", remotePath, "key", change.Key)

		return true
	}

	if err := fn(ctx, environment, remotePath, change.Key, change.NewValue); err != nil {
		r.logger.Warn("Secret write failed",
			"environment", environment, "path", remotePath, "key", change.Key,
			"action", change.State.String(), "error", err)

		return false
	}

	return true
}

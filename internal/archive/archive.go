// Package archive persists state across runs in a bbolt database: the
// cached session token and reference-expanded secret snapshots used by
// the comparator.
package archive

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// dirPerm is the permission mode for the archive directory.
	dirPerm = fs.FileMode(0o700)

	// filePerm is the permission mode for the database file. It holds the
	// session token, so group/world access is excluded.
	filePerm = fs.FileMode(0o600)

	// openTimeout is the maximum time to wait for the bolt file lock.
	openTimeout = 5 * time.Second
)

var (
	sessionBucket   = []byte("session")
	snapshotsBucket = []byte("snapshots")
	tokenKey        = []byte("token")
)

// Snapshot is one archived flattened secret set for a (service,
// environment) pair.
type Snapshot struct {
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Values      map[string]string `json:"values"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

// snapshotKey is the bucket key for a (service, environment) pair. The
// separator cannot appear in either part: service names come from
// directory paths and environment names are slugs.
func snapshotKey(service, environment string) []byte {
	return []byte(service + "|" + environment)
}

// Store wraps a bbolt database holding all persistent state.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sessionBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(snapshotsBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing archive db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the cached session token, or empty string.
func (s *Store) Token() string {
	var token string

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionBucket).Get(tokenKey)
		if v != nil {
			token = string(v)
		}

		return nil
	})

	return token
}

// SetToken persists the session token.
func (s *Store) SetToken(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(tokenKey, []byte(token))
	})
}

// PutSnapshot stores a snapshot, replacing any previous one for the same
// (service, environment).
func (s *Store) PutSnapshot(snap Snapshot) error {
	if snap.Service == "" || snap.Environment == "" {
		return fmt.Errorf("snapshot requires service and environment")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}

		return tx.Bucket(snapshotsBucket).Put(snapshotKey(snap.Service, snap.Environment), data)
	})
}

// GetSnapshot returns the archived snapshot for (service, environment),
// or nil if none exists.
func (s *Store) GetSnapshot(service, environment string) (*Snapshot, error) {
	var snap *Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotsBucket).Get(snapshotKey(service, environment))
		if v == nil {
			return nil
		}

		snap = &Snapshot{}

		return json.Unmarshal(v, snap)
	})

	return snap, err
}

// Snapshots returns all archived snapshots sorted by service then
// environment.
func (s *Store) Snapshots() ([]Snapshot, error) {
	var snaps []Snapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotsBucket).ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}

			snaps = append(snaps, snap)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Service != snaps[j].Service {
			return snaps[i].Service < snaps[j].Service
		}

		return snaps[i].Environment < snaps[j].Environment
	})

	return snaps, nil
}

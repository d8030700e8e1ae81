package syncer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opsforge/envsync/internal/envfile"
)

const (
	// SharedNamespace is the tree directory holding cross-service secret
	// groups, one subtree per environment.
	SharedNamespace = "shared-secrets"

	// ServicesNamespace is the tree directory holding per-service
	// configuration, one file per environment.
	ServicesNamespace = "services"
)

// ErrInvalidCoordinate marks a local file that does not map to any
// remote coordinate. Callers skip the file and continue.
var ErrInvalidCoordinate = errors.New("file does not map to a remote coordinate")

// Coordinate is a remote location: an environment slug and a
// slash-separated folder path starting at the project root.
type Coordinate struct {
	Environment string
	Path        string
}

// Target pairs a local file with the coordinate its keys sync to.
type Target struct {
	File        string
	Environment string
	Path        string
}

// Mapper translates between local tree positions and remote
// coordinates in both directions.
type Mapper struct {
	root         string
	environments []string
}

// NewMapper returns a mapper rooted at the local tree root, aware of
// the configured environment slugs.
func NewMapper(root string, environments []string) *Mapper {
	return &Mapper{root: root, environments: environments}
}

// MapFile maps a local file to its remote coordinate. The file may be
// given as an absolute path or relative to the tree root.
//
// Shared files live at shared-secrets/<env>/<subdirs...>/<name>.env and
// map to (<env>, /shared-secrets/<subdirs...>/<name>). Service files
// live at services/<dirs...>/<env>.env and map to
// (<env>, /services/<dirs...>). Anything else is an invalid coordinate.
func (m *Mapper) MapFile(file string) (Coordinate, error) {
	rel, err := m.relativize(file)
	if err != nil {
		return Coordinate{}, err
	}

	parts := strings.Split(rel, "/")
	if len(parts) < 2 || !envfile.IsEnvFile(parts[len(parts)-1]) {
		return Coordinate{}, fmt.Errorf("%s: %w", rel, ErrInvalidCoordinate)
	}

	switch parts[0] {
	case SharedNamespace:
		return m.mapSharedFile(rel, parts)
	case ServicesNamespace:
		return m.mapServiceFile(rel, parts)
	default:
		return Coordinate{}, fmt.Errorf("%s: unknown namespace %q: %w", rel, parts[0], ErrInvalidCoordinate)
	}
}

func (m *Mapper) mapSharedFile(rel string, parts []string) (Coordinate, error) {
	// shared-secrets/<env>/<subdirs...>/<name>.env
	if len(parts) < 3 {
		return Coordinate{}, fmt.Errorf("%s: shared file needs an environment directory: %w", rel, ErrInvalidCoordinate)
	}

	env := parts[1]
	if !slices.Contains(m.environments, env) {
		return Coordinate{}, fmt.Errorf("%s: unknown environment %q: %w", rel, env, ErrInvalidCoordinate)
	}

	segments := append([]string{SharedNamespace}, parts[2:len(parts)-1]...)
	segments = append(segments, envfile.Stem(parts[len(parts)-1]))

	return Coordinate{Environment: env, Path: "/" + strings.Join(segments, "/")}, nil
}

func (m *Mapper) mapServiceFile(rel string, parts []string) (Coordinate, error) {
	// services/<dirs...>/<env>.env
	env := envfile.Stem(parts[len(parts)-1])
	if !slices.Contains(m.environments, env) {
		return Coordinate{}, fmt.Errorf("%s: file name %q is not an environment: %w", rel, env, ErrInvalidCoordinate)
	}

	return Coordinate{Environment: env, Path: "/" + strings.Join(parts[:len(parts)-1], "/")}, nil
}

// FilesForPath maps a remote folder path back to the local files that
// feed it. Non-recursive mode infers the direct sibling files, at most
// one per environment. Recursive mode walks the corresponding local
// subtree and returns every env file beneath it.
func (m *Mapper) FilesForPath(remotePath string, recursive bool) ([]Target, error) {
	parts := splitPath(remotePath)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: %w", remotePath, ErrInvalidCoordinate)
	}

	switch parts[0] {
	case SharedNamespace:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%s: shared path needs a group name: %w", remotePath, ErrInvalidCoordinate)
		}

		return m.sharedTargets(parts[1:], recursive)
	case ServicesNamespace:
		return m.serviceTargets(parts, recursive)
	default:
		return nil, fmt.Errorf("%s: unknown namespace %q: %w", remotePath, parts[0], ErrInvalidCoordinate)
	}
}

// sharedTargets resolves /shared-secrets/<subpath> per environment: the
// local file shared-secrets/<env>/<subpath>.env, or in recursive mode
// every env file under shared-secrets/<env>/<subpath>/.
func (m *Mapper) sharedTargets(subpath []string, recursive bool) ([]Target, error) {
	var targets []Target

	for _, env := range m.environments {
		base := filepath.Join(append([]string{m.root, SharedNamespace, env}, subpath...)...)

		if !recursive {
			file := base + envfile.Extension
			if fileExists(file) {
				targets = append(targets, Target{
					File:        file,
					Environment: env,
					Path:        "/" + path.Join(append([]string{SharedNamespace}, subpath...)...),
				})
			}

			continue
		}

		envRoot := filepath.Join(m.root, SharedNamespace, env)

		found, err := walkEnvFiles(base, func(file string) (Target, bool) {
			rel, err := filepath.Rel(envRoot, file)
			if err != nil {
				return Target{}, false
			}

			rel = filepath.ToSlash(strings.TrimSuffix(rel, envfile.Extension))

			return Target{
				File:        file,
				Environment: env,
				Path:        "/" + SharedNamespace + "/" + rel,
			}, true
		})
		if err != nil {
			return nil, err
		}

		targets = append(targets, found...)
	}

	return targets, nil
}

// serviceTargets resolves /services/<dirs...> to the env-named files in
// the matching local directory, or in recursive mode to every env-named
// file in the subtree.
func (m *Mapper) serviceTargets(parts []string, recursive bool) ([]Target, error) {
	dir := filepath.Join(append([]string{m.root}, parts...)...)

	if !recursive {
		var targets []Target

		for _, env := range m.environments {
			file := filepath.Join(dir, env+envfile.Extension)
			if fileExists(file) {
				targets = append(targets, Target{
					File:        file,
					Environment: env,
					Path:        "/" + strings.Join(parts, "/"),
				})
			}
		}

		return targets, nil
	}

	return walkEnvFiles(dir, func(file string) (Target, bool) {
		env := envfile.Stem(filepath.Base(file))
		if !slices.Contains(m.environments, env) {
			return Target{}, false
		}

		rel, err := filepath.Rel(m.root, filepath.Dir(file))
		if err != nil {
			return Target{}, false
		}

		return Target{
			File:        file,
			Environment: env,
			Path:        "/" + filepath.ToSlash(rel),
		}, true
	})
}

func (m *Mapper) relativize(file string) (string, error) {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(m.root, file)
	}

	rel, err := filepath.Rel(m.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s: outside tree root: %w", file, ErrInvalidCoordinate)
	}

	return filepath.ToSlash(rel), nil
}

// walkEnvFiles walks dir collecting env files accepted by the mapping
// function, in lexicographic order. A missing directory yields no
// targets.
func walkEnvFiles(dir string, mapFn func(file string) (Target, bool)) ([]Target, error) {
	var targets []Target

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != dir {
				return filepath.SkipDir
			}

			return nil
		}

		if !envfile.IsEnvFile(d.Name()) {
			return nil
		}

		if target, ok := mapFn(p); ok {
			targets = append(targets, target)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return targets, nil
}

// splitPath splits a remote folder path into segments, dropping empty
// parts.
func splitPath(remotePath string) []string {
	var parts []string

	for _, p := range strings.Split(remotePath, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return parts
}

// normalizePath canonicalizes a remote folder path to the /a/b form
// used in store calls. The project root is "/".
func normalizePath(remotePath string) string {
	parts := splitPath(remotePath)
	if len(parts) == 0 {
		return "/"
	}

	return "/" + strings.Join(parts, "/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

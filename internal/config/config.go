// Package config loads envsync configuration: a YAML project file
// holding connection settings and comparator rules, with environment
// variable overrides for anything credential-shaped.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvironmentSpec describes one target environment in the remote store.
type EnvironmentSpec struct {
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Position int    `yaml:"position"`
}

// CompareConfig holds the comparator's rules: the service list to fetch
// and compare, the allow-set of keys expected to differ, and the generic
// key prefixes stripped during normalization (the service-specific
// prefix is derived per service and always checked first).
type CompareConfig struct {
	Services    []string `yaml:"services"`
	AllowKeys   []string `yaml:"allow_keys"`
	KeyPrefixes []string `yaml:"key_prefixes"`
}

// Config holds all configuration for envsync. YAML values are loaded
// first; environment variables override them.
type Config struct {
	// Remote store connection.
	Server       string `yaml:"server" env:"ENVSYNC_SERVER"`
	ClientID     string `yaml:"client_id" env:"ENVSYNC_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"ENVSYNC_CLIENT_SECRET"`
	ProjectID    string `yaml:"project_id" env:"ENVSYNC_PROJECT_ID"`

	// TreeRoot is the local configuration tree (the directory holding
	// the shared and services namespaces).
	TreeRoot string `yaml:"tree_root" env:"ENVSYNC_TREE_ROOT"`

	// ArchivePath is the bbolt database for the session token and
	// archived snapshots. Defaults to ~/.envsync/archive.db.
	ArchivePath string `yaml:"archive_path" env:"ENVSYNC_ARCHIVE"`

	// Environment controls log format.
	Environment string `yaml:"environment" env:"ENVIRONMENT" envDefault:"development"`

	// Environments are the target environments ensured by the
	// environments stage, in position order. The first entry is the base
	// environment other environments import from.
	Environments []EnvironmentSpec `yaml:"environments"`

	// DeprecatedPaths are remote paths removed by cleanup mode.
	DeprecatedPaths []string `yaml:"deprecated_paths"`

	Compare CompareConfig `yaml:"compare"`
}

// warnInsecureConfigFile checks whether the config file has overly
// permissive permissions. It holds the client secret, so group or world
// readable files risk exposing credentials to other users.
func warnInsecureConfigFile(path string) {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: %s has insecure permissions %04o; recommended 0600", path, mode)
	}
}

// Load reads configuration from the YAML file at path, then applies
// environment variable overrides. A .env file in the working directory
// is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		warnInsecureConfigFile(path)

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Config may come entirely from the environment.
	default:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve TreeRoot to an absolute path at startup; the mapper derives
	// remote paths from positions relative to it.
	absRoot, err := filepath.Abs(cfg.TreeRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving tree root to absolute path: %w", err)
	}

	cfg.TreeRoot = absRoot

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Environments) == 0 {
		c.Environments = []EnvironmentSpec{
			{Name: "Common", Slug: "common", Position: 1},
			{Name: "Production", Slug: "prod", Position: 2},
			{Name: "Staging", Slug: "staging", Position: 3},
		}
	}

	if c.ArchivePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.ArchivePath = filepath.Join(home, ".envsync", "archive.db")
		}
	}
}

func (c *Config) validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required (config file or ENVSYNC_SERVER)")
	}

	if c.ClientID == "" {
		return fmt.Errorf("client_id is required (config file or ENVSYNC_CLIENT_ID)")
	}

	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required (config file or ENVSYNC_CLIENT_SECRET)")
	}

	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required (config file or ENVSYNC_PROJECT_ID)")
	}

	if c.TreeRoot == "" {
		return fmt.Errorf("tree_root is required (config file or ENVSYNC_TREE_ROOT)")
	}

	if c.ArchivePath == "" {
		return fmt.Errorf("archive_path is required when the home directory cannot be determined")
	}

	for i, e := range c.Environments {
		if e.Slug == "" {
			return fmt.Errorf("environments[%d]: slug is required", i)
		}
	}

	return nil
}

// EnvironmentSlugs returns the configured environment slugs in position
// order.
func (c *Config) EnvironmentSlugs() []string {
	slugs := make([]string, 0, len(c.Environments))
	for _, e := range c.Environments {
		slugs = append(slugs, e.Slug)
	}

	return slugs
}

// BaseEnvironment returns the slug of the base (import source)
// environment: the first configured environment.
func (c *Config) BaseEnvironment() string {
	return c.Environments[0].Slug
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for objfs mounts.
//
// Configuration is loaded from a single file specified by:
//   - OBJFS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging_overrides, production) that override base values when the
// environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for an objfs mount.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Mount configures the FUSE mount itself.
	Mount MountConfig `yaml:"mount"`

	// Store configures the backing object store.
	Store StoreConfig `yaml:"store"`

	// Staging configures the in-memory write-staging buffers.
	Staging StagingConfig `yaml:"staging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded. The staging
	// environment's section is keyed staging_overrides, because the
	// staging key holds the write-staging buffer settings above.
	Development      *ConfigOverrides `yaml:"development,omitempty"`
	StagingOverrides *ConfigOverrides `yaml:"staging_overrides,omitempty"`
	Production       *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Mount   *MountConfig   `yaml:"mount,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Staging *StagingConfig `yaml:"staging,omitempty"`
}

// MountConfig configures the FUSE mount point and its behavior.
type MountConfig struct {
	// Mountpoint is the directory the filesystem is mounted onto.
	Mountpoint string `yaml:"mountpoint"`

	// VolumeName is presented to the host OS as the volume label.
	VolumeName string `yaml:"volume_name"`

	// ReadOnly mounts the filesystem read-only; writes return EROFS.
	ReadOnly bool `yaml:"read_only"`

	// AllowOther permits non-owner access to the mount (requires
	// user_allow_other in /etc/fuse.conf on Linux).
	AllowOther bool `yaml:"allow_other"`

	// HandleCacheSize bounds the number of open sealed-object read handles
	// kept around to serve ranged reads without reopening the object.
	// Default: 50.
	HandleCacheSize int `yaml:"handle_cache_size"`
}

// StoreConfig configures the backing object store.
type StoreConfig struct {
	// Backend selects the object store implementation.
	// Values: "local" (filesystem-backed), "s3" (not yet wired).
	// Default: local
	Backend string `yaml:"backend"`

	// Root is the directory objects are stored under when Backend is "local".
	Root string `yaml:"root"`

	// Bucket names the collection of objects when Backend is "s3".
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `yaml:"prefix"`

	// Endpoint is the object store's API endpoint, used when Backend is "s3".
	Endpoint string `yaml:"endpoint"`

	// Checksum enables a blake3 integrity checksum sidecar per object.
	// Default: true
	Checksum bool `yaml:"checksum"`

	// Compress enables zstd compression of object bodies at rest.
	Compress bool `yaml:"compress"`
}

// StagingConfig configures the dual in-memory write-staging buffers that
// accumulate metadata records and file data before they are sealed into an
// object and flushed to the store.
type StagingConfig struct {
	// MetaCap bounds the metadata staging buffer, in bytes.
	// Default: 65536 (64 KiB).
	MetaCap int `yaml:"meta_cap"`

	// DataCap bounds the file-data staging buffer, in bytes.
	// Default: 16777216 (16 MiB).
	DataCap int `yaml:"data_cap"`

	// FlushInterval forces a flush of non-empty staging buffers after this
	// much time has elapsed since the last flush, even if neither cap was
	// reached. Zero disables time-based flushing.
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "objfs", "objects")

	return &Config{
		Environment: Development,
		Mount: MountConfig{
			Mountpoint:      filepath.Join(homeDir, "objfs"),
			VolumeName:      "objfs",
			ReadOnly:        false,
			AllowOther:      false,
			HandleCacheSize: 50,
		},
		Store: StoreConfig{
			Backend:  "local",
			Root:     defaultRoot,
			Prefix:   "",
			Checksum: true,
			Compress: false,
		},
		Staging: StagingConfig{
			MetaCap:       64 * 1024,
			DataCap:       16 * 1024 * 1024,
			FlushInterval: 30 * time.Second,
		},
	}
}

// Load loads configuration from the OBJFS_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if OBJFS_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("OBJFS_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("OBJFS_CONFIG environment variable not set; " +
			"set it to the path of your objfs.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.StagingOverrides
	case Production:
		overrides = c.Production
		// Production defaults: checksum always on.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Store: &StoreConfig{
					Checksum: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Mount != nil {
		if overrides.Mount.Mountpoint != "" {
			c.Mount.Mountpoint = overrides.Mount.Mountpoint
		}
		if overrides.Mount.VolumeName != "" {
			c.Mount.VolumeName = overrides.Mount.VolumeName
		}
		// ReadOnly and AllowOther are bools, so we always apply them from overrides.
		c.Mount.ReadOnly = overrides.Mount.ReadOnly
		c.Mount.AllowOther = overrides.Mount.AllowOther
		if overrides.Mount.HandleCacheSize != 0 {
			c.Mount.HandleCacheSize = overrides.Mount.HandleCacheSize
		}
	}

	if overrides.Store != nil {
		if overrides.Store.Backend != "" {
			c.Store.Backend = overrides.Store.Backend
		}
		if overrides.Store.Root != "" {
			c.Store.Root = overrides.Store.Root
		}
		if overrides.Store.Bucket != "" {
			c.Store.Bucket = overrides.Store.Bucket
		}
		if overrides.Store.Prefix != "" {
			c.Store.Prefix = overrides.Store.Prefix
		}
		if overrides.Store.Endpoint != "" {
			c.Store.Endpoint = overrides.Store.Endpoint
		}
		c.Store.Checksum = overrides.Store.Checksum
		c.Store.Compress = overrides.Store.Compress
	}

	if overrides.Staging != nil {
		if overrides.Staging.MetaCap != 0 {
			c.Staging.MetaCap = overrides.Staging.MetaCap
		}
		if overrides.Staging.DataCap != 0 {
			c.Staging.DataCap = overrides.Staging.DataCap
		}
		if overrides.Staging.FlushInterval != 0 {
			c.Staging.FlushInterval = overrides.Staging.FlushInterval
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"OBJFS_ROOT": c.Store.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Mount.Mountpoint = expandVars(c.Mount.Mountpoint, vars)
	c.Store.Root = expandVars(c.Store.Root, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var validBackends = []string{"local", "s3"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Mount.Mountpoint == "" {
		errs = append(errs, fmt.Errorf("mount.mountpoint is required"))
	}

	if !contains(validBackends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend must be one of: %v", validBackends))
	}

	if c.Store.Backend == "local" && c.Store.Root == "" {
		errs = append(errs, fmt.Errorf("store.root is required for the local backend"))
	}
	if c.Store.Backend == "s3" && c.Store.Bucket == "" {
		errs = append(errs, fmt.Errorf("store.bucket is required for the s3 backend"))
	}

	if c.Staging.MetaCap <= 0 {
		errs = append(errs, fmt.Errorf("staging.meta_cap must be positive"))
	}
	if c.Staging.DataCap <= 0 {
		errs = append(errs, fmt.Errorf("staging.data_cap must be positive"))
	}

	if c.Mount.HandleCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("mount.handle_cache_size must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the mountpoint and, for the local store backend, the
// object root directory, if they don't already exist.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Mount.Mountpoint}
	if c.Store.Backend == "local" {
		paths = append(paths, c.Store.Root)
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

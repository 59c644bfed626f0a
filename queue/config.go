// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a string like \"30s\"")
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the queue service configuration, loaded from a YAML file.
type Config struct {
	// ListenAddress is the TCP address the HTTP API binds.
	// Defaults to 127.0.0.1:8100.
	ListenAddress string `yaml:"listen_address"`

	// DatabasePath is the SQLite database file. Required. The
	// parent directory must exist.
	DatabasePath string `yaml:"database_path"`

	// InboxDir is the directory scanned for extraction result
	// files. Required. It does not have to exist yet; scans of a
	// missing inbox find nothing.
	InboxDir string `yaml:"inbox_dir"`

	// APITokenHash is the bcrypt hash of the API token. When set,
	// every endpoint except /api/health requires the token as an
	// Authorization bearer. Empty disables authentication. Generate
	// a hash with `docsift login --hash`.
	APITokenHash string `yaml:"api_token_hash"`

	// ScanInterval enables periodic inbox rescans when positive.
	// Zero (the default) means scans run only on demand via
	// POST /api/scan.
	ScanInterval Duration `yaml:"scan_interval"`

	// NewItemsDwell is how long after an ingest the pending-count
	// endpoint keeps reporting has_new. Defaults to 3s.
	NewItemsDwell Duration `yaml:"new_items_dwell"`

	// ShutdownTimeout bounds the graceful drain of in-flight
	// requests. Defaults to 10s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// PoolSize is the SQLite connection pool size. Zero uses the
	// store default.
	PoolSize int `yaml:"pool_size"`
}

// DefaultConfig returns the configuration used when a field is not
// set in the file.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   "127.0.0.1:8100",
		NewItemsDwell:   Duration(3 * time.Second),
		ShutdownTimeout: Duration(10 * time.Second),
	}
}

// LoadConfigFile reads and validates a YAML config file. Fields
// absent from the file keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("queue: reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("queue: parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("queue: config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks that the configuration is complete and coherent.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.InboxDir == "" {
		return fmt.Errorf("inbox_dir is required")
	}
	if c.ScanInterval < 0 {
		return fmt.Errorf("scan_interval must not be negative")
	}
	if c.NewItemsDwell <= 0 {
		return fmt.Errorf("new_items_dwell must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative")
	}
	return nil
}

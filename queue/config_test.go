// Copyright 2026 The Docsift Authors
// SPDX-License-Identifier: Apache-2.0

package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigFileAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database_path: /var/lib/docsift/queue.db
inbox_dir: /var/lib/docsift/inbox
`)

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if config.ListenAddress != "127.0.0.1:8100" {
		t.Errorf("listen address = %q, want the default", config.ListenAddress)
	}
	if config.NewItemsDwell.Std() != 3*time.Second {
		t.Errorf("new items dwell = %v, want 3s", config.NewItemsDwell.Std())
	}
	if config.ShutdownTimeout.Std() != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want 10s", config.ShutdownTimeout.Std())
	}
	if config.ScanInterval != 0 {
		t.Errorf("scan interval = %v, want 0 (on-demand only)", config.ScanInterval.Std())
	}
}

func TestLoadConfigFileParsesDurations(t *testing.T) {
	path := writeConfigFile(t, `
listen_address: 0.0.0.0:9000
database_path: queue.db
inbox_dir: inbox
scan_interval: 2m
new_items_dwell: 500ms
shutdown_timeout: 30s
pool_size: 8
`)

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if config.ScanInterval.Std() != 2*time.Minute {
		t.Errorf("scan interval = %v, want 2m", config.ScanInterval.Std())
	}
	if config.NewItemsDwell.Std() != 500*time.Millisecond {
		t.Errorf("new items dwell = %v, want 500ms", config.NewItemsDwell.Std())
	}
	if config.PoolSize != 8 {
		t.Errorf("pool size = %d, want 8", config.PoolSize)
	}
}

func TestLoadConfigFileRejectsBadDuration(t *testing.T) {
	path := writeConfigFile(t, `
database_path: queue.db
inbox_dir: inbox
scan_interval: often
`)

	_, err := LoadConfigFile(path)
	if err == nil {
		t.Fatal("LoadConfigFile accepted a malformed duration")
	}
	if !strings.Contains(err.Error(), "often") {
		t.Errorf("error %q does not name the bad value", err)
	}
}

func TestLoadConfigFileMissingFile(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadConfigFile accepted a missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		config := DefaultConfig()
		config.DatabasePath = "queue.db"
		config.InboxDir = "inbox"
		return config
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantWord string
	}{
		{"missing_database", func(c *Config) { c.DatabasePath = "" }, "database_path"},
		{"missing_inbox", func(c *Config) { c.InboxDir = "" }, "inbox_dir"},
		{"missing_listen", func(c *Config) { c.ListenAddress = "" }, "listen_address"},
		{"negative_scan_interval", func(c *Config) { c.ScanInterval = -1 }, "scan_interval"},
		{"zero_dwell", func(c *Config) { c.NewItemsDwell = 0 }, "new_items_dwell"},
		{"zero_shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout"},
		{"negative_pool", func(c *Config) { c.PoolSize = -2 }, "pool_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			err := config.Validate()
			if err == nil {
				t.Fatal("Validate accepted a bad config")
			}
			if !strings.Contains(err.Error(), tt.wantWord) {
				t.Errorf("error %q does not mention %s", err, tt.wantWord)
			}
		})
	}

	config := valid()
	if err := config.Validate(); err != nil {
		t.Errorf("Validate rejected a good config: %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.IP)
	assert.Equal(t, 7145, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.SnapshotInterval)

	assert.Equal(t, uint64(pool.DefaultBufferTargetBps), cfg.Pool.BufferTargetBps)
	assert.Equal(t, uint64(pool.DefaultSwapFeeBps), cfg.Pool.SwapFeeBps)
	assert.Equal(t, pool.DefaultUnbondingPeriod, cfg.Pool.UnbondingPeriod)

	assert.Equal(t, "pebble", cfg.Storage.Backend)
	assert.Equal(t, "lz4", cfg.Storage.Compressor)
	assert.Equal(t, "sqlite", cfg.History.Driver)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poold.toml")
	content := `
[server]
port = 9000
snapshot_interval = "5s"

[pool]
swap_fee_bps = 50
treasury = "treasury-account"
unbonding_period = "2h"

[storage]
backend = "leveldb"
path = "/tmp/pool-data"
compressor = "none"

[history]
driver = "postgres"
dsn = "host=localhost dbname=pool sslmode=disable"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.SnapshotInterval)
	assert.Equal(t, uint64(50), cfg.Pool.SwapFeeBps)
	assert.Equal(t, "treasury-account", cfg.Pool.Treasury)
	assert.Equal(t, 2*time.Hour, cfg.Pool.UnbondingPeriod)
	assert.Equal(t, "leveldb", cfg.Storage.Backend)
	assert.Equal(t, "none", cfg.Storage.Compressor)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, path, cfg.ConfigPath())

	// File values override defaults; untouched sections keep defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.IP)
	assert.Equal(t, uint64(pool.DefaultProtocolFeeBps), cfg.Pool.ProtocolFeeBps)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/poold.toml")
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("POOLD_SERVER_PORT", "8123")
	t.Setenv("POOLD_STORAGE_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad_port", func(c *Config) { c.Server.Port = 0 }},
		{"empty_ip", func(c *Config) { c.Server.IP = "" }},
		{"zero_snapshot_interval", func(c *Config) { c.Server.SnapshotInterval = 0 }},
		{"fee_too_high", func(c *Config) { c.Pool.SwapFeeBps = 10_000 }},
		{"buffer_target_too_high", func(c *Config) { c.Pool.BufferTargetBps = 10_001 }},
		{"unknown_backend", func(c *Config) { c.Storage.Backend = "rocksdb" }},
		{"missing_path", func(c *Config) { c.Storage.Backend = "pebble"; c.Storage.Path = "" }},
		{"unknown_compressor", func(c *Config) { c.Storage.Compressor = "zstd" }},
		{"unknown_history_driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"empty_dsn", func(c *Config) { c.History.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestMemoryBackendNeedsNoPath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Path = ""
	assert.NoError(t, Validate(cfg))
}

// Package config loads and validates the daemon configuration from
// defaults, an optional TOML file and POOLD_-prefixed environment
// variables, in that priority order.
package config

import (
	"time"

	"github.com/ghostpool/gopoold/internal/core/pool"
	"github.com/ghostpool/gopoold/internal/storage/history"
	"github.com/ghostpool/gopoold/internal/storage/keyValueDb"
	"github.com/ghostpool/gopoold/internal/storage/poolstore"
)

// Config is the root configuration for the pool daemon.
type Config struct {
	Server  ServerConfig   `toml:"server" mapstructure:"server"`
	Pool    pool.Params    `toml:"pool" mapstructure:"pool"`
	Storage StorageConfig  `toml:"storage" mapstructure:"storage"`
	History history.Config `toml:"history" mapstructure:"history"`

	// configPath remembers where the file config came from, if any.
	configPath string
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	IP   string `toml:"ip" mapstructure:"ip"`
	Port int    `toml:"port" mapstructure:"port"`

	ReadTimeout     time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// SnapshotInterval is how often the pool state is persisted.
	SnapshotInterval time.Duration `toml:"snapshot_interval" mapstructure:"snapshot_interval"`
}

// StorageConfig is the [storage] section.
type StorageConfig struct {
	Backend    string `toml:"backend" mapstructure:"backend"`
	Path       string `toml:"path" mapstructure:"path"`
	Compressor string `toml:"compressor" mapstructure:"compressor"`
	CacheSize  int    `toml:"cache_size" mapstructure:"cache_size"`
}

// KeyValue returns the backend selection for the key-value layer.
func (s StorageConfig) KeyValue() keyValueDb.Config {
	return keyValueDb.Config{Backend: s.Backend, Path: s.Path}
}

// Store returns the pool store tuning derived from this section.
func (s StorageConfig) Store() poolstore.Config {
	return poolstore.Config{Compressor: s.Compressor, CacheSize: s.CacheSize}
}

// ConfigPath returns the file the configuration was loaded from, or the
// empty string when running on defaults and environment only.
func (c *Config) ConfigPath() string {
	return c.configPath
}

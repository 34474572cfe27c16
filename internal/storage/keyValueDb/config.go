package keyValueDb

// Config selects and tunes a storage backend.
type Config struct {
	// Backend is the registered backend name: "pebble", "leveldb" or "memory".
	Backend string `mapstructure:"backend"`

	// Path is the on-disk location for persistent backends. Ignored by the
	// memory backend.
	Path string `mapstructure:"path"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Backend: "pebble",
		Path:    "data/pool",
	}
}

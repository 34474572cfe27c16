package keyValueDb

import (
	"fmt"
	"sync"
)

// BackendFactory opens a backend instance from a configuration.
type BackendFactory func(cfg Config) (DB, error)

var (
	backendMu        sync.RWMutex
	backendFactories = make(map[string]BackendFactory)
)

// RegisterBackend registers a backend factory with the given name.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendFactories[name] = factory
}

// Open creates the backend named by cfg.Backend.
func Open(cfg Config) (DB, error) {
	backendMu.RLock()
	factory, ok := backendFactories[cfg.Backend]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
	return factory(cfg)
}

// AvailableBackends returns the registered backend names.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	return names
}

// IsBackendAvailable checks if a backend with the given name is registered.
func IsBackendAvailable(name string) bool {
	backendMu.RLock()
	_, ok := backendFactories[name]
	backendMu.RUnlock()
	return ok
}

// init registers the built-in backends.
func init() {
	RegisterBackend("pebble", newPebbleDB)
	RegisterBackend("leveldb", newLevelDB)
	RegisterBackend("memory", newMemoryDB)
}

package config

import (
	"fmt"

	"github.com/ghostpool/gopoold/internal/core/poolmath"
	"github.com/ghostpool/gopoold/internal/storage/history"
	"github.com/ghostpool/gopoold/internal/storage/keyValueDb"
)

// Validate checks the whole configuration for values the daemon cannot
// run with.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validatePool(cfg); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validateHistory(&cfg.History); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	if s.IP == "" {
		return fmt.Errorf("ip cannot be empty")
	}
	if s.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot_interval must be positive")
	}
	return nil
}

func validatePool(cfg *Config) error {
	p := cfg.Pool
	if p.SwapFeeBps >= poolmath.BpsDenominator {
		return fmt.Errorf("swap_fee_bps %d must be below %d", p.SwapFeeBps, poolmath.BpsDenominator)
	}
	if p.ProtocolFeeBps > poolmath.BpsDenominator {
		return fmt.Errorf("protocol_fee_bps %d exceeds %d", p.ProtocolFeeBps, poolmath.BpsDenominator)
	}
	if p.BufferTargetBps > poolmath.BpsDenominator {
		return fmt.Errorf("buffer_target_bps %d exceeds %d", p.BufferTargetBps, poolmath.BpsDenominator)
	}
	if p.UnbondingPeriod < 0 {
		return fmt.Errorf("unbonding_period cannot be negative")
	}
	return nil
}

func validateStorage(s *StorageConfig) error {
	if !keyValueDb.IsBackendAvailable(s.Backend) {
		return fmt.Errorf("unknown backend %q (available: %v)", s.Backend, keyValueDb.AvailableBackends())
	}
	if s.Backend != "memory" && s.Path == "" {
		return fmt.Errorf("path required for backend %q", s.Backend)
	}
	switch s.Compressor {
	case "", "none", "lz4":
	default:
		return fmt.Errorf("unknown compressor %q", s.Compressor)
	}
	return nil
}

func validateHistory(h *history.Config) error {
	switch h.Driver {
	case history.DriverSQLite, history.DriverPostgres:
	default:
		return fmt.Errorf("unknown driver %q", h.Driver)
	}
	if h.DSN == "" {
		return fmt.Errorf("dsn cannot be empty")
	}
	return nil
}

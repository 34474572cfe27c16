package config

import (
	"github.com/spf13/viper"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

// setDefaults seeds viper with the daemon defaults. Every key that can
// appear in the TOML file has a default here.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.ip", "127.0.0.1")
	v.SetDefault("server.port", 7145)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.snapshot_interval", "30s")

	// Pool parameter defaults
	v.SetDefault("pool.buffer_target_bps", pool.DefaultBufferTargetBps)
	v.SetDefault("pool.swap_fee_bps", pool.DefaultSwapFeeBps)
	v.SetDefault("pool.protocol_fee_bps", pool.DefaultProtocolFeeBps)
	v.SetDefault("pool.minimum_liquidity", pool.DefaultMinimumLiquidity)
	v.SetDefault("pool.unbonding_period", pool.DefaultUnbondingPeriod.String())
	v.SetDefault("pool.treasury", "")

	// Storage defaults
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data/pool")
	v.SetDefault("storage.compressor", "lz4")
	v.SetDefault("storage.cache_size", 4096)

	// History defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")
	v.SetDefault("history.max_open_conns", 4)
	v.SetDefault("history.max_idle_conns", 2)
	v.SetDefault("history.conn_max_lifetime", "1h")
}

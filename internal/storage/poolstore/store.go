// Package poolstore persists pool snapshots and withdrawal records on top
// of the keyValueDb layer. Values are JSON, optionally LZ4-compressed, and
// withdrawal reads go through an LRU cache since claimed records are
// queried long after they stop changing.
package poolstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ghostpool/gopoold/internal/core/pool"
	"github.com/ghostpool/gopoold/internal/storage/keyValueDb"
	"github.com/ghostpool/gopoold/internal/storage/poolstore/compression"
)

const (
	snapshotKey      = "pool:snapshot"
	withdrawalPrefix = "wd:"

	// minCompressionSize skips compression for values too small to gain.
	minCompressionSize = 128

	flagRaw        = 0
	flagCompressed = 1
)

// Config tunes the store.
type Config struct {
	// Compressor names the value compressor: "lz4" or "none".
	Compressor string `mapstructure:"compressor"`

	// CacheSize is the withdrawal record LRU capacity.
	CacheSize int `mapstructure:"cache_size"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Compressor: "lz4",
		CacheSize:  4096,
	}
}

// Store reads and writes pool state through a keyValueDb backend.
type Store struct {
	db         keyValueDb.DB
	compressor compression.Compressor
	cache      *lru.Cache[uint64, pool.WithdrawalRecord]
}

// New builds a store over an open database.
func New(db keyValueDb.DB, cfg Config) (*Store, error) {
	if cfg.Compressor == "" {
		cfg.Compressor = "none"
	}
	compressor, err := compression.Get(cfg.Compressor)
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	cache, err := lru.New[uint64, pool.WithdrawalRecord](cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		compressor: compressor,
		cache:      cache,
	}, nil
}

// SaveSnapshot persists the full pool snapshot under a single key.
func (s *Store) SaveSnapshot(ctx context.Context, snap pool.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Write(ctx, []byte(snapshotKey), s.encode(raw))
}

// LoadSnapshot reads the last persisted snapshot. Returns
// keyValueDb.ErrKeyNotFound when none has been saved yet.
func (s *Store) LoadSnapshot(ctx context.Context) (pool.Snapshot, error) {
	value, err := s.db.Read(ctx, []byte(snapshotKey))
	if err != nil {
		return pool.Snapshot{}, err
	}

	raw, err := s.decode(value)
	if err != nil {
		return pool.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var snap pool.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return pool.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// PutWithdrawal persists a single withdrawal record.
func (s *Store) PutWithdrawal(ctx context.Context, rec pool.WithdrawalRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal withdrawal %d: %w", rec.ID, err)
	}

	if err := s.db.Write(ctx, withdrawalKey(rec.ID), s.encode(raw)); err != nil {
		return err
	}
	s.cache.Add(rec.ID, rec)
	return nil
}

// GetWithdrawal reads a withdrawal record, served from the cache when
// possible. Returns keyValueDb.ErrKeyNotFound for unknown ids.
func (s *Store) GetWithdrawal(ctx context.Context, id uint64) (pool.WithdrawalRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}

	value, err := s.db.Read(ctx, withdrawalKey(id))
	if err != nil {
		return pool.WithdrawalRecord{}, err
	}

	raw, err := s.decode(value)
	if err != nil {
		return pool.WithdrawalRecord{}, fmt.Errorf("decode withdrawal %d: %w", id, err)
	}

	var rec pool.WithdrawalRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return pool.WithdrawalRecord{}, fmt.Errorf("unmarshal withdrawal %d: %w", id, err)
	}
	s.cache.Add(id, rec)
	return rec, nil
}

// Withdrawals iterates every persisted record in id order.
func (s *Store) Withdrawals(ctx context.Context) ([]pool.WithdrawalRecord, error) {
	start := []byte(withdrawalPrefix)
	end := append([]byte(withdrawalPrefix), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

	iter, err := s.db.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []pool.WithdrawalRecord
	for iter.Next() {
		raw, err := s.decode(iter.Value())
		if err != nil {
			return nil, err
		}
		var rec pool.WithdrawalRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, iter.Error()
}

func withdrawalKey(id uint64) []byte {
	key := make([]byte, len(withdrawalPrefix)+8)
	copy(key, withdrawalPrefix)
	binary.BigEndian.PutUint64(key[len(withdrawalPrefix):], id)
	return key
}

// encode prefixes the value with a compression flag, compressing only
// when it actually shrinks the payload.
func (s *Store) encode(raw []byte) []byte {
	if len(raw) > minCompressionSize && s.compressor.Name() != "none" {
		compressed, err := s.compressor.Compress(raw)
		if err == nil && len(compressed) < len(raw)*9/10 {
			out := make([]byte, 1+len(compressed))
			out[0] = flagCompressed
			copy(out[1:], compressed)
			return out
		}
	}

	out := make([]byte, 1+len(raw))
	out[0] = flagRaw
	copy(out[1:], raw)
	return out
}

func (s *Store) decode(value []byte) ([]byte, error) {
	if len(value) < 1 {
		return nil, fmt.Errorf("value too short: %d bytes", len(value))
	}

	payload := value[1:]
	switch value[0] {
	case flagRaw:
		return payload, nil
	case flagCompressed:
		// The flag pins the algorithm, so values written under an lz4
		// configuration stay readable after a switch to "none".
		return (&compression.LZ4Compressor{}).Decompress(payload)
	default:
		return nil, fmt.Errorf("unknown value flag: %d", value[0])
	}
}

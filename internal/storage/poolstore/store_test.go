package poolstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpool/gopoold/internal/core/pool"
	"github.com/ghostpool/gopoold/internal/storage/keyValueDb"
)

func newTestStore(t *testing.T, compressor string) *Store {
	t.Helper()

	db, err := keyValueDb.Open(keyValueDb.Config{Backend: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := New(db, Config{Compressor: compressor, CacheSize: 16})
	require.NoError(t, err)
	return store
}

func sampleRecord(id uint64) pool.WithdrawalRecord {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return pool.WithdrawalRecord{
		ID:          id,
		Owner:       "alice",
		LpBurned:    500_000,
		BaseAmount:  450_000,
		QuoteAmount: 450_000,
		RequestedAt: at,
		ClaimableAt: at.Add(14 * time.Hour),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, compressor := range []string{"none", "lz4"} {
		t.Run(compressor, func(t *testing.T) {
			store := newTestStore(t, compressor)
			ctx := context.Background()

			snap := pool.Snapshot{
				State: pool.State{
					ReserveBase:  1_000_000_000,
					ReserveQuote: 900_000_000,
					StakedBase:   900_000_000,
					BufferBase:   100_000_000,
				},
				LpTotalSupply:     1_000_000_000,
				LpBalances:        map[string]uint64{"alice": 999_999_000, "pool:locked": 1000},
				WithdrawalCounter: 2,
			}

			require.NoError(t, store.SaveSnapshot(ctx, snap))
			got, err := store.LoadSnapshot(ctx)
			require.NoError(t, err)

			assert.Equal(t, snap.State, got.State)
			assert.Equal(t, snap.LpBalances, got.LpBalances)
			assert.Equal(t, snap.WithdrawalCounter, got.WithdrawalCounter)
		})
	}
}

func TestLoadSnapshotEmptyStore(t *testing.T) {
	store := newTestStore(t, "lz4")

	_, err := store.LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
}

func TestWithdrawalRoundTrip(t *testing.T) {
	store := newTestStore(t, "lz4")
	ctx := context.Background()

	rec := sampleRecord(7)
	require.NoError(t, store.PutWithdrawal(ctx, rec))

	got, err := store.GetWithdrawal(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, rec.Owner, got.Owner)
	assert.Equal(t, rec.BaseAmount, got.BaseAmount)
	assert.True(t, got.ClaimableAt.Equal(rec.ClaimableAt))

	_, err = store.GetWithdrawal(ctx, 99)
	assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
}

func TestGetWithdrawalUsesCache(t *testing.T) {
	db, err := keyValueDb.Open(keyValueDb.Config{Backend: "memory"})
	require.NoError(t, err)

	store, err := New(db, Config{Compressor: "none", CacheSize: 16})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutWithdrawal(ctx, sampleRecord(3)))

	// Closing the backend proves the second read never touches it.
	require.NoError(t, db.Close())

	got, err := store.GetWithdrawal(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.ID)
}

func TestWithdrawalsOrderedById(t *testing.T) {
	store := newTestStore(t, "lz4")
	ctx := context.Background()

	for _, id := range []uint64{5, 1, 300, 42} {
		require.NoError(t, store.PutWithdrawal(ctx, sampleRecord(id)))
	}

	recs, err := store.Withdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	var ids []uint64
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []uint64{1, 5, 42, 300}, ids)
}

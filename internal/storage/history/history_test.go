package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()

	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "history.db")

	j, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	events := []pool.Event{
		pool.LiquidityAdded{Provider: "alice", BaseIn: 100, QuoteIn: 100, LpMinted: 90},
		pool.Swap{Sender: "bob", BaseIn: 10, QuoteOut: 9},
		pool.Compounded{RewardsHarvested: 50, ProtocolFee: 5, RewardsToPool: 45},
	}
	for i, ev := range events {
		require.NoError(t, j.Append(ctx, at.Add(time.Duration(i)*time.Minute), ev.EventType(), ev))
	}

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "compounded", entries[0].Kind)
	assert.Equal(t, "swap", entries[1].Kind)
	assert.Equal(t, "liquidity_added", entries[2].Kind)
	assert.True(t, entries[0].At.After(entries[2].At))

	var swap pool.Swap
	require.NoError(t, json.Unmarshal(entries[1].Payload, &swap))
	assert.Equal(t, "bob", swap.Sender)
	assert.Equal(t, uint64(9), swap.QuoteOut)
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := pool.Swap{Sender: "bob", BaseIn: uint64(i + 1)}
		require.NoError(t, j.Append(ctx, time.Now(), ev.EventType(), ev))
	}

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestByKind(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	swaps := pool.Swap{Sender: "bob", BaseIn: 1}
	added := pool.LiquidityAdded{Provider: "alice", BaseIn: 1, QuoteIn: 1, LpMinted: 1}
	require.NoError(t, j.Append(ctx, time.Now(), swaps.EventType(), swaps))
	require.NoError(t, j.Append(ctx, time.Now(), added.EventType(), added))
	require.NoError(t, j.Append(ctx, time.Now(), swaps.EventType(), swaps))

	entries, err := j.ByKind(ctx, "swap", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "swap", entry.Kind)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestClosedJournalRejects(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Close())

	err := j.Append(context.Background(), time.Now(), "swap", pool.Swap{})
	assert.ErrorIs(t, err, ErrJournalClosed)
	_, err = j.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrJournalClosed)
}

func TestSinkJournalsEvents(t *testing.T) {
	j := openTestJournal(t)
	sink := NewSink(j, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sink.Run(ctx)
	}()

	sink.Emit(pool.Swap{Sender: "bob", BaseIn: 5, QuoteOut: 4})
	sink.Emit(pool.WithdrawalClaimed{Owner: "alice", WithdrawalID: 1, BaseAmount: 10})

	// Give the writer a moment, then stop and wait for the drain.
	require.Eventually(t, func() bool {
		n, err := j.Count(context.Background())
		return err == nil && n == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// Package server assembles the pool daemon: storage, journal, engine and
// the HTTP JSON-RPC front end, with a coordinated lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghostpool/gopoold/internal/assets"
	"github.com/ghostpool/gopoold/internal/config"
	"github.com/ghostpool/gopoold/internal/core/pool"
	"github.com/ghostpool/gopoold/internal/rpc"
	"github.com/ghostpool/gopoold/internal/staking"
	"github.com/ghostpool/gopoold/internal/storage/history"
	"github.com/ghostpool/gopoold/internal/storage/keyValueDb"
	"github.com/ghostpool/gopoold/internal/storage/poolstore"
)

// withdrawalQueueSize bounds the ids waiting for record persistence.
const withdrawalQueueSize = 1024

// Node owns every long-lived component of the daemon.
type Node struct {
	cfg     *config.Config
	version string

	pool    *pool.Pool
	db      keyValueDb.DB
	store   *poolstore.Store
	journal *history.Journal
	sink    *history.Sink
	rpc     *rpc.Server
	ws      *rpc.WebSocketServer
	fanout  *eventFanout
}

// eventFanout is the pool's sink: it forwards every event to the history
// sink and the websocket publisher, and queues the withdrawal ids whose
// records need persisting. It runs under the engine lock, so it never
// blocks and never does I/O.
type eventFanout struct {
	sinks []pool.Sink
	ids   chan uint64
}

func (f *eventFanout) Emit(ev pool.Event) {
	for _, s := range f.sinks {
		s.Emit(ev)
	}
	switch e := ev.(type) {
	case pool.LiquidityRemoved:
		f.enqueue(e.WithdrawalID)
	case pool.WithdrawalClaimed:
		f.enqueue(e.WithdrawalID)
	}
}

func (f *eventFanout) enqueue(id uint64) {
	select {
	case f.ids <- id:
	default:
		log.Printf("withdrawal persist queue full, dropping id %d", id)
	}
}

// Option overrides a default collaborator, mainly for tests and for
// deployments with a real validator integration.
type Option func(*collaborators)

type collaborators struct {
	staker staking.Delegator
	quote  assets.TokenTransfer
	payer  assets.Payer
}

// WithStaker replaces the standalone fake delegator.
func WithStaker(s staking.Delegator) Option {
	return func(c *collaborators) { c.staker = s }
}

// WithAssets replaces the standalone in-memory asset ledger.
func WithAssets(quote assets.TokenTransfer, payer assets.Payer) Option {
	return func(c *collaborators) { c.quote = quote; c.payer = payer }
}

// New opens storage, restores the last snapshot and wires the engine.
func New(ctx context.Context, cfg *config.Config, version string, opts ...Option) (*Node, error) {
	// Standalone defaults: a fake delegator and a single in-memory bank
	// standing in for both asset legs.
	bank := assets.NewBank()
	collab := &collaborators{
		staker: staking.NewFake(),
		quote:  bank,
		payer:  bank,
	}
	for _, opt := range opts {
		opt(collab)
	}

	db, err := keyValueDb.Open(cfg.Storage.KeyValue())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	store, err := poolstore.New(db, cfg.Storage.Store())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open pool store: %w", err)
	}

	journal, err := history.Open(ctx, cfg.History)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open history journal: %w", err)
	}
	sink := history.NewSink(journal, 256)
	ws := rpc.NewWebSocketServer()
	fanout := &eventFanout{
		sinks: []pool.Sink{sink, ws},
		ids:   make(chan uint64, withdrawalQueueSize),
	}

	p := pool.New(cfg.Pool, collab.staker, collab.quote, collab.payer, pool.WithSink(fanout))

	// Restore the last persisted state, if any. The snapshot carries the
	// accounting; withdrawal records are stored individually.
	snap, err := store.LoadSnapshot(ctx)
	switch {
	case err == nil:
		records, err := store.Withdrawals(ctx)
		if err != nil {
			journal.Close()
			db.Close()
			return nil, fmt.Errorf("load withdrawal records: %w", err)
		}
		p.Restore(snap, records)
		log.Printf("restored pool snapshot: reserves base=%d quote=%d withdrawals=%d",
			snap.State.ReserveBase, snap.State.ReserveQuote, len(records))
	case errors.Is(err, keyValueDb.ErrKeyNotFound):
		log.Printf("no pool snapshot found, starting empty")
	default:
		journal.Close()
		db.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	n := &Node{
		cfg:     cfg,
		version: version,
		pool:    p,
		db:      db,
		store:   store,
		journal: journal,
		sink:    sink,
		ws:      ws,
		fanout:  fanout,
	}
	n.rpc = rpc.NewServer(&rpc.Services{
		Pool:    p,
		Journal: journal,
		Version: version,
		Started: time.Now(),
	})
	return n, nil
}

// Pool exposes the engine, mainly for tests.
func (n *Node) Pool() *pool.Pool {
	return n.pool
}

// Handler returns the HTTP handler serving RPC, event streaming and
// health endpoints.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", n.rpc)
	mux.Handle("/rpc", n.rpc)
	mux.Handle("/ws", n.ws)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"poold"}`))
	})
	return mux
}

// Run serves until ctx is cancelled, then shuts down cleanly: the HTTP
// server drains, websocket connections close, the journal sink flushes,
// pending withdrawal records are persisted, and a final snapshot is
// written.
func (n *Node) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	addr := net.JoinHostPort(n.cfg.Server.IP, strconv.Itoa(n.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      n.Handler(),
		ReadTimeout:  n.cfg.Server.ReadTimeout,
		WriteTimeout: n.cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		log.Printf("listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		n.ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), n.cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := n.sink.Run(gCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return n.persistWithdrawals(gCtx)
	})

	g.Go(func() error {
		return n.snapshotLoop(gCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// persistWithdrawals drains the fanout's id queue, writing each record
// through the store outside the engine lock. On shutdown the queue is
// flushed before returning.
func (n *Node) persistWithdrawals(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case id := <-n.fanout.ids:
					n.putWithdrawal(id)
				default:
					return ctx.Err()
				}
			}
		case id := <-n.fanout.ids:
			n.putWithdrawal(id)
		}
	}
}

func (n *Node) putWithdrawal(id uint64) {
	rec, err := n.pool.Withdrawal(id)
	if err != nil {
		log.Printf("withdrawal %d missing at persist time: %v", id, err)
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.store.PutWithdrawal(saveCtx, rec); err != nil {
		log.Printf("persist withdrawal %d failed: %v", id, err)
	}
}

// snapshotLoop persists pool state periodically and once more on exit.
func (n *Node) snapshotLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.Server.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := n.store.SaveSnapshot(saveCtx, n.pool.Snapshot()); err != nil {
				log.Printf("final snapshot failed: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := n.store.SaveSnapshot(ctx, n.pool.Snapshot()); err != nil {
				log.Printf("snapshot failed: %v", err)
			}
		}
	}
}

// Close releases storage resources. Call after Run has returned.
func (n *Node) Close() error {
	var firstErr error
	if err := n.journal.Close(); err != nil {
		firstErr = err
	}
	if err := n.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

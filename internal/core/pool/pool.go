// Package pool implements the staking-aware constant-product AMM engine:
// reserve accounting, LP share issuance, swaps, the buffer/staked split,
// the time-locked withdrawal queue, and reward compounding.
//
// A Pool is a single logical actor. Every public operation takes the pool
// mutex for its full duration, external staking and transfer calls
// included, so operations are linearizable and no caller can observe a
// partially updated reserve split.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ghostpool/gopoold/internal/assets"
	"github.com/ghostpool/gopoold/internal/staking"
)

// Pool couples one staking-native base asset with one fungible quote asset.
type Pool struct {
	mu sync.Mutex

	params Params
	state  State
	lp     *lpLedger

	withdrawalCounter uint64
	withdrawals       map[uint64]*WithdrawalRecord
	userWithdrawals   map[string][]uint64

	staker staking.Delegator
	quote  assets.TokenTransfer
	payer  assets.Payer
	sink   Sink

	now func() time.Time
}

// Option tweaks pool construction.
type Option func(*Pool)

// WithClock injects a deterministic time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithSink sets the notification sink.
func WithSink(s Sink) Option {
	return func(p *Pool) { p.sink = s }
}

// New builds an empty pool around the injected external collaborators.
func New(params Params, staker staking.Delegator, quote assets.TokenTransfer, payer assets.Payer, opts ...Option) *Pool {
	p := &Pool{
		params:          params.withDefaults(),
		lp:              newLpLedger(),
		withdrawals:     make(map[uint64]*WithdrawalRecord),
		userWithdrawals: make(map[string][]uint64),
		staker:          staker,
		quote:           quote,
		payer:           payer,
		sink:            NewMemorySink(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Params returns the pool's configuration.
func (p *Pool) Params() Params {
	return p.params
}

// Now reads the pool's clock. Callers deriving withdrawal status must use
// this clock, not the wall clock, so their answer matches what Claim will
// decide.
func (p *Pool) Now() time.Time {
	return p.now()
}

// emit forwards a committed event to the sink.
func (p *Pool) emit(ev Event) {
	if p.sink != nil {
		p.sink.Emit(ev)
	}
}

// poolCtx is the context handed to external staking calls. Operations are
// synchronous and either fully commit or fully abort, so there is nothing
// to cancel; the staking implementation applies its own timeouts.
func (p *Pool) poolCtx() context.Context {
	return context.Background()
}

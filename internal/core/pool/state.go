package pool

import "time"

// Default pool parameters.
const (
	// DefaultBufferTargetBps keeps 10% of the base reserve unstaked.
	DefaultBufferTargetBps = 1000

	// DefaultSwapFeeBps is the 0.3% constant-product trading fee.
	DefaultSwapFeeBps = 30

	// DefaultProtocolFeeBps takes 10% of harvested staking rewards.
	DefaultProtocolFeeBps = 1000

	// DefaultMinimumLiquidity is the LP amount locked forever on the first
	// deposit to keep the share price manipulable-free on an empty pool.
	DefaultMinimumLiquidity = 1000

	// DefaultUnbondingPeriod is the delay between a base-asset withdrawal
	// request and its claimability.
	DefaultUnbondingPeriod = 14 * time.Hour
)

// lockedLpAccount holds the permanently locked minimum liquidity. It is not
// a real account; nothing can ever spend from it.
const lockedLpAccount = "pool:locked"

// Params are the per-pool configuration knobs. Zero values are replaced by
// defaults in New.
type Params struct {
	BufferTargetBps  uint64        `mapstructure:"buffer_target_bps"`
	SwapFeeBps       uint64        `mapstructure:"swap_fee_bps"`
	ProtocolFeeBps   uint64        `mapstructure:"protocol_fee_bps"`
	MinimumLiquidity uint64        `mapstructure:"minimum_liquidity"`
	UnbondingPeriod  time.Duration `mapstructure:"unbonding_period"`

	// Treasury receives the protocol's share of harvested rewards.
	Treasury string `mapstructure:"treasury"`
}

// withDefaults fills unset fields.
func (p Params) withDefaults() Params {
	if p.BufferTargetBps == 0 {
		p.BufferTargetBps = DefaultBufferTargetBps
	}
	if p.SwapFeeBps == 0 {
		p.SwapFeeBps = DefaultSwapFeeBps
	}
	if p.ProtocolFeeBps == 0 {
		p.ProtocolFeeBps = DefaultProtocolFeeBps
	}
	if p.MinimumLiquidity == 0 {
		p.MinimumLiquidity = DefaultMinimumLiquidity
	}
	if p.UnbondingPeriod == 0 {
		p.UnbondingPeriod = DefaultUnbondingPeriod
	}
	return p
}

// State is the pool's accounting snapshot. StakedBase+BufferBase equals
// ReserveBase whenever an operation is not in flight.
type State struct {
	ReserveBase  uint64
	ReserveQuote uint64
	StakedBase   uint64
	BufferBase   uint64
}

// WithdrawalStatus is derived from the claimed flag and the clock; only
// CLAIMED is persisted.
type WithdrawalStatus string

const (
	StatusPending WithdrawalStatus = "PENDING"
	StatusReady   WithdrawalStatus = "READY"
	StatusClaimed WithdrawalStatus = "CLAIMED"
)

// WithdrawalRecord is the time-locked base-asset leg of a liquidity
// removal. Records are immutable once created except for the Claimed flag,
// and are never deleted.
type WithdrawalRecord struct {
	ID          uint64    `json:"id"`
	Owner       string    `json:"owner"`
	LpBurned    uint64    `json:"lp_burned"`
	BaseAmount  uint64    `json:"base_amount"`
	QuoteAmount uint64    `json:"quote_amount"`
	RequestedAt time.Time `json:"requested_at"`
	ClaimableAt time.Time `json:"claimable_at"`
	Claimed     bool      `json:"claimed"`
}

// StatusAt derives the record's lifecycle state at the given time.
func (r *WithdrawalRecord) StatusAt(now time.Time) WithdrawalStatus {
	switch {
	case r.Claimed:
		return StatusClaimed
	case now.Before(r.ClaimableAt):
		return StatusPending
	default:
		return StatusReady
	}
}

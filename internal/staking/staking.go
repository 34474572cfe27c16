// Package staking defines the delegation interface the pool engine uses to
// put base-asset reserves to work, plus a deterministic in-memory
// implementation for tests and standalone runs.
package staking

import (
	"context"
	"errors"
)

// Delegator is the external staking surface consumed by the pool engine.
// Implementations are expected to be synchronous; any failure propagates to
// the caller and aborts the enclosing pool operation.
type Delegator interface {
	// Delegate stakes amount with the configured validator.
	Delegate(ctx context.Context, amount uint64) error

	// Undelegate initiates unstaking of amount. The released funds become
	// spendable only after the network's unbonding period.
	Undelegate(ctx context.Context, amount uint64) error

	// PendingReward returns the reward accrued since the last withdrawal.
	PendingReward(ctx context.Context) (uint64, error)

	// WithdrawReward harvests all pending rewards and returns the amount.
	WithdrawReward(ctx context.Context) (uint64, error)
}

// ErrInsufficientStake is returned by Undelegate when the requested amount
// exceeds the delegated total.
var ErrInsufficientStake = errors.New("staking: undelegate amount exceeds delegated total")

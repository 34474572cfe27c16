package staking

import (
	"context"
	"sync"
)

// Fake is a deterministic Delegator for tests and standalone mode. It
// tracks the delegated total and lets callers accrue synthetic rewards.
type Fake struct {
	mu        sync.Mutex
	delegated uint64
	pending   uint64

	// Fail points. When set, the corresponding call returns the error.
	DelegateErr   error
	UndelegateErr error
	RewardErr     error
}

// NewFake returns an empty fake delegator.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Delegate(_ context.Context, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DelegateErr != nil {
		return f.DelegateErr
	}
	f.delegated += amount
	return nil
}

func (f *Fake) Undelegate(_ context.Context, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UndelegateErr != nil {
		return f.UndelegateErr
	}
	if amount > f.delegated {
		return ErrInsufficientStake
	}
	f.delegated -= amount
	return nil
}

func (f *Fake) PendingReward(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RewardErr != nil {
		return 0, f.RewardErr
	}
	return f.pending, nil
}

func (f *Fake) WithdrawReward(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RewardErr != nil {
		return 0, f.RewardErr
	}
	r := f.pending
	f.pending = 0
	return r, nil
}

// AccrueReward adds synthetic staking yield to the pending balance.
func (f *Fake) AccrueReward(amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending += amount
}

// Delegated reports the currently delegated total.
func (f *Fake) Delegated() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delegated
}

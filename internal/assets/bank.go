package assets

import "sync"

// Bank is an in-memory asset ledger. It backs tests and standalone server
// mode, where no external token contract or native runtime exists. One Bank
// instance tracks a single asset.
type Bank struct {
	mu       sync.Mutex
	balances map[AccountID]uint64

	// FailNext, when set, makes the next transfer fail with the given
	// error and then clears itself. Used to exercise abort paths.
	FailNext error
}

// NewBank returns an empty ledger.
func NewBank() *Bank {
	return &Bank{balances: make(map[AccountID]uint64)}
}

// Mint credits amount to an account.
func (b *Bank) Mint(account AccountID, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// BalanceOf reports an account's balance.
func (b *Bank) BalanceOf(account AccountID) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Transfer moves amount from the pool's implicit holdings to an account.
// The Bank does not model the pool's own balance; Transfer simply credits.
func (b *Bank) Transfer(to AccountID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	b.balances[to] += amount
	return nil
}

// TransferFrom moves amount between two accounts, debiting the owner.
func (b *Bank) TransferFrom(owner, to AccountID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	bal, ok := b.balances[owner]
	if !ok {
		return ErrUnknownAccount
	}
	if bal < amount {
		return ErrInsufficientBalance
	}
	b.balances[owner] = bal - amount
	b.balances[to] += amount
	return nil
}

// PayTo credits amount to an account. The Bank treats base-asset payouts
// the same way as quote transfers.
func (b *Bank) PayTo(to AccountID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	b.balances[to] += amount
	return nil
}

func (b *Bank) takeFailure() error {
	if b.FailNext != nil {
		err := b.FailNext
		b.FailNext = nil
		return err
	}
	return nil
}

// Package assets defines the transfer surfaces the pool engine uses to move
// the quote asset (token ledger semantics) and the base asset (native value
// payouts), plus an in-memory Bank implementing both.
package assets

import "errors"

// AccountID identifies an asset holder.
type AccountID = string

// TokenTransfer moves the quote asset. The engine pulls deposits with
// TransferFrom (requires the owner's prior approval at the token layer) and
// pays users with Transfer.
type TokenTransfer interface {
	Transfer(to AccountID, amount uint64) error
	TransferFrom(owner, to AccountID, amount uint64) error
}

// Payer pays out the base asset from the pool's native balance.
type Payer interface {
	PayTo(to AccountID, amount uint64) error
}

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("assets: insufficient balance")

	// ErrUnknownAccount is returned for transfers from accounts that were
	// never funded.
	ErrUnknownAccount = errors.New("assets: unknown account")
)

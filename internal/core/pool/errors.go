package pool

import (
	"errors"
	"fmt"
)

// Sentinel errors for every failure the engine can surface. Callers branch
// with errors.Is; none of these are retried internally.
var (
	// ErrZeroAmount rejects zero deposit, swap, or burn amounts before any
	// state is touched.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrInsufficientInitialLiquidity means the first deposit's geometric
	// mean does not exceed the permanently locked minimum.
	ErrInsufficientInitialLiquidity = errors.New("initial liquidity below locked minimum")

	// ErrSlippageExceeded means a computed output fell below the caller's
	// stated minimum.
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrInsufficientLpBalance means the caller tried to burn more LP than
	// they hold.
	ErrInsufficientLpBalance = errors.New("insufficient lp balance")

	// ErrInsufficientLiquidity means a swap would drain or exceed the
	// output-side reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInsufficientBuffer means a quote-to-base swap asked for more base
	// asset than the unstaked buffer holds.
	ErrInsufficientBuffer = errors.New("insufficient buffer")

	// ErrWithdrawalNotFound means no withdrawal record exists for the id.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrNotOwner means the claimer is not the record's owner.
	ErrNotOwner = errors.New("not the withdrawal owner")

	// ErrAlreadyClaimed means the record was claimed before.
	ErrAlreadyClaimed = errors.New("withdrawal already claimed")

	// ErrStillUnbonding means the unbonding period has not elapsed.
	ErrStillUnbonding = errors.New("withdrawal still unbonding")

	// ErrExternalCall wraps a staking or transfer failure. The enclosing
	// operation aborts with pool state exactly as before the call.
	ErrExternalCall = errors.New("external call failed")

	// ErrOverflow means an accounting computation exceeded 64 bits.
	ErrOverflow = errors.New("arithmetic overflow")
)

// externalErr wraps cause so errors.Is(err, ErrExternalCall) holds while
// the underlying failure stays inspectable.
func externalErr(what string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalCall, what, cause)
}

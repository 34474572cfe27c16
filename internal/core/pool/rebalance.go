package pool

import "github.com/ghostpool/gopoold/internal/core/poolmath"

// stakeExcess returns how much of the buffer should be delegated so it
// settles at its target fraction of the base reserve. Zero when the buffer
// is at or below target: the engine never unstakes to refill a low buffer;
// that is resolved by future deposits and base-in swaps, or surfaces as
// ErrInsufficientBuffer on reverse swaps.
func stakeExcess(reserveBase, bufferBase, targetBps uint64) uint64 {
	target, err := poolmath.MulDiv(reserveBase, targetBps, poolmath.BpsDenominator)
	if err != nil {
		// targetBps is validated <= 10000, so the quotient is bounded by
		// reserveBase and this cannot trip.
		return 0
	}
	if bufferBase <= target {
		return 0
	}
	return bufferBase - target
}

// Package poolmath provides exact integer arithmetic for pool accounting.
// All amounts are uint64; intermediate products use 128-bit math via
// math/bits so no precision is lost and no floats are involved.
package poolmath

import (
	"errors"
	"math/bits"
)

// BpsDenominator is the basis-point scale used for all fee and target math.
const BpsDenominator = 10_000

var (
	// ErrOverflow is returned when a result does not fit in 64 bits.
	ErrOverflow = errors.New("poolmath: result overflows uint64")

	// ErrDivideByZero is returned when a denominator is zero.
	ErrDivideByZero = errors.New("poolmath: division by zero")
)

// MulDiv returns floor(a * b / den) using a full 128-bit intermediate
// product. It returns ErrDivideByZero when den is zero and ErrOverflow
// when the quotient does not fit in 64 bits.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		// bits.Div64 panics on quotient overflow; reject first.
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrOverflow when the subtraction would wrap.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// ApplyFeeBps returns amount with a basis-point fee deducted:
// amount * (10000 - feeBps) / 10000. feeBps above the denominator is
// treated as a 100% fee.
func ApplyFeeBps(amount, feeBps uint64) uint64 {
	if feeBps >= BpsDenominator {
		return 0
	}
	out, err := MulDiv(amount, BpsDenominator-feeBps, BpsDenominator)
	if err != nil {
		// Unreachable for feeBps < 10000: quotient <= amount.
		return 0
	}
	return out
}

// FeePortionBps returns amount * feeBps / 10000, the fee itself.
func FeePortionBps(amount, feeBps uint64) uint64 {
	if feeBps > BpsDenominator {
		feeBps = BpsDenominator
	}
	out, err := MulDiv(amount, feeBps, BpsDenominator)
	if err != nil {
		return amount
	}
	return out
}

// Isqrt returns floor(sqrt(hi:lo)) of a 128-bit unsigned integer given as
// two 64-bit halves. Newton iteration seeded above the root from the high
// half; the seed (isqrt64(hi)+1)<<32 always exceeds the true root, so the
// sequence decreases monotonically onto it. The root is at least hi, so
// bits.Div64 never sees an overflowing quotient while x > hi, and x == hi
// only once the root itself equals hi.
func Isqrt(hi, lo uint64) uint64 {
	if hi == 0 {
		return isqrt64(lo)
	}
	x := ^uint64(0)
	if s := isqrt64(hi); s < 1<<32-1 {
		x = (s + 1) << 32
	}
	for x > hi {
		q, _ := bits.Div64(hi, lo, x)
		// Overflow-safe floor((x+q)/2).
		y := (x >> 1) + (q >> 1) + (x & q & 1)
		if y >= x {
			break
		}
		x = y
	}
	return x
}

// IsqrtProduct returns floor(sqrt(a * b)) without overflowing.
func IsqrtProduct(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return Isqrt(hi, lo)
}

// isqrt64 is the Newton/Babylonian integer square root for 64-bit inputs.
func isqrt64(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

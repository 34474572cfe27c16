package pool

import (
	"github.com/ghostpool/gopoold/internal/core/poolmath"
)

// amountOut is the constant-product formula with a basis-point fee:
//
//	effIn = amountIn * (10000 - feeBps) / 10000
//	out   = effIn * reserveOut / (reserveIn + effIn)
//
// The fee stays in the input-side reserve, so reserveIn*reserveOut never
// decreases across a trade. Output is zero for empty reserves or input.
func amountOut(amountIn, reserveIn, reserveOut, feeBps uint64) uint64 {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0
	}
	effIn := poolmath.ApplyFeeBps(amountIn, feeBps)
	den, err := poolmath.CheckedAdd(reserveIn, effIn)
	if err != nil {
		return 0
	}
	out, err := poolmath.MulDiv(effIn, reserveOut, den)
	if err != nil {
		// effIn/den < 1 bounds the quotient by reserveOut; unreachable.
		return 0
	}
	return out
}

// SwapBaseForQuote trades baseIn for the quote asset. The incoming base
// joins the buffer and the usual rebalance stakes any excess before the
// trade commits.
func (p *Pool) SwapBaseForQuote(sender string, baseIn, minQuoteOut uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if baseIn == 0 {
		return 0, ErrZeroAmount
	}

	quoteOut := amountOut(baseIn, p.state.ReserveBase, p.state.ReserveQuote, p.params.SwapFeeBps)
	if quoteOut < minQuoteOut {
		return 0, ErrSlippageExceeded
	}
	// Strict bound: the pool never fully drains one side.
	if quoteOut >= p.state.ReserveQuote {
		return 0, ErrInsufficientLiquidity
	}

	newReserveBase, err := poolmath.CheckedAdd(p.state.ReserveBase, baseIn)
	if err != nil {
		return 0, ErrOverflow
	}
	newBuffer := p.state.BufferBase + baseIn
	excess := stakeExcess(newReserveBase, newBuffer, p.params.BufferTargetBps)

	if excess > 0 {
		if err := p.staker.Delegate(p.poolCtx(), excess); err != nil {
			return 0, externalErr("delegate", err)
		}
	}
	if err := p.quote.Transfer(sender, quoteOut); err != nil {
		if excess > 0 {
			_ = p.staker.Undelegate(p.poolCtx(), excess)
		}
		return 0, externalErr("quote transfer out", err)
	}

	p.state.ReserveBase = newReserveBase
	p.state.ReserveQuote -= quoteOut
	p.state.BufferBase = newBuffer - excess
	p.state.StakedBase += excess

	p.emit(Swap{Sender: sender, BaseIn: baseIn, QuoteOut: quoteOut})
	return quoteOut, nil
}

// SwapQuoteForBase trades quoteIn for the base asset. Base output settles
// from the unstaked buffer only; a request beyond the buffer fails with
// ErrInsufficientBuffer rather than queueing an unbond.
func (p *Pool) SwapQuoteForBase(sender string, quoteIn, minBaseOut uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if quoteIn == 0 {
		return 0, ErrZeroAmount
	}

	baseOut := amountOut(quoteIn, p.state.ReserveQuote, p.state.ReserveBase, p.params.SwapFeeBps)
	if baseOut < minBaseOut {
		return 0, ErrSlippageExceeded
	}
	if baseOut > p.state.BufferBase {
		return 0, ErrInsufficientBuffer
	}

	newReserveQuote, err := poolmath.CheckedAdd(p.state.ReserveQuote, quoteIn)
	if err != nil {
		return 0, ErrOverflow
	}

	if err := p.quote.TransferFrom(sender, poolAccount, quoteIn); err != nil {
		return 0, externalErr("quote transfer in", err)
	}
	if err := p.payer.PayTo(sender, baseOut); err != nil {
		_ = p.quote.Transfer(sender, quoteIn)
		return 0, externalErr("base payout", err)
	}

	p.state.ReserveQuote = newReserveQuote
	p.state.ReserveBase -= baseOut
	p.state.BufferBase -= baseOut

	p.emit(Swap{Sender: sender, QuoteIn: quoteIn, BaseOut: baseOut})
	return baseOut, nil
}

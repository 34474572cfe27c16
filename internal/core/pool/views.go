package pool

import "github.com/ghostpool/gopoold/internal/core/poolmath"

// Reserves returns the current base and quote reserve totals.
func (p *Pool) Reserves() (base, quote uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.ReserveBase, p.state.ReserveQuote
}

// StakingInfo returns the staked/buffer partition of the base reserve.
func (p *Pool) StakingInfo() (staked, buffer uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.StakedBase, p.state.BufferBase
}

// StateSnapshot returns a consistent copy of the accounting state.
func (p *Pool) StateSnapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// QuoteBaseForQuote quotes the output of SwapBaseForQuote without trading.
func (p *Pool) QuoteBaseForQuote(baseIn uint64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return amountOut(baseIn, p.state.ReserveBase, p.state.ReserveQuote, p.params.SwapFeeBps)
}

// QuoteQuoteForBase quotes the output of SwapQuoteForBase without trading.
func (p *Pool) QuoteQuoteForBase(quoteIn uint64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return amountOut(quoteIn, p.state.ReserveQuote, p.state.ReserveBase, p.params.SwapFeeBps)
}

// LpValue returns the underlying asset amounts lpAmount currently
// represents. Both are zero while the pool is empty.
func (p *Pool) LpValue(lpAmount uint64) (base, quote uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lp.totalSupply == 0 {
		return 0, 0
	}
	base, err := poolmath.MulDiv(lpAmount, p.state.ReserveBase, p.lp.totalSupply)
	if err != nil {
		return 0, 0
	}
	quote, err = poolmath.MulDiv(lpAmount, p.state.ReserveQuote, p.lp.totalSupply)
	if err != nil {
		return 0, 0
	}
	return base, quote
}

// LpBalanceOf reports a holder's LP balance.
func (p *Pool) LpBalanceOf(holder string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lp.balanceOf(holder)
}

// LpTotalSupply reports the LP supply, locked minimum included.
func (p *Pool) LpTotalSupply() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lp.totalSupply
}

package pool

import (
	"github.com/ghostpool/gopoold/internal/core/poolmath"
)

// poolAccount is the engine's own holding account at the quote-asset layer.
const poolAccount = "pool:reserve"

// AddLiquidity deposits baseIn and quoteIn and mints LP shares to provider.
//
// The first deposit mints isqrt(baseIn*quoteIn) minus the permanently
// locked minimum. Subsequent deposits mint the smaller of the two
// proportional ratios, so an imbalanced deposit is priced at the pool's
// current ratio and the excess side accrues to existing holders.
//
// Any base-reserve increase ends with a buffer rebalance: the buffer above
// its target fraction is delegated out before the new state commits.
func (p *Pool) AddLiquidity(provider string, baseIn, quoteIn, minLpOut uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if baseIn == 0 || quoteIn == 0 {
		return 0, ErrZeroAmount
	}

	var lpMinted uint64
	firstDeposit := p.lp.totalSupply == 0
	if firstDeposit {
		root := poolmath.IsqrtProduct(baseIn, quoteIn)
		if root <= p.params.MinimumLiquidity {
			return 0, ErrInsufficientInitialLiquidity
		}
		lpMinted = root - p.params.MinimumLiquidity
	} else {
		lpFromBase, err := poolmath.MulDiv(baseIn, p.lp.totalSupply, p.state.ReserveBase)
		if err != nil {
			return 0, ErrOverflow
		}
		lpFromQuote, err := poolmath.MulDiv(quoteIn, p.lp.totalSupply, p.state.ReserveQuote)
		if err != nil {
			return 0, ErrOverflow
		}
		lpMinted = min(lpFromBase, lpFromQuote)
	}

	if lpMinted < minLpOut {
		return 0, ErrSlippageExceeded
	}

	newReserveBase, err := poolmath.CheckedAdd(p.state.ReserveBase, baseIn)
	if err != nil {
		return 0, ErrOverflow
	}
	newReserveQuote, err := poolmath.CheckedAdd(p.state.ReserveQuote, quoteIn)
	if err != nil {
		return 0, ErrOverflow
	}
	newBuffer := p.state.BufferBase + baseIn
	excess := stakeExcess(newReserveBase, newBuffer, p.params.BufferTargetBps)

	// External legs. Quote asset is pulled first; base asset arrives as
	// native value attached to the call. A staking failure after the pull
	// refunds the quote leg so nothing moves on an aborted deposit.
	if err := p.quote.TransferFrom(provider, poolAccount, quoteIn); err != nil {
		return 0, externalErr("quote transfer in", err)
	}
	if excess > 0 {
		if err := p.staker.Delegate(p.poolCtx(), excess); err != nil {
			_ = p.quote.Transfer(provider, quoteIn)
			return 0, externalErr("delegate", err)
		}
	}

	p.state.ReserveBase = newReserveBase
	p.state.ReserveQuote = newReserveQuote
	p.state.BufferBase = newBuffer - excess
	p.state.StakedBase += excess

	if firstDeposit {
		p.lp.mint(lockedLpAccount, p.params.MinimumLiquidity)
	}
	p.lp.mint(provider, lpMinted)

	p.emit(LiquidityAdded{
		Provider: provider,
		BaseIn:   baseIn,
		QuoteIn:  quoteIn,
		LpMinted: lpMinted,
	})
	return lpMinted, nil
}

// RemoveLiquidity burns lpAmount and pays out the pro-rata share of both
// reserves. The quote leg settles immediately; the base leg becomes a
// time-locked withdrawal record claimable after the unbonding period.
// Both legs leave the accounting reserves right away.
func (p *Pool) RemoveLiquidity(provider string, lpAmount, minBaseOut, minQuoteOut uint64) (*WithdrawalRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if lpAmount == 0 {
		return nil, ErrZeroAmount
	}
	if p.lp.balanceOf(provider) < lpAmount {
		return nil, ErrInsufficientLpBalance
	}

	baseOut, err := poolmath.MulDiv(lpAmount, p.state.ReserveBase, p.lp.totalSupply)
	if err != nil {
		return nil, ErrOverflow
	}
	quoteOut, err := poolmath.MulDiv(lpAmount, p.state.ReserveQuote, p.lp.totalSupply)
	if err != nil {
		return nil, ErrOverflow
	}
	if baseOut < minBaseOut || quoteOut < minQuoteOut {
		return nil, ErrSlippageExceeded
	}

	// The base leg draws from the buffer first; only the shortfall is
	// undelegated and rides out the unbonding period.
	fromBuffer := min(baseOut, p.state.BufferBase)
	fromStaked := baseOut - fromBuffer

	if fromStaked > 0 {
		if err := p.staker.Undelegate(p.poolCtx(), fromStaked); err != nil {
			return nil, externalErr("undelegate", err)
		}
	}
	if err := p.quote.Transfer(provider, quoteOut); err != nil {
		if fromStaked > 0 {
			_ = p.staker.Delegate(p.poolCtx(), fromStaked)
		}
		return nil, externalErr("quote transfer out", err)
	}

	p.lp.burn(provider, lpAmount)
	p.state.ReserveBase -= baseOut
	p.state.ReserveQuote -= quoteOut
	p.state.BufferBase -= fromBuffer
	p.state.StakedBase -= fromStaked

	now := p.now()
	rec := &WithdrawalRecord{
		ID:          p.withdrawalCounter,
		Owner:       provider,
		LpBurned:    lpAmount,
		BaseAmount:  baseOut,
		QuoteAmount: quoteOut,
		RequestedAt: now,
		ClaimableAt: now.Add(p.params.UnbondingPeriod),
	}
	p.withdrawalCounter++
	p.withdrawals[rec.ID] = rec
	p.userWithdrawals[provider] = append(p.userWithdrawals[provider], rec.ID)

	p.emit(LiquidityRemoved{
		Provider:     provider,
		LpBurned:     lpAmount,
		BaseOut:      baseOut,
		QuoteOut:     quoteOut,
		WithdrawalID: rec.ID,
	})
	out := *rec
	return &out, nil
}

// TransferLp moves LP shares between holders.
func (p *Pool) TransferLp(from, to string, amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}
	if !p.lp.transfer(from, to, amount) {
		return ErrInsufficientLpBalance
	}
	return nil
}

package pool

import "github.com/ghostpool/gopoold/internal/core/poolmath"

// Compound harvests pending staking rewards and folds them back into the
// pool. It is permissionless: anyone may trigger it. The protocol fee goes
// to the treasury; the remainder raises ReserveBase and BufferBase without
// minting LP, which is the sole way LP share value appreciates from yield.
// Zero pending rewards is a no-op, not an error.
func (p *Pool) Compound() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.staker.PendingReward(p.poolCtx())
	if err != nil {
		return 0, externalErr("pending reward", err)
	}
	if pending == 0 {
		return 0, nil
	}

	harvested, err := p.staker.WithdrawReward(p.poolCtx())
	if err != nil {
		return 0, externalErr("withdraw reward", err)
	}
	if harvested == 0 {
		return 0, nil
	}

	protocolFee := poolmath.FeePortionBps(harvested, p.params.ProtocolFeeBps)
	toPool := harvested - protocolFee

	newReserveBase, err := poolmath.CheckedAdd(p.state.ReserveBase, toPool)
	if err != nil {
		return 0, ErrOverflow
	}
	newBuffer := p.state.BufferBase + toPool
	excess := stakeExcess(newReserveBase, newBuffer, p.params.BufferTargetBps)

	if excess > 0 {
		if err := p.staker.Delegate(p.poolCtx(), excess); err != nil {
			return 0, externalErr("delegate", err)
		}
	}
	if protocolFee > 0 && p.params.Treasury != "" {
		if err := p.payer.PayTo(p.params.Treasury, protocolFee); err != nil {
			if excess > 0 {
				_ = p.staker.Undelegate(p.poolCtx(), excess)
			}
			return 0, externalErr("treasury payout", err)
		}
	}

	p.state.ReserveBase = newReserveBase
	p.state.BufferBase = newBuffer - excess
	p.state.StakedBase += excess

	p.emit(Compounded{
		RewardsHarvested: harvested,
		ProtocolFee:      protocolFee,
		RewardsToPool:    toPool,
	})
	return toPool, nil
}

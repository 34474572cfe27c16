package pool

import "sort"

// Snapshot is the serializable form of the pool's reserve and LP
// accounting. Withdrawal records are not part of it; they are persisted
// individually through the store's per-record layout and handed back to
// Restore alongside the snapshot.
type Snapshot struct {
	State             State             `json:"state"`
	LpTotalSupply     uint64            `json:"lp_total_supply"`
	LpBalances        map[string]uint64 `json:"lp_balances"`
	WithdrawalCounter uint64            `json:"withdrawal_counter"`
}

// Snapshot captures the pool's accounting under the operation lock.
func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		State:             p.state,
		LpTotalSupply:     p.lp.totalSupply,
		LpBalances:        p.lp.holders(),
		WithdrawalCounter: p.withdrawalCounter,
	}
}

// Restore replaces the pool's state with a snapshot and rebuilds the
// withdrawal queue from the given records. Ids are assigned in creation
// order, so sorting by id recreates each owner's original list order.
// Intended for startup before the pool serves any operation.
func (p *Pool) Restore(snap Snapshot, records []WithdrawalRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = snap.State
	p.lp = newLpLedger()
	p.lp.totalSupply = snap.LpTotalSupply
	for holder, bal := range snap.LpBalances {
		p.lp.balances[holder] = bal
	}
	p.withdrawalCounter = snap.WithdrawalCounter

	sorted := make([]WithdrawalRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	p.withdrawals = make(map[uint64]*WithdrawalRecord, len(sorted))
	p.userWithdrawals = make(map[string][]uint64)
	for _, rec := range sorted {
		cp := rec
		p.withdrawals[cp.ID] = &cp
		p.userWithdrawals[cp.Owner] = append(p.userWithdrawals[cp.Owner], cp.ID)
	}
}

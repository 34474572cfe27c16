package pool

// Claim pays out a matured withdrawal record. A record transitions
// PENDING -> READY by clock alone; Claim performs the single permitted
// mutation (claimed = true) and transfers the base amount to the owner.
func (p *Pool) Claim(owner string, id uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.withdrawals[id]
	if !ok {
		return 0, ErrWithdrawalNotFound
	}
	if rec.Owner != owner {
		return 0, ErrNotOwner
	}
	if rec.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if p.now().Before(rec.ClaimableAt) {
		return 0, ErrStillUnbonding
	}

	if err := p.payer.PayTo(owner, rec.BaseAmount); err != nil {
		return 0, externalErr("base payout", err)
	}
	rec.Claimed = true

	p.emit(WithdrawalClaimed{
		Owner:        owner,
		WithdrawalID: id,
		BaseAmount:   rec.BaseAmount,
	})
	return rec.BaseAmount, nil
}

// UserWithdrawals returns copies of all withdrawal records ever created
// for owner, oldest first. The list only grows; claimed records stay as an
// audit trail.
func (p *Pool) UserWithdrawals(owner string) []WithdrawalRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.userWithdrawals[owner]
	out := make([]WithdrawalRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := p.withdrawals[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Withdrawal returns a copy of a single record.
func (p *Pool) Withdrawal(id uint64) (WithdrawalRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.withdrawals[id]
	if !ok {
		return WithdrawalRecord{}, ErrWithdrawalNotFound
	}
	return *rec, nil
}

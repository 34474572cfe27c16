package pool

// lpLedger tracks LP share supply and per-holder balances. It is owned by
// the Pool and only touched under the pool mutex.
type lpLedger struct {
	totalSupply uint64
	balances    map[string]uint64
}

func newLpLedger() *lpLedger {
	return &lpLedger{balances: make(map[string]uint64)}
}

func (l *lpLedger) balanceOf(holder string) uint64 {
	return l.balances[holder]
}

func (l *lpLedger) mint(holder string, amount uint64) {
	if amount == 0 {
		return
	}
	l.balances[holder] += amount
	l.totalSupply += amount
}

// burn removes amount from holder. Callers validate the balance first.
func (l *lpLedger) burn(holder string, amount uint64) {
	bal := l.balances[holder]
	if amount >= bal {
		delete(l.balances, holder)
		amount = bal
	} else {
		l.balances[holder] = bal - amount
	}
	l.totalSupply -= amount
}

func (l *lpLedger) transfer(from, to string, amount uint64) bool {
	bal := l.balances[from]
	if amount == 0 || amount > bal {
		return false
	}
	if bal == amount {
		delete(l.balances, from)
	} else {
		l.balances[from] = bal - amount
	}
	l.balances[to] += amount
	return true
}

// holders returns a copy of the balance map for snapshot/persistence.
func (l *lpLedger) holders() map[string]uint64 {
	out := make(map[string]uint64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

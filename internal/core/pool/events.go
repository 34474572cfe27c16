package pool

import "sync"

// Event is a structured notification record emitted after a committed
// operation. Concrete types mirror the engine's five operation outcomes.
type Event interface {
	EventType() string
}

// LiquidityAdded is emitted after a successful deposit.
type LiquidityAdded struct {
	Provider string
	BaseIn   uint64
	QuoteIn  uint64
	LpMinted uint64
}

// LiquidityRemoved is emitted after a successful removal. The quote leg is
// settled immediately; the base leg is referenced by WithdrawalID.
type LiquidityRemoved struct {
	Provider     string
	LpBurned     uint64
	BaseOut      uint64
	QuoteOut     uint64
	WithdrawalID uint64
}

// Swap is emitted after either swap direction. Exactly one of BaseIn/QuoteIn
// and one of BaseOut/QuoteOut is nonzero.
type Swap struct {
	Sender   string
	BaseIn   uint64
	BaseOut  uint64
	QuoteIn  uint64
	QuoteOut uint64
}

// Compounded is emitted after rewards are folded back into reserves.
type Compounded struct {
	RewardsHarvested uint64
	ProtocolFee      uint64
	RewardsToPool    uint64
}

// WithdrawalClaimed is emitted when a time-locked base payout completes.
type WithdrawalClaimed struct {
	Owner        string
	WithdrawalID uint64
	BaseAmount   uint64
}

func (LiquidityAdded) EventType() string    { return "liquidity_added" }
func (LiquidityRemoved) EventType() string  { return "liquidity_removed" }
func (Swap) EventType() string              { return "swap" }
func (Compounded) EventType() string        { return "compounded" }
func (WithdrawalClaimed) EventType() string { return "withdrawal_claimed" }

// Sink receives events from the engine. Emission happens after the state
// mutation has committed; sinks must not fail the operation.
type Sink interface {
	Emit(ev Event)
}

// MemorySink buffers events in order. Used by tests and as the default
// sink when none is configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Last returns the most recent event, or nil.
func (s *MemorySink) Last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

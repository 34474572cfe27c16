package history

import (
	"context"
	"log"
	"time"

	"github.com/ghostpool/gopoold/internal/core/pool"
)

// Sink journals engine events asynchronously. Emit is called under the
// pool's operation lock, so it must never block on the database; events
// are handed to a buffered channel and written by Run. A full buffer
// drops the event with a log line rather than stalling the engine.
type Sink struct {
	journal *Journal
	events  chan pool.Event
	now     func() time.Time
}

// NewSink wraps a journal. bufferSize bounds the number of events waiting
// to be written.
func NewSink(journal *Journal, bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Sink{
		journal: journal,
		events:  make(chan pool.Event, bufferSize),
		now:     time.Now,
	}
}

// Emit implements pool.Sink.
func (s *Sink) Emit(ev pool.Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("history: event buffer full, dropping %s", ev.EventType())
	}
}

// Run writes queued events until ctx is cancelled, then drains what is
// already buffered.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case ev := <-s.events:
			s.write(ev)
		}
	}
}

func (s *Sink) drain() {
	for {
		select {
		case ev := <-s.events:
			s.write(ev)
		default:
			return
		}
	}
}

func (s *Sink) write(ev pool.Event) {
	if err := s.journal.Append(context.Background(), s.now(), ev.EventType(), ev); err != nil {
		log.Printf("history: failed to journal %s: %v", ev.EventType(), err)
	}
}

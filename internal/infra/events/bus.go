// Package events distributes ledger events to in-process subscribers
// and, optionally, relays them to a Redis channel for external
// consumers.
package events

import (
	"sync"

	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/metrics"
)

const (
	// subscriberBuffer is each subscriber's channel capacity. A
	// subscriber that falls this far behind starts losing events.
	subscriberBuffer = 64

	// recentLimit caps the replay window handed to new consumers.
	recentLimit = 256
)

// Bus fans ledger events out to subscribers. Emit never blocks: the
// ledger calls it while holding its own lock, so a slow consumer must
// never stall a transition. Lagging subscribers lose events instead.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan domain.Event
	nextID uint64
	recent []domain.Event
	closed bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan domain.Event)}
}

// Emit delivers an event to every subscriber and appends it to the
// replay window. Implements the ledger's event sink.
func (b *Bus) Emit(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.recent = append(b.recent, ev)
	if len(b.recent) > recentLimit {
		b.recent = b.recent[len(b.recent)-recentLimit:]
	}

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			metrics.EventsDropped.Inc()
		}
	}
}

// Subscribe registers a consumer. The returned cancel func must be
// called when the consumer is done; afterwards the channel is closed.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan domain.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Recent returns up to limit of the latest events, oldest first.
func (b *Bus) Recent(limit int) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 || limit > len(b.recent) {
		limit = len(b.recent)
	}
	out := make([]domain.Event, limit)
	copy(out, b.recent[len(b.recent)-limit:])
	return out
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

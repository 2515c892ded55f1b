package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrSubscriberClosed = errors.New("bus: subscriber closed")

// Subscriber is one live connection's subscription set. Connected →
// Subscribed(tables) → Closed; Close releases every subscription and is safe
// to call concurrently with an in-flight delivery.
type Subscriber struct {
	bus *Bus

	mu     sync.Mutex
	tables map[string]struct{}
	closed bool
	ch     chan Snapshot
}

// C is the delivery channel. It holds the most recent snapshot only: when the
// consumer lags, older undelivered snapshots are replaced, never queued. The
// channel is closed by Close.
func (s *Subscriber) C() <-chan Snapshot {
	return s.ch
}

// Subscribe registers interest in table changes and seeds the delivery
// channel with the current snapshot. Registration and seed happen under the
// same lock broadcasts deliver through, so every broadcast either misses the
// subscription entirely or lands after the seed on the single latest-wins
// channel. Re-subscribing refreshes the seed.
func (s *Subscriber) Subscribe(ctx context.Context, table string) error {
	if !ValidTable(table) {
		return ErrUnknownTable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	s.tables[table] = struct{}{}

	snap, err := s.bus.SnapshotNow(ctx, table)
	if err != nil {
		// The subscription stands; the next broadcast fills the gap.
		return err
	}
	s.deliverLocked(snap)
	return nil
}

// Unsubscribe removes exactly the (connection, table) pairing.
func (s *Subscriber) Unsubscribe(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
}

// Deliver hands snap to the subscriber without blocking: if the previous
// snapshot was not yet consumed it is dropped in favor of the newer one.
// Delivering to a closed subscriber is a no-op.
func (s *Subscriber) Deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.deliverLocked(snap)
}

// deliverIfSubscribed is the broadcast path: the subscription check and the
// hand-off hold s.mu together, so a concurrent Subscribe cannot slip its seed
// between them.
func (s *Subscriber) deliverIfSubscribed(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.tables[snap.Table]; !ok {
		return
	}
	s.deliverLocked(snap)
}

func (s *Subscriber) deliverLocked(snap Snapshot) {
	select {
	case s.ch <- snap:
	default:
		// Buffer full: replace the stale snapshot. Every producer serializes
		// through s.mu, so the drain-then-send pair cannot interleave with
		// another delivery.
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}
}

// Close releases all subscriptions and closes the delivery channel. Idempotent.
func (s *Subscriber) Close() {
	s.bus.removeSubscriber(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.tables = make(map[string]struct{})
	close(s.ch)
}

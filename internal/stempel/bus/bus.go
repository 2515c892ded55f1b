// Package bus observes ledger mutations and fans aggregate snapshots out to
// live dashboard connections. It delivers full snapshots, never deltas, so
// observers reconnect or lag without reconciliation.
package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
)

// TableCheckins is the only table with a derived live view today.
const TableCheckins = "checkins"

var ErrUnknownTable = errors.New("bus: unknown table")

// ValidTable reports whether table has a derived live view.
func ValidTable(table string) bool {
	return table == TableCheckins
}

const recomputeTimeout = 5 * time.Second

// Snapshot is one full aggregate view delivered to subscribers.
type Snapshot struct {
	Table      string
	Aggregates []domain.UserAggregate
}

// Bus decouples the ledger write path from dashboard fan-out. Publish is cheap
// and non-blocking: it marks the table dirty and wakes the aggregator
// goroutine, which recomputes the view once per wake. Bursts of mutations
// coalesce into a single recompute; observers always converge on final state.
type Bus struct {
	store  store.Store
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	subs    map[*Subscriber]struct{}

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func New(st store.Store, logger *slog.Logger) *Bus {
	return &Bus{
		store:   st,
		logger:  logger,
		pending: make(map[string]struct{}),
		subs:    make(map[*Subscriber]struct{}),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the aggregator goroutine.
func (b *Bus) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop terminates the aggregator and waits for it to drain.
func (b *Bus) Stop() {
	close(b.done)
	b.wg.Wait()
}

// Publish records a committed mutation on table. The pending mark is taken
// synchronously, so the mutation is visible to the bus before the write path
// returns to its caller; the snapshot itself is computed and delivered by the
// aggregator goroutine.
func (b *Bus) Publish(table string) {
	b.mu.Lock()
	b.pending[table] = struct{}{}
	b.mu.Unlock()

	select {
	case b.kick <- struct{}{}:
	default:
		// Aggregator already has a wake queued; pending carries the work.
	}
}

// SnapshotNow computes the current aggregate view for table on the caller's
// goroutine. Used for initial delivery on subscribe and the poll fallback.
func (b *Bus) SnapshotNow(ctx context.Context, table string) (Snapshot, error) {
	if !ValidTable(table) {
		return Snapshot{}, ErrUnknownTable
	}
	aggregates, err := b.store.Checkins().AggregateByUser(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Table: table, Aggregates: aggregates}, nil
}

// NewSubscriber registers a connection-owned subscription set. The caller must
// Close it when the connection ends.
func (b *Bus) NewSubscriber() *Subscriber {
	s := &Subscriber{
		bus:    b,
		tables: make(map[string]struct{}),
		ch:     make(chan Snapshot, 1),
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	return s
}

func (b *Bus) run() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case <-b.kick:
		}

		for _, table := range b.takePending() {
			b.broadcast(table)
		}
	}
}

func (b *Bus) takePending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	tables := make([]string, 0, len(b.pending))
	for table := range b.pending {
		tables = append(tables, table)
	}
	b.pending = make(map[string]struct{})
	return tables
}

// broadcast recomputes the view for table and hands it to every interested
// subscriber. Each hand-off is non-blocking, so one slow connection cannot
// stall the aggregator or its peers.
func (b *Bus) broadcast(table string) {
	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()

	snap, err := b.SnapshotNow(ctx, table)
	if err != nil {
		b.logger.Error("aggregate recompute failed", "table", table, "error", err)
		return
	}

	b.mu.Lock()
	targets := make([]*Subscriber, 0, len(b.subs))
	for s := range b.subs {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	for _, s := range targets {
		s.deliverIfSubscribed(snap)
	}
}

func (b *Bus) removeSubscriber(s *Subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

package store

import (
	"context"
	"errors"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrForeignKey    = errors.New("store: referenced row does not exist")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. The ledger's hard invariants (unique device per user, unique
// user+event check-in) live inside the driver as atomic conditional operations;
// callers never need external locks.
type Store interface {
	Users() Users
	Events() Events
	Checkins() Checkins

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// InsertIfAbsent inserts u unless a user with the same device_id already
	// exists, and returns the surviving row. Safe under arbitrary concurrent
	// callers: exactly one row per device_id ever exists and every caller
	// observes it. created reports whether this call inserted the row.
	InsertIfAbsent(ctx context.Context, u domain.User) (survivor domain.User, created bool, err error)

	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByDeviceID returns the user owning a device id.
	GetByDeviceID(ctx context.Context, deviceID string) (domain.User, error)

	// UpdateDisplayName mutates display_name and bumps updated_at.
	UpdateDisplayName(ctx context.Context, userID string, displayName string) error
}

type Events interface {
	// Create inserts a new event (id is provided by the service).
	Create(ctx context.Context, e domain.Event) error

	// GetByID resolves an event by id regardless of is_active, so QR payloads
	// issued for since-deactivated events still resolve.
	GetByID(ctx context.Context, id string) (domain.Event, error)

	// ListActive returns active events, newest first.
	ListActive(ctx context.Context) ([]domain.Event, error)

	// ListAll returns every event including inactive ones, newest first.
	ListAll(ctx context.Context) ([]domain.Event, error)

	// SetActive toggles the is_active flag.
	SetActive(ctx context.Context, eventID string, active bool) error
}

type Checkins interface {
	// InsertIfAbsent conditionally inserts c, keyed by (user_id, event_id).
	// It is a single atomic statement, not a read-then-write: concurrent
	// duplicate attempts resolve to one surviving row. inserted reports
	// whether this call won. An event_id with no events row fails with
	// ErrForeignKey.
	InsertIfAbsent(ctx context.Context, c domain.Checkin) (inserted bool, err error)

	// ListByUser returns the user's check-ins, descending by collected_at.
	ListByUser(ctx context.Context, userID string) ([]domain.Checkin, error)

	// AggregateByUser computes the leaderboard view across all users,
	// highest check-in count first.
	AggregateByUser(ctx context.Context) ([]domain.UserAggregate, error)
}

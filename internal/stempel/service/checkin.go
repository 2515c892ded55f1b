package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/pkg/idx"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

var (
	ErrInvalidEvent = errors.New("invalid event reference")
	ErrUnknownEvent = errors.New("unknown event")
)

// CheckinService is the transactional check-in path: resolve identity, record
// the stamp at most once, publish the mutation.
type CheckinService struct {
	Store    store.Store
	Bus      *bus.Bus
	Identity *IdentityService
}

// CheckinReceipt is the definitive answer Record gives a scanner.
type CheckinReceipt struct {
	Outcome   domain.CheckinOutcome
	EventID   string
	EventName string
}

// Record attempts to collect eventID for the device. The insert is a single
// atomic conditional operation; concurrent retries, rapid re-scans and
// replayed requests all resolve to exactly one surviving row, with one caller
// seeing OutcomeRecorded and the rest OutcomeAlreadyCollected. The mutation is
// published to the change bus before Record returns.
func (s *CheckinService) Record(
	ctx context.Context,
	deviceID string,
	eventID string,
	eventName string,
) (CheckinReceipt, error) {
	log := slogx.FromContext(ctx)

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return CheckinReceipt{}, ErrInvalidEvent
	}

	// 1. Resolve the device to a user, creating one on first sight.
	user, err := s.Identity.ResolveOrCreate(ctx, deviceID)
	if err != nil {
		return CheckinReceipt{}, err
	}

	// 2. QR payloads carry the event name; older ones may not. Fall back to
	// the ledger's copy so the denormalized name is never empty.
	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		event, err := s.Store.Events().GetByID(ctx, eventID)
		if errors.Is(err, store.ErrNotFound) {
			return CheckinReceipt{}, ErrUnknownEvent
		}
		if err != nil {
			return CheckinReceipt{}, storeUnavailable(err)
		}
		eventName = event.Name
	}

	// 3. Conditional insert keyed on (user_id, event_id). Not a read-then-
	// write: the unique constraint is the only defense against
	// double-collection.
	checkin := domain.Checkin{
		ID:          idx.New().String(),
		UserID:      user.ID,
		EventID:     eventID,
		EventName:   eventName,
		CollectedAt: time.Now().UTC(),
	}

	receipt := CheckinReceipt{EventID: eventID, EventName: eventName}

	inserted, err := s.Store.Checkins().InsertIfAbsent(ctx, checkin)
	if err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			log.Warn("check-in against unknown event",
				slog.String("event_id", eventID),
				slog.String("user_id", user.ID),
			)
			return CheckinReceipt{}, ErrUnknownEvent
		}
		log.Error("check-in insert failed", slog.String("event_id", eventID), slog.Any("error", err))
		return CheckinReceipt{}, storeUnavailable(err)
	}

	if !inserted {
		log.Debug("duplicate check-in",
			slog.String("user_id", user.ID),
			slog.String("event_id", eventID),
		)
		receipt.Outcome = domain.OutcomeAlreadyCollected
		return receipt, nil
	}

	// 4. Committed: make the mutation visible to dashboard observers.
	s.Bus.Publish(bus.TableCheckins)

	log.Info("check-in recorded",
		slog.String("user_id", user.ID),
		slog.String("event_id", eventID),
		slog.String("event_name", eventName),
	)
	receipt.Outcome = domain.OutcomeRecorded
	return receipt, nil
}

// ListForDevice returns the device's check-ins, newest first. Touching the
// list lazily creates the user like any other first contact.
func (s *CheckinService) ListForDevice(ctx context.Context, deviceID string) ([]domain.Checkin, error) {
	user, err := s.Identity.ResolveOrCreate(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	checkins, err := s.Store.Checkins().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return checkins, nil
}

// Leaderboard is the poll fallback for dashboards without a live connection.
func (s *CheckinService) Leaderboard(ctx context.Context) ([]domain.UserAggregate, error) {
	aggregates, err := s.Store.Checkins().AggregateByUser(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return aggregates, nil
}

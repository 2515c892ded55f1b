package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/store"
)

func newCheckinService(t *testing.T) (*CheckinService, store.Store) {
	t.Helper()

	st := newTestStore(t)
	b := bus.New(st, slog.New(slog.DiscardHandler))
	b.Start()
	t.Cleanup(b.Stop)

	return &CheckinService{
		Store:    st,
		Bus:      b,
		Identity: &IdentityService{Store: st},
	}, st
}

func seedEvent(t *testing.T, st store.Store, name string) domain.Event {
	t.Helper()

	event := domain.Event{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: "admin",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Events().Create(context.Background(), event))
	return event
}

func TestCheckinRecord(t *testing.T) {
	t.Parallel()

	svc, st := newCheckinService(t)
	ctx := context.Background()

	event := seedEvent(t, st, "Keynote")

	t.Run("first scan records", func(t *testing.T) {
		receipt, err := svc.Record(ctx, "device-1", event.ID, event.Name)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeRecorded, receipt.Outcome)
		require.Equal(t, event.ID, receipt.EventID)
		require.Equal(t, "Keynote", receipt.EventName)
	})

	t.Run("repeat scan reports already collected", func(t *testing.T) {
		receipt, err := svc.Record(ctx, "device-1", event.ID, event.Name)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeAlreadyCollected, receipt.Outcome)
	})

	t.Run("missing name falls back to ledger copy", func(t *testing.T) {
		receipt, err := svc.Record(ctx, "device-2", event.ID, "")
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeRecorded, receipt.Outcome)
		require.Equal(t, "Keynote", receipt.EventName)
	})

	t.Run("unknown event without name", func(t *testing.T) {
		_, err := svc.Record(ctx, "device-1", uuid.NewString(), "")
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("unknown event with name fails the foreign key", func(t *testing.T) {
		_, err := svc.Record(ctx, "device-1", uuid.NewString(), "Ghost Event")
		require.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("empty event id", func(t *testing.T) {
		_, err := svc.Record(ctx, "device-1", "  ", "whatever")
		require.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("empty device id", func(t *testing.T) {
		_, err := svc.Record(ctx, "", event.ID, event.Name)
		require.ErrorIs(t, err, ErrInvalidDeviceID)
	})
}

// A rapid double-tap or replayed request must yield exactly one recorded
// outcome no matter how the attempts interleave.
func TestCheckinRecordConcurrentBurst(t *testing.T) {
	t.Parallel()

	svc, st := newCheckinService(t)
	ctx := context.Background()

	event := seedEvent(t, st, "Contested")

	const attempts = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			receipt, err := svc.Record(ctx, "burst-device", event.ID, event.Name)
			require.NoError(t, err)

			if receipt.Outcome == domain.OutcomeRecorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, recorded)

	checkins, err := svc.ListForDevice(ctx, "burst-device")
	require.NoError(t, err)
	require.Len(t, checkins, 1)
}

func TestCheckinInactiveEventStillRecords(t *testing.T) {
	t.Parallel()

	svc, st := newCheckinService(t)
	ctx := context.Background()

	event := seedEvent(t, st, "Retired")
	require.NoError(t, st.Events().SetActive(ctx, event.ID, false))

	// A printed QR code keeps working after the event is hidden from listings
	receipt, err := svc.Record(ctx, "late-device", event.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeRecorded, receipt.Outcome)
	require.Equal(t, "Retired", receipt.EventName)
}

func TestCheckinListForDevice(t *testing.T) {
	t.Parallel()

	svc, st := newCheckinService(t)
	ctx := context.Background()

	eventA := seedEvent(t, st, "A")
	eventB := seedEvent(t, st, "B")

	_, err := svc.Record(ctx, "history-device", eventA.ID, eventA.Name)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "history-device", eventB.ID, eventB.Name)
	require.NoError(t, err)

	checkins, err := svc.ListForDevice(ctx, "history-device")
	require.NoError(t, err)
	require.Len(t, checkins, 2)

	t.Run("listing a fresh device creates its user", func(t *testing.T) {
		checkins, err := svc.ListForDevice(ctx, "fresh-history-device")
		require.NoError(t, err)
		require.Empty(t, checkins)

		board, err := svc.Leaderboard(ctx)
		require.NoError(t, err)

		var found bool
		for _, entry := range board {
			if entry.DeviceID == "fresh-history-device" {
				found = true
				require.Equal(t, 0, entry.CheckinCount)
			}
		}
		require.True(t, found)
	})
}

func TestCheckinLeaderboard(t *testing.T) {
	t.Parallel()

	svc, st := newCheckinService(t)
	ctx := context.Background()

	eventA := seedEvent(t, st, "A")
	eventB := seedEvent(t, st, "B")

	_, err := svc.Record(ctx, "top-device", eventA.ID, eventA.Name)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "top-device", eventB.ID, eventB.Name)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "second-device", eventA.ID, eventA.Name)
	require.NoError(t, err)

	board, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, "top-device", board[0].DeviceID)
	require.Equal(t, 2, board[0].CheckinCount)
	require.Equal(t, "second-device", board[1].DeviceID)
	require.Equal(t, 1, board[1].CheckinCount)
}

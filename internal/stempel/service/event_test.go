package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEventCreate(t *testing.T) {
	t.Parallel()

	svc := &EventService{Store: newTestStore(t)}
	ctx := context.Background()

	t.Run("creates an active event", func(t *testing.T) {
		event, err := svc.Create(ctx, "  Closing Party ", "last stamp of the night")
		require.NoError(t, err)
		require.NotEmpty(t, event.ID)
		require.Equal(t, "Closing Party", event.Name)
		require.True(t, event.IsActive)

		got, err := svc.Get(ctx, event.ID)
		require.NoError(t, err)
		require.Equal(t, event.Name, got.Name)
	})

	t.Run("rejects empty and oversized names", func(t *testing.T) {
		_, err := svc.Create(ctx, "   ", "desc")
		require.ErrorIs(t, err, ErrInvalidEvent)

		_, err = svc.Create(ctx, strings.Repeat("x", maxEventNameLen+1), "desc")
		require.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestEventListing(t *testing.T) {
	t.Parallel()

	svc := &EventService{Store: newTestStore(t)}
	ctx := context.Background()

	visible, err := svc.Create(ctx, "Visible", "")
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, "Hidden", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, hidden.ID, false))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, visible.ID, active[0].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestEventSetActiveUnknown(t *testing.T) {
	t.Parallel()

	svc := &EventService{Store: newTestStore(t)}

	err := svc.SetActive(context.Background(), uuid.NewString(), true)
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEventGetUnknown(t *testing.T) {
	t.Parallel()

	svc := &EventService{Store: newTestStore(t)}

	_, err := svc.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrUnknownEvent)
}

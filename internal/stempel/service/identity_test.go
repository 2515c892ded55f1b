package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/internal/stempel/store/drivers/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stempel.db")
	st, err := sqlite.NewStore("file:" + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestIdentityResolveOrCreate(t *testing.T) {
	t.Parallel()

	svc := &IdentityService{Store: newTestStore(t)}
	ctx := context.Background()

	t.Run("creates user with generated name on first sight", func(t *testing.T) {
		user, err := svc.ResolveOrCreate(ctx, "abcdef1234567890")
		require.NoError(t, err)
		require.Equal(t, "abcdef1234567890", user.DeviceID)
		require.Equal(t, "User-abcdef12", user.DisplayName)
	})

	t.Run("resolves the same user afterwards", func(t *testing.T) {
		first, err := svc.ResolveOrCreate(ctx, "repeat-device")
		require.NoError(t, err)

		second, err := svc.ResolveOrCreate(ctx, "repeat-device")
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
	})

	t.Run("short device ids keep the full id in the name", func(t *testing.T) {
		user, err := svc.ResolveOrCreate(ctx, "tiny")
		require.NoError(t, err)
		require.Equal(t, "User-tiny", user.DisplayName)
	})

	t.Run("rejects empty device id", func(t *testing.T) {
		_, err := svc.ResolveOrCreate(ctx, "   ")
		require.ErrorIs(t, err, ErrInvalidDeviceID)
	})

	t.Run("concurrent first sight converges on one user", func(t *testing.T) {
		const workers = 16

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[string]struct{}{}
		)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				user, err := svc.ResolveOrCreate(ctx, "contested-device")
				require.NoError(t, err)

				mu.Lock()
				ids[user.ID] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, ids, 1)
	})
}

func TestIdentityUpdateDisplayName(t *testing.T) {
	t.Parallel()

	svc := &IdentityService{Store: newTestStore(t)}
	ctx := context.Background()

	t.Run("updates an existing user", func(t *testing.T) {
		created, err := svc.ResolveOrCreate(ctx, "rename-device")
		require.NoError(t, err)

		updated, err := svc.UpdateDisplayName(ctx, "rename-device", "Stamp Collector")
		require.NoError(t, err)
		require.Equal(t, created.ID, updated.ID)
		require.Equal(t, "Stamp Collector", updated.DisplayName)
	})

	t.Run("creates the user when the device is new", func(t *testing.T) {
		user, err := svc.UpdateDisplayName(ctx, "fresh-device", "Early Bird")
		require.NoError(t, err)
		require.Equal(t, "Early Bird", user.DisplayName)

		again, err := svc.ResolveOrCreate(ctx, "fresh-device")
		require.NoError(t, err)
		require.Equal(t, user.ID, again.ID)
		require.Equal(t, "Early Bird", again.DisplayName)
	})

	t.Run("rejects empty and oversized names", func(t *testing.T) {
		_, err := svc.UpdateDisplayName(ctx, "rename-device", "  ")
		require.ErrorIs(t, err, ErrInvalidName)

		_, err = svc.UpdateDisplayName(ctx, "rename-device", strings.Repeat("x", maxDisplayNameLen+1))
		require.ErrorIs(t, err, ErrInvalidName)
	})
}

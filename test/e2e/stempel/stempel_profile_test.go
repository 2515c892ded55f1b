package stempel_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileFlow(t *testing.T) {
	t.Parallel()

	client := newTestServer(t)
	ctx := context.Background()

	t.Run("first contact creates a profile with a generated name", func(t *testing.T) {
		profile, err := client.Profile(ctx, "fresh-e2e-device")
		require.NoError(t, err)
		require.Equal(t, "fresh-e2e-device", profile.DeviceID)
		require.NotEmpty(t, profile.UserID)
		require.True(t, strings.HasPrefix(profile.DisplayName, "User-"))
	})

	t.Run("repeat contact resolves the same user", func(t *testing.T) {
		first, err := client.Profile(ctx, "stable-e2e-device")
		require.NoError(t, err)

		second, err := client.Profile(ctx, "stable-e2e-device")
		require.NoError(t, err)
		require.Equal(t, first.UserID, second.UserID)
	})

	t.Run("display name update sticks", func(t *testing.T) {
		updated, err := client.UpdateProfile(ctx, "stable-e2e-device", "Stamp Champion")
		require.NoError(t, err)
		require.Equal(t, "Stamp Champion", updated.DisplayName)

		profile, err := client.Profile(ctx, "stable-e2e-device")
		require.NoError(t, err)
		require.Equal(t, "Stamp Champion", profile.DisplayName)
	})

	t.Run("display name shows up on the leaderboard", func(t *testing.T) {
		loginAdmin(t, client)
		event := createEvent(t, client, "Named")

		payload, err := client.EventQR(ctx, event.ID)
		require.NoError(t, err)
		_, err = client.Scan(ctx, "stable-e2e-device", payload)
		require.NoError(t, err)

		entries, err := client.Leaderboard(ctx)
		require.NoError(t, err)

		var found bool
		for _, entry := range entries {
			if entry.DeviceID == "stable-e2e-device" {
				found = true
				require.Equal(t, "Stamp Champion", entry.DisplayName)
			}
		}
		require.True(t, found)
	})

	t.Run("validation errors surface as 400", func(t *testing.T) {
		_, err := client.Profile(ctx, "")
		requireAPIError(t, err, http.StatusBadRequest)

		_, err = client.UpdateProfile(ctx, "stable-e2e-device", "   ")
		requireAPIError(t, err, http.StatusBadRequest)
	})
}

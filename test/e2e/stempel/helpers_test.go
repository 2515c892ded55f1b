package stempel_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibestempel/stempeld/internal/stempel/app"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

/*
 * End-to-end tests exercise the full service through the public SDK against
 * an in-process server: real sqlite store, migrations, change bus, router
 * and middleware, with only the TCP listener swapped for httptest.
 */

const testAdminSecret = "e2e-admin-secret"

// newTestServer boots a complete application on a throwaway database and
// returns an SDK client pointed at it.
func newTestServer(t *testing.T) *stempelsdk.Client {
	t.Helper()

	cfg := app.Config{
		DatabaseFile:        filepath.Join(t.TempDir(), "stempel.db"),
		AdminSecret:         testAdminSecret,
		AdminSessionTTL:     time.Hour,
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		ShutdownGracePeriod: time.Second,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	application.Bus().Start()
	t.Cleanup(func() {
		application.Bus().Stop()
		_ = application.Store().Close()
	})

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	return stempelsdk.NewClient(server.URL)
}

// loginAdmin authenticates the client's admin session.
func loginAdmin(t *testing.T, client *stempelsdk.Client) {
	t.Helper()

	resp, err := client.AdminLogin(context.Background(), testAdminSecret)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
}

// createEvent creates an event through the admin API.
func createEvent(t *testing.T, client *stempelsdk.Client, name string) stempelsdk.Event {
	t.Helper()

	event, err := client.CreateEvent(context.Background(), name, "e2e test event")
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	return event
}

// requireAPIError asserts err is an APIError with the given status.
func requireAPIError(t *testing.T, err error, status int) *stempelsdk.APIError {
	t.Helper()

	require.Error(t, err)
	apiErr := asAPIError(err)
	require.NotNil(t, apiErr, "expected *stempelsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.Status)
	return apiErr
}

func asAPIError(err error) *stempelsdk.APIError {
	var apiErr *stempelsdk.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

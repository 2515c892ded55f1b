package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/internal/stempel/store/drivers/sqlite"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

const testAdminSecret = "test-admin-secret"

// newTestRouter wires a full router over a throwaway sqlite store.
func newTestRouter(t *testing.T) *Router {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stempel.db")
	st, err := sqlite.NewStore("file:" + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.DiscardHandler)

	b := bus.New(st, logger)
	b.Start()
	t.Cleanup(b.Stop)

	adminService, err := service.NewAdminService(testAdminSecret, "", "stempeld", time.Hour)
	require.NoError(t, err)

	identity := &service.IdentityService{Store: st}

	router := NewRouter("test", st, b, logger)
	router.IdentityService = identity
	router.CheckinService = &service.CheckinService{Store: st, Bus: b, Identity: identity}
	router.EventService = &service.EventService{Store: st}
	router.AdminService = adminService
	router.ApplyRoutes()

	return router
}

func doJSON(t *testing.T, router *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func adminToken(t *testing.T, router *Router) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/login", "",
		stempelsdk.AdminLoginRequest{Secret: testAdminSecret})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[stempelsdk.AdminLoginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createEvent(t *testing.T, router *Router, token, name string) stempelsdk.Event {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/events", token,
		stempelsdk.CreateEventRequest{Name: name, Description: "test"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeJSON[stempelsdk.Event](t, rec)
}

func TestScanEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := adminToken(t, router)
	event := createEvent(t, router, token, "Scan Me")

	qrRec := doJSON(t, router, http.MethodGet, "/v1/admin/events/"+event.ID+"/qr", token, nil)
	require.Equal(t, http.StatusOK, qrRec.Code)
	payload := decodeJSON[stempelsdk.QRPayloadResponse](t, qrRec).Payload

	t.Run("first scan records", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/scan", "",
			stempelsdk.ScanRequest{DeviceID: "scan-device", Payload: payload})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeJSON[stempelsdk.CheckinResponse](t, rec)
		require.Equal(t, "recorded", resp.Status)
		require.Equal(t, event.ID, resp.EventID)
		require.Equal(t, "Scan Me", resp.EventName)
	})

	t.Run("second scan reports already collected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/scan", "",
			stempelsdk.ScanRequest{DeviceID: "scan-device", Payload: payload})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "already_collected", decodeJSON[stempelsdk.CheckinResponse](t, rec).Status)
	})

	t.Run("garbage payload is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/scan", "",
			stempelsdk.ScanRequest{DeviceID: "scan-device", Payload: "not json"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_payload", decodeJSON[stempelsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("unknown event is a 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/scan", "",
			stempelsdk.ScanRequest{
				DeviceID: "scan-device",
				Payload:  `{"eventId":"11111111-2222-3333-4444-555555555555","eventName":"Ghost"}`,
			})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing device id is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/scan", "",
			stempelsdk.ScanRequest{Payload: payload})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckinEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := adminToken(t, router)
	event := createEvent(t, router, token, "Direct")

	rec := doJSON(t, router, http.MethodPost, "/v1/checkins", "",
		stempelsdk.CheckinRequest{DeviceID: "direct-device", EventID: event.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[stempelsdk.CheckinResponse](t, rec)
	require.Equal(t, "recorded", resp.Status)
	require.Equal(t, "Direct", resp.EventName)
}

func TestStampsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := adminToken(t, router)
	event := createEvent(t, router, token, "Collectible")

	rec := doJSON(t, router, http.MethodPost, "/v1/checkins", "",
		stempelsdk.CheckinRequest{DeviceID: "stamps-device", EventID: event.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/stamps?device_id=stamps-device", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stamps := decodeJSON[stempelsdk.StampsResponse](t, rec).Stamps
	require.Len(t, stamps, 1)
	require.Equal(t, event.ID, stamps[0].EventID)
	require.Equal(t, "Collectible", stamps[0].EventName)

	t.Run("missing device id is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/stamps", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("get creates user with generated name", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/profile?device_id=profile-device-1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		profile := decodeJSON[stempelsdk.Profile](t, rec)
		require.Equal(t, "profile-device-1", profile.DeviceID)
		require.Equal(t, "User-profile-", profile.DisplayName)
	})

	t.Run("put updates display name", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/v1/profile", "",
			stempelsdk.UpdateProfileRequest{DeviceID: "profile-device-2", DisplayName: "Night Owl"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Night Owl", decodeJSON[stempelsdk.Profile](t, rec).DisplayName)

		rec = doJSON(t, router, http.MethodGet, "/v1/profile?device_id=profile-device-2", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Night Owl", decodeJSON[stempelsdk.Profile](t, rec).DisplayName)
	})

	t.Run("empty display name is a 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPut, "/v1/profile", "",
			stempelsdk.UpdateProfileRequest{DeviceID: "profile-device-2", DisplayName: "  "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPublicEventsListing(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := adminToken(t, router)

	visible := createEvent(t, router, token, "Visible")
	hidden := createEvent(t, router, token, "Hidden")

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/events/"+hidden.ID+"/active", token,
		stempelsdk.SetEventActiveRequest{Active: false})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events := decodeJSON[stempelsdk.EventsResponse](t, rec).Events
	require.Len(t, events, 1)
	require.Equal(t, visible.ID, events[0].ID)

	t.Run("admin listing includes inactive", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/admin/events", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decodeJSON[stempelsdk.EventsResponse](t, rec).Events, 2)
	})
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("wrong secret is a 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/admin/login", "",
			stempelsdk.AdminLoginRequest{Secret: "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token is a 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/admin/events", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/admin/events", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		token := adminToken(t, router)
		rec := doJSON(t, router, http.MethodGet, "/v1/admin/events", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := adminToken(t, router)

	eventA := createEvent(t, router, token, "A")
	eventB := createEvent(t, router, token, "B")

	for _, c := range []stempelsdk.CheckinRequest{
		{DeviceID: "leader-device", EventID: eventA.ID},
		{DeviceID: "leader-device", EventID: eventB.ID},
		{DeviceID: "runner-device", EventID: eventA.ID},
	} {
		rec := doJSON(t, router, http.MethodPost, "/v1/checkins", "", c)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/v1/admin/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decodeJSON[stempelsdk.LeaderboardResponse](t, rec).Entries
	require.Len(t, entries, 2)
	require.Equal(t, "leader-device", entries[0].DeviceID)
	require.Equal(t, 2, entries[0].CheckinCount)
	require.NotNil(t, entries[0].LastCheckinAt)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeJSON[stempelsdk.HealthResponse](t, rec).Status)

	rec = doJSON(t, router, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decodeJSON[stempelsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}

func TestHealthPollingNotThrottled(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	// Aggressive monitoring bursts stay within the public profile; the
	// read-endpoint profile would cut this off at 120.
	for i := 0; i < 200; i++ {
		rec := doJSON(t, router, http.MethodGet, "/livez", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d throttled", i)
	}
}

func TestReadyzDegradesWhenStoreCloses(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	require.NoError(t, router.store.Close())

	rec := doJSON(t, router, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "degraded", decodeJSON[stempelsdk.HealthResponse](t, rec).Status)
}

package http

import (
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// LeaderboardHandler serves GET /v1/admin/leaderboard, the poll fallback for
// dashboards without a live connection.
type LeaderboardHandler struct {
	CheckinService *service.CheckinService
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	aggregates, err := h.CheckinService.Leaderboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, stempelsdk.LeaderboardResponse{
		Entries: toSDKLeaderboard(aggregates),
	})
}

func toSDKLeaderboard(aggregates []domain.UserAggregate) []stempelsdk.LeaderboardEntry {
	entries := make([]stempelsdk.LeaderboardEntry, 0, len(aggregates))
	for _, a := range aggregates {
		entries = append(entries, stempelsdk.LeaderboardEntry{
			UserID:        a.UserID,
			DeviceID:      a.DeviceID,
			DisplayName:   a.DisplayName,
			CheckinCount:  a.CheckinCount,
			LastCheckinAt: a.LastCheckinAt,
		})
	}
	return entries
}

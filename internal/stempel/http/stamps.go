package http

import (
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// StampsHandler serves GET /v1/stamps?device_id=...
type StampsHandler struct {
	CheckinService *service.CheckinService
}

func (h *StampsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checkins, err := h.CheckinService.ListForDevice(ctx, r.URL.Query().Get("device_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stamps := make([]stempelsdk.Stamp, 0, len(checkins))
	for _, c := range checkins {
		stamps = append(stamps, stempelsdk.Stamp{
			EventID:     c.EventID,
			EventName:   c.EventName,
			CollectedAt: c.CollectedAt,
		})
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, stempelsdk.StampsResponse{Stamps: stamps})
}

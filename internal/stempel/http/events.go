package http

import (
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// EventsHandler serves GET /v1/events, the public listing of active events.
type EventsHandler struct {
	EventService *service.EventService
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, stempelsdk.EventsResponse{Events: toSDKEvents(events)})
}

func toSDKEvents(events []domain.Event) []stempelsdk.Event {
	out := make([]stempelsdk.Event, 0, len(events))
	for _, e := range events {
		out = append(out, stempelsdk.Event{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			IsActive:    e.IsActive,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/qr"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/slogx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// AdminEventsHandler serves the admin event management endpoints.
type AdminEventsHandler struct {
	EventService *service.EventService
}

// HandleCreate serves POST /v1/admin/events.
func (h *AdminEventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req stempelsdk.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	event, err := h.EventService.Create(ctx, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	log.Info("event created", "event_id", event.ID, "name", event.Name)
	httpx.WriteJSON(w, http.StatusCreated, stempelsdk.Event{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		IsActive:    event.IsActive,
		CreatedAt:   event.CreatedAt,
	})
}

// HandleList serves GET /v1/admin/events, including inactive events.
func (h *AdminEventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, stempelsdk.EventsResponse{Events: toSDKEvents(events)})
}

// HandleSetActive serves POST /v1/admin/events/{id}/active.
func (h *AdminEventsHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req stempelsdk.SetEventActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	eventID := r.PathValue("id")
	if err := h.EventService.SetActive(ctx, eventID, req.Active); err != nil {
		writeServiceError(w, err)
		return
	}

	log.Info("event active flag changed", "event_id", eventID, "active", req.Active)
	w.WriteHeader(http.StatusNoContent)
}

// HandleQR serves GET /v1/admin/events/{id}/qr, returning the encoded
// payload a printed code should contain.
func (h *AdminEventsHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, err := h.EventService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payload, err := qr.Encode(event)
	if err != nil {
		stempelsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stempelsdk.QRPayloadResponse{Payload: payload})
}

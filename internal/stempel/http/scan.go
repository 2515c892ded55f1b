package http

import (
	"encoding/json"
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/qr"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// ScanHandler serves POST /v1/scan. The body carries the raw QR payload
// exactly as the scanner read it; decoding happens server side so every
// client agrees on what a valid code is.
type ScanHandler struct {
	CheckinService *service.CheckinService
}

func (h *ScanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req stempelsdk.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	payload, err := qr.Decode(req.Payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	receipt, err := h.CheckinService.Record(ctx, req.DeviceID, payload.EventID, payload.EventName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stempelsdk.CheckinResponse{
		Status:    receipt.Outcome.String(),
		EventID:   receipt.EventID,
		EventName: receipt.EventName,
	})
}

// CheckinHandler serves POST /v1/checkins for clients that already decoded
// the payload themselves.
type CheckinHandler struct {
	CheckinService *service.CheckinService
}

func (h *CheckinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req stempelsdk.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	receipt, err := h.CheckinService.Record(ctx, req.DeviceID, req.EventID, req.EventName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, stempelsdk.CheckinResponse{
		Status:    receipt.Outcome.String(),
		EventID:   receipt.EventID,
		EventName: receipt.EventName,
	})
}

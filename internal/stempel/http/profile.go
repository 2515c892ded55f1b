package http

import (
	"encoding/json"
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/domain"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// ProfileHandler serves GET and PUT /v1/profile. The first GET for an unseen
// device creates the user with its generated display name.
type ProfileHandler struct {
	IdentityService *service.IdentityService
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.IdentityService.ResolveOrCreate(r.Context(), r.URL.Query().Get("device_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSDKProfile(user))
}

func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req stempelsdk.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.IdentityService.UpdateDisplayName(r.Context(), req.DeviceID, req.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSDKProfile(user))
}

func toSDKProfile(user domain.User) stempelsdk.Profile {
	return stempelsdk.Profile{
		UserID:      user.ID,
		DeviceID:    user.DeviceID,
		DisplayName: user.DisplayName,
	}
}

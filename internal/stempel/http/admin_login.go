package http

import (
	"encoding/json"
	"net/http"

	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/slogx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// AdminLoginHandler serves POST /v1/admin/login, exchanging the shared
// secret for a session token.
type AdminLoginHandler struct {
	AdminService *service.AdminService
}

func (h *AdminLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req stempelsdk.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		stempelsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token, expiresIn, err := h.AdminService.Login(ctx, req.Secret)
	if err != nil {
		log.Warn("admin login rejected", "remote_addr", r.RemoteAddr)
		writeServiceError(w, err)
		return
	}

	log.Info("admin session issued")
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, stempelsdk.AdminLoginResponse{
		Token:     token,
		ExpiresIn: int64(expiresIn.Seconds()),
	})
}

package http

import (
	"net/http"
	"time"

	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// LivezHandler is the liveness probe. It answers 200 as long as the process
// is serving requests.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := stempelsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}

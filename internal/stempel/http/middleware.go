package http

import (
	"net/http"
	"strings"

	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/pkg/slogx"
	"github.com/vibestempel/stempeld/pkg/stempelsdk"
)

// AdminAuthMiddleware rejects requests without a valid admin session token.
// The token comes from the Authorization header, or the "token" query
// parameter for websocket clients that cannot set headers.
func AdminAuthMiddleware(admin *service.AdminService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				stempelsdk.ErrUnauthorized.WriteError(w)
				return
			}

			if err := admin.Verify(token); err != nil {
				slogx.FromContext(r.Context()).Warn("admin token rejected", "err", err)
				stempelsdk.ErrUnauthorized.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/pkg/httpx"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	bus             *bus.Bus
	IdentityService *service.IdentityService
	CheckinService  *service.CheckinService
	EventService    *service.EventService
	AdminService    *service.AdminService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	b *bus.Bus,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		bus:          b,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerScans()
	r.registerProfile()
	r.registerEvents()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerScans() {
	scanHandler := &ScanHandler{CheckinService: r.CheckinService}
	checkinHandler := &CheckinHandler{CheckinService: r.CheckinService}
	stampsHandler := &StampsHandler{CheckinService: r.CheckinService}

	// POST /scan and /checkins - moderate rate limit (write path, one scan
	// per attendee per event at steady state)
	r.Mux.Handle("POST /v1/scan",
		httpx.Chain(scanHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/checkins",
		httpx.Chain(checkinHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /stamps - lenient rate limit (dashboard pull)
	r.Mux.Handle("GET /v1/stamps",
		httpx.Chain(stampsHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{IdentityService: r.IdentityService}

	r.Mux.Handle("GET /v1/profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /v1/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerEvents() {
	h := &EventsHandler{EventService: r.EventService}

	// Public listing only shows active events
	r.Mux.Handle("GET /v1/events",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	loginHandler := &AdminLoginHandler{AdminService: r.AdminService}
	eventsHandler := &AdminEventsHandler{EventService: r.EventService}
	leaderboardHandler := &LeaderboardHandler{CheckinService: r.CheckinService}
	liveHandler := &LiveHandler{Bus: r.bus, Logger: r.logger}

	// POST /admin/login - strict rate limit by IP (secret guessing)
	r.Mux.Handle("POST /v1/admin/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	secured := func(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(h,
			AdminAuthMiddleware(r.AdminService),
			httpx.RateLimitByIP(limit),
		)
	}

	r.Mux.Handle("POST /v1/admin/events",
		secured(http.HandlerFunc(eventsHandler.HandleCreate), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/events",
		secured(http.HandlerFunc(eventsHandler.HandleList), httpx.LenientLimit))
	r.Mux.Handle("POST /v1/admin/events/{id}/active",
		secured(http.HandlerFunc(eventsHandler.HandleSetActive), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/events/{id}/qr",
		secured(http.HandlerFunc(eventsHandler.HandleQR), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/admin/leaderboard",
		secured(leaderboardHandler, httpx.LenientLimit))

	// Live socket is long-lived, one handshake per dashboard session
	r.Mux.Handle("GET /v1/admin/live",
		secured(liveHandler, httpx.LenientLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

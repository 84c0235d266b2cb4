// ABOUTME: chi router wiring every REST endpoint and the control stream (spec 6)
// ABOUTME: Every route except /version and the stream sits behind the shared-secret auth middleware
package control

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sonicrelay/voicenode/internal/session"
	"github.com/sonicrelay/voicenode/internal/source"
	"golang.org/x/time/rate"
)

// Deps are the collaborators the control plane needs; built once in
// cmd/voicenode and handed to NewRouter.
type Deps struct {
	Registry     *source.Registry
	Sessions     *session.Manager
	Password     string
	Version      string
	Filters      []string
	CacheSize    int
	LoadRPS      float64
	RoutePlanner *RoutePlanner
}

// NewRouter builds the full `/v4/...` control-plane surface plus the
// control stream upgrade endpoint.
func NewRouter(deps Deps) http.Handler {
	rp := deps.RoutePlanner
	if rp == nil {
		rp = NewRoutePlanner("NanoIpRoutePlanner")
	}
	loadRPS := deps.LoadRPS
	if loadRPS <= 0 {
		loadRPS = 20
	}

	h := &handlers{
		registry:     deps.Registry,
		sessions:     deps.Sessions,
		cache:        NewTrackCache(deps.CacheSize),
		routePlanner: rp,
		loadLimiter:  rate.NewLimiter(rate.Limit(loadRPS), int(loadRPS)),
		password:     deps.Password,
		version:      deps.Version,
		startedAt:    time.Now(),
		filters:      deps.Filters,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/version", h.getVersion)
	r.Get("/v4/websocket", h.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(deps.Password))

		r.Get("/v4/info", h.getInfo)
		r.Get("/v4/stats", h.getStats)
		r.Get("/v4/loadtracks", h.getLoadTracks)
		r.Get("/v4/decodetrack", h.getDecodeTrack)
		r.Post("/v4/decodetracks", h.postDecodeTracks)

		r.Get("/v4/routeplanner/status", h.getRoutePlannerStatus)
		r.Post("/v4/routeplanner/free/address", h.postRoutePlannerUnmark)
		r.Post("/v4/routeplanner/free/all", h.postRoutePlannerUnmarkAll)

		r.Route("/v4/sessions/{sid}", func(r chi.Router) {
			r.Patch("/", h.patchSession)
			r.Get("/players", h.listPlayers)
			r.Get("/players/{gid}", h.getPlayer)
			r.Patch("/players/{gid}", h.patchPlayer)
			r.Delete("/players/{gid}", h.deletePlayer)
		})
	})

	return r
}

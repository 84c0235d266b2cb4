// ABOUTME: REST handlers for the non-player control-plane endpoints (spec 6)
// ABOUTME: info/version/stats/loadtracks/decodetrack(s), generalizing protocol.ServerHello to HTTP
package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-chi/chi/v5"
	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/session"
	"github.com/sonicrelay/voicenode/internal/source"
	"github.com/sonicrelay/voicenode/pkg/track"
	"golang.org/x/time/rate"
)

// handlers holds every collaborator the REST surface needs; built once at
// startup and wired into the router.
type handlers struct {
	registry     *source.Registry
	sessions     *session.Manager
	cache        *TrackCache
	routePlanner *RoutePlanner
	loadLimiter  *rate.Limiter

	password  string
	version   string
	startedAt time.Time
	filters   []string
}

func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		writeError(w, r, apperr.New(apperr.BadRequest, "missing request body"))
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, apperr.New(apperr.BadRequest, "malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

// infoResponse is the capabilities document spec §9's SUPPLEMENTED FEATURES
// names - generalizing protocol.ServerHello's capability exchange to HTTP.
type infoResponse struct {
	Version        string   `json:"version"`
	SourceManagers []string `json:"sourceManagers"`
	Filters        []string `json:"filters"`
}

func (h *handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.registry.Adapters()))
	for _, a := range h.registry.Adapters() {
		names = append(names, a.Name())
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Version:        h.version,
		SourceManagers: names,
		Filters:        h.filters,
	})
}

func (h *handlers) getVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.version))
}

type statsResponse struct {
	Uptime  int64 `json:"uptime"`
	Players int   `json:"players"`
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Uptime: time.Since(h.startedAt).Milliseconds(),
	})
}

func (h *handlers) getLoadTracks(w http.ResponseWriter, r *http.Request) {
	if h.loadLimiter != nil && !h.loadLimiter.Allow() {
		writeError(w, r, apperr.New(apperr.SourceUnavailable, "load request rate exceeded"))
		return
	}
	identifier := r.URL.Query().Get("identifier")
	if identifier == "" {
		writeError(w, r, apperr.New(apperr.BadRequest, "missing identifier"))
		return
	}
	result := resolveWithRetry(r.Context(), h.registry, identifier)
	writeJSON(w, http.StatusOK, loadResultJSON(result))
}

// resolveWithRetry calls Registry.Resolve and retries a fault-severity error
// result (the adapter's own signal that the failure is transient - an
// upstream outage or timeout, not a bad request) with exponential backoff,
// up to 3 attempts total. Common/suspicious severities are permanent for
// this identifier and are returned on the first try. backoff.Retry discards
// the operation's last value once retries are exhausted, so the final
// attempt's result is kept in last and returned directly instead.
func resolveWithRetry(ctx context.Context, registry *source.Registry, identifier string) source.LoadResult {
	var last source.LoadResult
	_, _ = backoff.Retry(ctx, func() (source.LoadResult, error) {
		last = registry.Resolve(ctx, identifier)
		if last.Kind == source.KindError && last.ErrorSeverity == apperr.SeverityFault {
			return last, errTransientLoad
		}
		return last, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	return last
}

var errTransientLoad = errors.New("control: transient loadtracks failure")

func (h *handlers) getDecodeTrack(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("encodedTrack")
	if encoded == "" {
		writeError(w, r, apperr.New(apperr.BadRequest, "missing encodedTrack"))
		return
	}
	t, err := h.cache.Get(encoded, track.Decode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) postDecodeTracks(w http.ResponseWriter, r *http.Request) {
	var encoded []string
	if !h.decodeBody(w, r, &encoded) {
		return
	}
	decode := source.DecodeBatch(func(e string) (source.LoadResult, error) {
		t, err := h.cache.Get(e, track.Decode)
		if err != nil {
			return source.LoadResult{}, err
		}
		return source.TrackResult(t), nil
	})
	results := decode(encoded)
	out := make([]interface{}, len(results))
	for i, res := range results {
		out[i] = loadResultJSON(res)
	}
	writeJSON(w, http.StatusOK, out)
}

// loadResultJSON flattens source.LoadResult into Lavalink-style {loadType, data}.
func loadResultJSON(res source.LoadResult) map[string]interface{} {
	switch res.Kind {
	case source.KindTrack:
		return map[string]interface{}{"loadType": "track", "data": res.Track}
	case source.KindPlaylist:
		return map[string]interface{}{"loadType": "playlist", "data": res.Playlist}
	case source.KindSearch:
		return map[string]interface{}{"loadType": "search", "data": res.Tracks}
	case source.KindError:
		return map[string]interface{}{
			"loadType": "error",
			"data": map[string]interface{}{
				"message":  res.ErrorMessage,
				"severity": res.ErrorSeverity,
			},
		}
	default:
		return map[string]interface{}{"loadType": "empty", "data": nil}
	}
}

func routeParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

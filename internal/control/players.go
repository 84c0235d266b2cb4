// ABOUTME: REST handlers for session/player CRUD (spec 6, 4.6)
// ABOUTME: PATCH implements the noReplace + atomic partial-apply contract documented in DESIGN.md
package control

import (
	"net/http"
	"time"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/filter"
	"github.com/sonicrelay/voicenode/internal/player"
	"github.com/sonicrelay/voicenode/internal/session"
	"github.com/sonicrelay/voicenode/pkg/track"
)

type playerResponse struct {
	GuildID  string           `json:"guildId"`
	Track    *track.Track     `json:"track,omitempty"`
	Volume   int              `json:"volume"`
	Paused   bool             `json:"paused"`
	Position int64            `json:"position"`
	Filters  filter.FilterSet `json:"filters"`
	Voice    bool             `json:"voiceConnected"`
	State    string           `json:"state"`
}

func toPlayerResponse(guildID string, snap player.Snapshot) playerResponse {
	return playerResponse{
		GuildID:  guildID,
		Track:    snap.Track,
		Volume:   snap.Volume,
		Paused:   snap.Paused,
		Position: snap.Position,
		Filters:  snap.Filters,
		Voice:    snap.Voice,
		State:    string(snap.State),
	}
}

func (h *handlers) sessionOrErr(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sid := routeParam(r, "sid")
	sess, ok := h.sessions.Get(sid)
	if !ok {
		writeError(w, r, apperr.New(apperr.NotFound, "no such session: "+sid))
		return nil, false
	}
	return sess, true
}

func (h *handlers) listPlayers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r)
	if !ok {
		return
	}
	guilds := sess.Guilds()
	out := make([]playerResponse, 0, len(guilds))
	for _, gid := range guilds {
		out = append(out, toPlayerResponse(gid, sess.Player(gid).Snapshot()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r)
	if !ok {
		return
	}
	gid := routeParam(r, "gid")
	p := sess.Player(gid)
	writeJSON(w, http.StatusOK, toPlayerResponse(gid, p.Snapshot()))
}

func (h *handlers) deletePlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r)
	if !ok {
		return
	}
	gid := routeParam(r, "gid")
	sess.Player(gid).Destroy()
	w.WriteHeader(http.StatusNoContent)
}

type trackField struct {
	Encoded *string `json:"encoded"`
}

type patchPlayerBody struct {
	Track    *trackField              `json:"track"`
	Position *int64                   `json:"position"`
	Volume   *int                     `json:"volume"`
	Paused   *bool                    `json:"paused"`
	Filters  *filter.FilterSet        `json:"filters"`
	Voice    *player.VoiceCredentials `json:"voice"`
}

// patchPlayer applies spec §4.6's Update contract. noReplace=true on a
// Playing player with a new track drops only the Track field from the
// Update before it's applied - every other field still goes through the
// same single locked validate-then-mutate pass (see DESIGN.md "Open
// questions resolved").
func (h *handlers) patchPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r)
	if !ok {
		return
	}
	gid := routeParam(r, "gid")
	p := sess.Player(gid)

	var body patchPlayerBody
	if !h.decodeBody(w, r, &body) {
		return
	}

	update := player.Update{
		Position: body.Position,
		Volume:   body.Volume,
		Paused:   body.Paused,
		Filters:  body.Filters,
		Voice:    body.Voice,
	}
	if body.Track != nil {
		if body.Track.Encoded == nil {
			update.ClearTrack = true
		} else {
			t, err := h.cache.Get(*body.Track.Encoded, track.Decode)
			if err != nil {
				writeError(w, r, err)
				return
			}
			update.Track = &t
		}
	}

	noReplace := r.URL.Query().Get("noReplace") == "true"
	if noReplace && update.Track != nil && p.Snapshot().State == player.StatePlaying {
		update.Track = nil
	}

	if err := p.Update(r.Context(), update); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(gid, p.Snapshot()))
}

type patchSessionBody struct {
	Resuming *bool `json:"resuming"`
	Timeout  *int  `json:"timeout"`
}

func (h *handlers) patchSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r)
	if !ok {
		return
	}
	var body patchSessionBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	if body.Resuming != nil {
		sess.SetResumable(*body.Resuming)
	}
	if body.Timeout != nil {
		sess.SetResumeTimeout(time.Duration(*body.Timeout) * time.Second)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resuming": body.Resuming, "timeout": body.Timeout})
}

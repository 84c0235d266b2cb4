// ABOUTME: Control stream: one bidirectional WS connection per client (spec 6)
// ABOUTME: Inbound op set is deliberately tiny; outbound drains Session.Next onto the wire
package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sonicrelay/voicenode/internal/logging"
	"github.com/sonicrelay/voicenode/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamSession is the subset of *session.Session the WS writer needs.
type streamSession interface {
	Next(ctx context.Context) (protocol.Message, bool)
}

// handleStream upgrades to WS, adopts/creates a Session keyed by the
// Session-Id header, and runs the writer loop until the connection drops.
func (h *handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	if !authenticateStream(h.password, r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Get().Error().Err(err).Msg("control stream upgrade failed")
		return
	}

	sess, _ := h.sessions.Connect(r.Header.Get("Session-Id"))
	logging.Get().Info().Str("sessionId", sess.ID).Msg("control stream connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.streamReader(conn, sess.ID, cancel)
	h.streamWriter(ctx, conn, sess)
}

// streamReader's only job is detecting the client going away; the inbound
// op set is deliberately empty (spec 6: "server state changes go through
// REST"), so every message is simply discarded.
func (h *handlers) streamReader(conn *websocket.Conn, sessionID string, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.sessions.Disconnect(sessionID)
			return
		}
	}
}

// streamWriter pumps sess.Next onto the wire through an intermediary
// channel so the ping ticker and the blocking Next() call can share one
// select loop.
func (h *handlers) streamWriter(ctx context.Context, conn *websocket.Conn, sess streamSession) {
	defer conn.Close()

	outbound := make(chan protocol.Message)
	go func() {
		for {
			msg, ok := sess.Next(ctx)
			if !ok {
				close(outbound)
				return
			}
			select {
			case outbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

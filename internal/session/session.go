// ABOUTME: Session is the control stream's unit of resumability, owning the
// ABOUTME: per-guild Players and the bounded outbound queue toward C8
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sonicrelay/voicenode/internal/player"
	"github.com/sonicrelay/voicenode/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// PlayerFactory builds a Player bound to guildID, wired with whatever
// Streamer/VoiceConn the caller (cmd/voicenode) has assembled for it, and
// forwarding Player-level events onto the given channel.
type PlayerFactory func(guildID string, events chan<- player.Event) *player.Player

const defaultQueueCap = 256

// Config tunes the periodic emissions and outbound queue depth; zero values
// fall back to the spec defaults.
type Config struct {
	PlayerUpdateInterval time.Duration // default 5s
	StatsInterval        time.Duration // default 60s
	QueueCap             int           // default 256
}

func (c Config) withDefaults() Config {
	if c.PlayerUpdateInterval <= 0 {
		c.PlayerUpdateInterval = 5 * time.Second
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = 60 * time.Second
	}
	if c.QueueCap <= 0 {
		c.QueueCap = defaultQueueCap
	}
	return c
}

// Session holds the Players for one control-stream identity and multiplexes
// their events, plus its own periodic PlayerUpdate/Stats emissions, onto a
// single bounded outbound queue.
type Session struct {
	ID            string
	Resumable     bool
	ResumeTimeout time.Duration

	cfg       Config
	newPlayer PlayerFactory

	mu      sync.Mutex
	players map[string]*player.Player

	playerEvents chan player.Event

	qmu   sync.Mutex
	queue []protocol.Message
	wake  chan struct{}

	cancel context.CancelFunc
}

func newSession(id string, resumable bool, resumeTimeout time.Duration, cfg Config, newPlayer PlayerFactory) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		ID:            id,
		Resumable:     resumable,
		ResumeTimeout: resumeTimeout,
		cfg:           cfg,
		newPlayer:     newPlayer,
		players:       make(map[string]*player.Player),
		playerEvents:  make(chan player.Event, cfg.QueueCap),
		wake:          make(chan struct{}, 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.drainPlayerEvents(ctx)
	go s.emitLoop(ctx)
	s.enqueue(protocol.Message{Type: "Ready", Payload: protocol.Ready{Resumed: false, SessionID: id}})
	return s
}

// Player returns the Player for guildID, creating it on first use.
func (s *Session) Player(guildID string) *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[guildID]; ok {
		return p
	}
	p := s.newPlayer(guildID, s.playerEvents)
	s.players[guildID] = p
	return p
}

// Guilds lists the guild ids with a live Player.
func (s *Session) Guilds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	return ids
}

// SetResumable updates whether a future disconnect retains this Session
// within its resume window, per PATCH /v4/sessions/{sid}.
func (s *Session) SetResumable(resumable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resumable = resumable
}

// SetResumeTimeout updates the resume window applied on the next disconnect.
func (s *Session) SetResumeTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResumeTimeout = d
}

// IsResumable reports the current resumable flag under lock.
func (s *Session) IsResumable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Resumable
}

// disconnectPolicy reads resumable and the resume timeout together, under
// one lock, so a concurrent PATCH can't be observed torn across the two.
func (s *Session) disconnectPolicy() (resumable bool, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Resumable, s.ResumeTimeout
}

// announceResumed replaces the initial Ready message's meaning for a stream
// that adopted an existing session rather than created it.
func (s *Session) announceResumed() {
	s.enqueue(protocol.Message{Type: "Ready", Payload: protocol.Ready{Resumed: true, SessionID: s.ID}})
}

// destroyGracePeriod bounds how long a Session's cascade may take (spec 5:
// "releases their resources within a bounded grace period (default 2 s)").
const destroyGracePeriod = 2 * time.Second

// Destroy cascades to every Player (spec: "destroy cascades to all Players")
// and stops this Session's background loops. Idempotent. Players are torn
// down concurrently, bounded by destroyGracePeriod, rather than one at a
// time, so one slow voice-connection close can't stall the rest.
func (s *Session) Destroy() {
	s.mu.Lock()
	players := make([]*player.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.players = make(map[string]*player.Player)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), destroyGracePeriod)
	defer cancel()
	g, _ := errgroup.WithContext(ctx)
	for _, p := range players {
		p := p
		g.Go(func() error {
			p.Destroy()
			return nil
		})
	}
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.cancel()
}

// Next blocks until an outbound message is available or ctx is done.
func (s *Session) Next(ctx context.Context) (protocol.Message, bool) {
	for {
		if msg, ok := s.pop(); ok {
			return msg, true
		}
		select {
		case <-s.wake:
		case <-ctx.Done():
			return protocol.Message{}, false
		}
	}
}

func (s *Session) pop() (protocol.Message, bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) == 0 {
		return protocol.Message{}, false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}

// enqueue applies the bounded-queue overflow policy: on overflow, the oldest
// non-lifecycle message (PlayerUpdate) is evicted first; only once none
// remain does an incoming PlayerUpdate get dropped outright, or the oldest
// lifecycle message get evicted as a last resort.
func (s *Session) enqueue(msg protocol.Message) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) >= s.cfg.QueueCap {
		evicted := false
		for i, m := range s.queue {
			if m.Type == "PlayerUpdate" {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			if msg.Type == "PlayerUpdate" {
				return
			}
			s.queue = s.queue[1:]
		}
	}
	s.queue = append(s.queue, msg)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) drainPlayerEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.playerEvents:
			s.enqueue(protocol.Message{Type: "Event", Payload: toEventMessage(e)})
		}
	}
}

func (s *Session) emitLoop(ctx context.Context) {
	pu := time.NewTicker(s.cfg.PlayerUpdateInterval)
	st := time.NewTicker(s.cfg.StatsInterval)
	defer pu.Stop()
	defer st.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-pu.C:
			s.emitPlayerUpdates(now)
		case <-st.C:
			s.emitStats()
		}
	}
}

func (s *Session) emitPlayerUpdates(now time.Time) {
	s.mu.Lock()
	snap := make(map[string]player.Snapshot, len(s.players))
	for gid, p := range s.players {
		snap[gid] = p.Snapshot()
	}
	s.mu.Unlock()

	for gid, sn := range snap {
		update := protocol.PlayerUpdate{
			GuildID: gid,
			State: protocol.PlayerUpdateState{
				Time:      now.UnixMilli(),
				Position:  sn.Position,
				Connected: sn.Voice,
			},
		}
		s.enqueue(protocol.Message{Type: "PlayerUpdate", Payload: update})
	}
}

func (s *Session) emitStats() {
	s.mu.Lock()
	n := len(s.players)
	s.mu.Unlock()
	stats := protocol.Stats{Players: n}
	s.enqueue(protocol.Message{Type: "Stats", Payload: stats})
}

func toEventMessage(e player.Event) protocol.EventMessage {
	msg := protocol.EventMessage{
		Type:        string(e.Kind),
		GuildID:     e.GuildID,
		Reason:      string(e.Reason),
		Severity:    string(e.Severity),
		ThresholdMs: e.ThresholdMs,
	}
	if e.Cause != nil {
		msg.Cause = e.Cause.Error()
	}
	return msg
}

// ABOUTME: Player (C6): per-guild playback state machine binding C2/C3/C4/C5
// ABOUTME: Mutation is serialised per Player; update() applies atomically or not at all
package player

import (
	"context"
	"sync"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/filter"
	"github.com/sonicrelay/voicenode/internal/pipeline"
	"github.com/sonicrelay/voicenode/pkg/track"
)

// State is a Player's position in the lifecycle state machine (spec 4.6).
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StatePlaying    State = "playing"
	StatePaused     State = "paused"
	StateEnded      State = "ended"
	StateError      State = "error"
)

const (
	minVolume = 0
	maxVolume = 1000
)

// VoiceCredentials is the set of fields a control-plane voice update can
// carry; C5 performs the two-phase merge this represents.
type VoiceCredentials struct {
	Token     string
	Endpoint  string
	SessionID string
}

// VoiceConn is the capability a Player needs from its bound voice
// connection (C5). Defined here, on the consumer side, so this package does
// not import C5; voice.Connection is the concrete type that satisfies it.
type VoiceConn interface {
	UpdateCredentials(creds VoiceCredentials) error
	Ready() bool
	// BindQueue hands the Connection the FrameQueue its own send loop should
	// consume from; called once per pipeline start, since the queue is
	// recreated on every track.
	BindQueue(queue *pipeline.FrameQueue)
	Close() error
}

// Streamer resolves an already-loaded Track to an open PCM stream. The
// Source Registry (C2) does not satisfy it directly, since its Stream
// returns source.PcmStream; cmd/voicenode wraps it in a forwarding adapter.
type Streamer interface {
	Stream(ctx context.Context, t track.Track) (pipeline.Stream, error)
}

// Update is the partial-apply request shape for Player.Update. Nil fields
// are left untouched; the whole update is rejected (no partial mutation)
// if any single field fails validation.
type Update struct {
	Track      *track.Track // set to start/replace the current track
	ClearTrack bool         // true clears Track to nil, stopping playback (TrackEnd reason=Stopped)
	Position   *int64
	Volume     *int
	Paused     *bool
	Filters    *filter.FilterSet
	Voice      *VoiceCredentials
}

// Player is one per (session, guild): it owns its Audio Pipeline and Voice
// Connection exclusively, and serialises all mutation through a single
// mutex so "one writer at a time, many readers of a snapshot" (spec 5)
// holds without a separate actor/queue.
type Player struct {
	mu sync.Mutex

	guildID string
	state   State

	currentTrack *track.Track
	paused       bool
	position     int64
	volume       int
	filters      filter.FilterSet

	voice     VoiceConn
	streamer  Streamer
	bufferMs  int
	pipeline  *pipeline.Pipeline
	pipeEvts  chan pipeline.Event
	cancel    context.CancelFunc
	events    chan<- Event
}

// New builds an idle Player bound to a voice connection and a track
// streamer, with an unbounded position/volume/filters starting state.
func New(guildID string, streamer Streamer, voice VoiceConn, bufferMs int, events chan<- Event) *Player {
	return &Player{
		guildID:  guildID,
		state:    StateIdle,
		volume:   100,
		streamer: streamer,
		voice:    voice,
		bufferMs: bufferMs,
		events:   events,
	}
}

// GuildID returns the guild this Player is bound to.
func (p *Player) GuildID() string {
	return p.guildID
}

// Snapshot is a read-only view of Player state for PlayerUpdate emission
// and REST responses.
type Snapshot struct {
	State    State
	Track    *track.Track
	Paused   bool
	Position int64
	Volume   int
	Filters  filter.FilterSet
	Voice    bool
}

// Snapshot returns the current state under lock, safe for concurrent reads.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:    p.state,
		Track:    p.currentTrack,
		Paused:   p.paused,
		Position: p.position,
		Volume:   p.volume,
		Filters:  p.filters,
		Voice:    p.voice != nil && p.voice.Ready(),
	}
}

// Update applies every non-nil field atomically; if any fails validation,
// no field is mutated (spec 4.6: "partial failure is rejected with no
// mutation").
func (p *Player) Update(ctx context.Context, u Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Volume != nil {
		if *u.Volume < minVolume || *u.Volume > maxVolume {
			return apperr.New(apperr.BadRequest, "volume out of range [0,1000]")
		}
	}
	if u.Position != nil {
		length := int64(0)
		if p.currentTrack != nil {
			length = p.currentTrack.LengthMs
		}
		if *u.Position < 0 || (length > 0 && *u.Position > length) {
			return apperr.New(apperr.InvalidState, "position outside [0,length_ms]").WithSeverity(apperr.SeverityCommon)
		}
		if p.currentTrack == nil || !p.currentTrack.IsSeekable {
			return apperr.New(apperr.InvalidState, "track is not seekable").WithSeverity(apperr.SeverityCommon)
		}
		if p.pipeline != nil {
			if err := p.pipeline.Seek(*u.Position); err != nil {
				return err
			}
		}
	}

	if u.Voice != nil {
		if p.voice == nil {
			return apperr.New(apperr.InvalidState, "player has no bound voice connection")
		}
		if err := p.voice.UpdateCredentials(*u.Voice); err != nil {
			return apperr.Wrap(apperr.VoiceAuth, "voice credential update rejected", err)
		}
	}

	if u.Track != nil {
		p.replaceTrackLocked(ctx, *u.Track)
	} else if u.ClearTrack {
		p.stopLocked(ReasonStopped)
	}

	if u.Volume != nil {
		p.volume = *u.Volume
	}
	if u.Position != nil {
		p.position = *u.Position
	}
	if u.Filters != nil {
		p.filters = *u.Filters
		if p.pipeline != nil {
			p.pipeline.SetFilters(p.filters)
		}
	}
	if u.Paused != nil {
		p.paused = *u.Paused
		p.applyPauseLocked()
	}

	if u.Voice != nil && p.voice.Ready() && p.state == StateConnecting {
		p.transitionToPlayingLocked()
	}

	return nil
}

// replaceTrackLocked implements the Idle/Playing -> new-track transition,
// emitting TrackEnd(Replaced) for whatever was playing before.
func (p *Player) replaceTrackLocked(ctx context.Context, t track.Track) {
	if p.currentTrack != nil && p.state == StatePlaying {
		p.stopPipelineLocked()
		p.emit(Event{Kind: EventTrackEnd, GuildID: p.guildID, Reason: ReasonReplaced})
	}

	p.currentTrack = &t
	p.position = 0

	if p.voice != nil && p.voice.Ready() {
		p.startPipelineLocked(ctx)
	} else {
		p.state = StateConnecting
	}
}

// stopLocked implements stop/replace(null): drain, flush, return to Idle.
func (p *Player) stopLocked(reason EndReason) {
	if p.currentTrack == nil {
		return
	}
	p.stopPipelineLocked()
	p.emit(Event{Kind: EventTrackEnd, GuildID: p.guildID, Reason: reason})
	p.currentTrack = nil
	p.position = 0
	p.state = StateIdle
}

func (p *Player) startPipelineLocked(ctx context.Context) {
	stream, err := p.streamer.Stream(ctx, *p.currentTrack)
	if err != nil {
		p.emit(Event{Kind: EventTrackException, GuildID: p.guildID, Severity: apperr.SeverityCommon, Cause: err})
		p.state = StateIdle
		p.currentTrack = nil
		return
	}

	queue := pipeline.NewFrameQueue(p.bufferMs)
	if p.voice != nil {
		p.voice.BindQueue(queue)
	}
	evts := make(chan pipeline.Event, 8)
	pl, err := pipeline.New(stream, p.filters, queue, evts)
	if err != nil {
		p.emit(Event{Kind: EventTrackException, GuildID: p.guildID, Severity: apperr.SeverityFault, Cause: err})
		p.state = StateIdle
		p.currentTrack = nil
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.pipeline = pl
	p.pipeEvts = evts
	p.cancel = cancel
	p.state = StatePlaying
	p.emit(Event{Kind: EventTrackStart, GuildID: p.guildID})

	go pl.Run(runCtx)
	go p.drainPipelineEvents(evts)
}

func (p *Player) drainPipelineEvents(evts chan pipeline.Event) {
	for e := range evts {
		p.mu.Lock()
		switch e.Kind {
		case pipeline.KindTrackEnd:
			p.state = StateEnded
			p.emit(Event{Kind: EventTrackEnd, GuildID: p.guildID, Reason: EndReason(e.Reason)})
			p.currentTrack = nil
			p.position = 0
			p.state = StateIdle
		case pipeline.KindTrackException:
			p.state = StateError
			p.emit(Event{Kind: EventTrackException, GuildID: p.guildID, Severity: e.Severity, Cause: e.Cause})
			p.currentTrack = nil
			p.position = 0
			p.state = StateIdle
		case pipeline.KindTrackStuck:
			p.emit(Event{Kind: EventTrackStuck, GuildID: p.guildID, ThresholdMs: e.ThresholdMs})
		}
		p.mu.Unlock()
	}
}

func (p *Player) stopPipelineLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.pipeline = nil
}

func (p *Player) transitionToPlayingLocked() {
	if p.currentTrack == nil {
		return
	}
	p.startPipelineLocked(context.Background())
}

func (p *Player) applyPauseLocked() {
	if p.pipeline == nil {
		return
	}
	p.pipeline.SetPaused(p.paused)
	if p.paused {
		p.state = StatePaused
	} else if p.currentTrack != nil {
		p.state = StatePlaying
	}
}

// Destroy tears down the voice connection and pipeline unconditionally,
// from any non-terminal state.
// Destroy tears the player down unconditionally: session destroy cascade
// (expired resume window, explicit teardown) calls this on every guild it
// owns. A track in flight ends with reason Cleanup, distinct from Stopped
// (caller-requested) and Replaced (caller-requested new track).
func (p *Player) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentTrack != nil {
		p.emit(Event{Kind: EventTrackEnd, GuildID: p.guildID, Reason: ReasonCleanup})
	}
	p.stopPipelineLocked()
	if p.voice != nil {
		p.voice.Close()
	}
	p.currentTrack = nil
	p.state = StateEnded
}

func (p *Player) emit(e Event) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- e:
	default:
	}
}

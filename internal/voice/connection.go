// ABOUTME: Connection: the per-guild Voice Connection Manager (C5) state machine
// ABOUTME: Owns gateway handshake, media send loop, keep-alive, backoff, and circuit breaker
package voice

import (
	"context"
	"sync"
	"time"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/pipeline"
	"github.com/sonicrelay/voicenode/internal/player"
)

const keepAliveInterval = 5 * time.Second

// GatewayFactory and MediaFactory build a fresh transport per connection
// attempt; the real implementations dial the voice gateway/UDP socket,
// tests inject fakes.
type GatewayFactory func() Gateway
type MediaFactory func() MediaSocket

// Connection implements player.VoiceConn: one per (session, guild),
// serialising its own mutation the same way Player does.
type Connection struct {
	mu sync.Mutex

	guildID string
	state   State
	partial Credentials
	creds   Credentials

	gatewayFactory GatewayFactory
	mediaFactory   MediaFactory
	gateway        Gateway
	media          MediaSocket

	breaker *circuitBreaker
	backoff backoffState
	jitter  func() float64

	queue  *pipeline.FrameQueue
	events chan<- Event
	cancel context.CancelFunc
}

// New builds a disconnected Connection for guildID.
func New(guildID string, gatewayFactory GatewayFactory, mediaFactory MediaFactory, events chan<- Event) *Connection {
	return &Connection{
		guildID:        guildID,
		state:          StateDisconnected,
		gatewayFactory: gatewayFactory,
		mediaFactory:   mediaFactory,
		breaker:        newCircuitBreaker(),
		jitter:         defaultJitter,
		events:         events,
	}
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdateCredentials merges non-empty fields into the partial credential
// slot; a connection attempt is issued only once the merged slot holds all
// three fields (spec 4.5's two-phase merge). Satisfies player.VoiceConn.
func (c *Connection) UpdateCredentials(creds player.VoiceCredentials) error {
	c.mu.Lock()
	if creds.Token != "" {
		c.partial.Token = creds.Token
	}
	if creds.Endpoint != "" {
		c.partial.Endpoint = creds.Endpoint
	}
	if creds.SessionID != "" {
		c.partial.SessionID = creds.SessionID
	}

	if !c.partial.complete() {
		c.state = StateAwaitingCredentials
		c.mu.Unlock()
		return nil
	}

	target := c.partial
	c.mu.Unlock()

	return c.reconnect(target)
}

// Ready reports whether the connection is in the Ready state.
func (c *Connection) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady
}

// BindQueue hands the Connection the FrameQueue its send loop consumes.
func (c *Connection) BindQueue(queue *pipeline.FrameQueue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = queue
}

// ResetCircuit is the administrative override that force-closes an open
// circuit (spec 4.5: "Closing is automatic on timeout expiry or explicit
// administrative reset").
func (c *Connection) ResetCircuit() {
	c.mu.Lock()
	wasOpen := c.breaker.isOpen()
	c.breaker.reset()
	c.mu.Unlock()
	if wasOpen {
		c.emit(Event{Kind: EventCircuitClosed, GuildID: c.guildID})
	}
}

// Close tears down any live transport unconditionally, from any state.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.teardownLocked()
	c.state = StateDisconnected
	c.mu.Unlock()
	return nil
}

// reconnect performs strict destroy-before-connect: any existing transport
// is torn down before a new attempt starts, per spec 4.5. The attempt
// itself runs on its own goroutine so credential updates never block.
func (c *Connection) reconnect(creds Credentials) error {
	c.mu.Lock()
	allowed, autoClosed := c.breaker.allow()
	if !allowed {
		c.mu.Unlock()
		return apperr.New(apperr.CircuitOpen, "voice circuit breaker open for guild "+c.guildID)
	}
	c.teardownLocked()
	c.creds = creds
	c.backoff.reset()
	c.state = StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	if autoClosed {
		c.emit(Event{Kind: EventCircuitClosed, GuildID: c.guildID})
	}

	go c.connectLoop(ctx, creds)
	return nil
}

// connectLoop drives one connection incident: handshake, open media, run
// the send/keep-alive loops, then on any failure classify and either retry
// (Transient/RateLimit, within backoff) or land in Failed (Auth/Permanent,
// or backoff exhaustion).
func (c *Connection) connectLoop(ctx context.Context, creds Credentials) {
	for {
		if ctx.Err() != nil {
			return
		}

		gw := c.gatewayFactory()
		info, err := gw.Handshake(ctx, creds)
		if err != nil {
			if !c.handleFailure(ctx, Classify(err)) {
				return
			}
			continue
		}

		media := c.mediaFactory()
		if err := media.Open(info); err != nil {
			gw.Close()
			if !c.handleFailure(ctx, Classify(err)) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.gateway = gw
		c.media = media
		c.state = StateReady
		c.breaker.recordSuccess()
		recoveredFrom := c.backoff.attempt
		c.backoff.reset()
		c.mu.Unlock()

		c.emit(Event{Kind: EventGatewayReady, GuildID: c.guildID})
		if recoveredFrom > 0 {
			c.emit(Event{Kind: EventRecoverySucceeded, GuildID: c.guildID, TotalAttempts: recoveredFrom})
		}

		sendDone := make(chan struct{})
		go func() {
			c.sendLoop(ctx, gw, media)
			close(sendDone)
		}()
		go c.keepAliveLoop(ctx, gw)

		code, closeErr := gw.Closed()
		<-sendDone

		c.emit(Event{Kind: EventGatewayClosed, GuildID: c.guildID, CloseCode: code})

		if closeErr == nil {
			return
		}
		if !c.handleFailure(ctx, Classify(closeErr)) {
			return
		}
	}
}

// handleFailure classifies a transport failure, updates circuit/backoff
// state, emits the appropriate events, and reports whether connectLoop
// should retry.
func (c *Connection) handleFailure(ctx context.Context, class Class) bool {
	c.emit(Event{Kind: EventGatewayError, GuildID: c.guildID, ErrorClass: class})

	if class == ClassAuth || class == ClassPermanent {
		c.mu.Lock()
		c.state = StateFailed
		c.mu.Unlock()
		return false
	}

	c.mu.Lock()
	tripped := c.breaker.recordFailure()
	c.mu.Unlock()
	if tripped {
		c.emit(Event{Kind: EventCircuitOpened, GuildID: c.guildID})
	}

	delay, ok := c.backoff.next(c.jitter)
	if !ok {
		c.mu.Lock()
		c.state = StateFailed
		c.mu.Unlock()
		c.emit(Event{Kind: EventRecoveryFailed, GuildID: c.guildID, TotalAttempts: backoffMaxAttempt})
		return false
	}
	if class == ClassRateLimit && delay < 2*backoffInitial {
		delay = 2 * backoffInitial
	}

	c.mu.Lock()
	c.state = StateReconnecting
	attempt := c.backoff.attempt
	c.mu.Unlock()
	c.emit(Event{Kind: EventRecoveryAttempt, GuildID: c.guildID, Attempt: attempt, Delay: delay.Seconds()})

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

// sendLoop consumes encoded frames off the shared FrameQueue every 20ms
// and forwards them to the media socket. On underrun it sends up to 5
// consecutive silence frames, then signals not-speaking and goes quiet
// until real frames resume (spec 4.5).
func (c *Connection) sendLoop(ctx context.Context, gw Gateway, media MediaSocket) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	underrun := 0
	speaking := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			q := c.queue
			c.mu.Unlock()

			var frame []byte
			var ok bool
			if q != nil {
				frame, ok = q.Pop()
			}

			if ok {
				if !speaking {
					speaking = true
					c.emit(Event{Kind: EventSpeakingChanged, GuildID: c.guildID, Speaking: true})
				}
				underrun = 0
				if err := media.SendFrame(frame); err != nil {
					c.emit(Event{Kind: EventGatewayError, GuildID: c.guildID, ErrorClass: Classify(err)})
					gw.Close()
					return
				}
				continue
			}

			underrun++
			if underrun <= 5 {
				media.SendSilence()
			} else if speaking {
				speaking = false
				c.emit(Event{Kind: EventSpeakingChanged, GuildID: c.guildID, Speaking: false})
			}
		}
	}
}

func (c *Connection) keepAliveLoop(ctx context.Context, gw Gateway) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gw.KeepAlive()
		}
	}
}

func (c *Connection) teardownLocked() {
	if c.gateway != nil {
		c.gateway.Close()
		c.gateway = nil
	}
	if c.media != nil {
		c.media.Close()
		c.media = nil
	}
}

func (c *Connection) emit(e Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- e:
	default:
	}
}

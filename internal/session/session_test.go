package session

import (
	"context"
	"testing"
	"time"

	"github.com/sonicrelay/voicenode/internal/player"
	"github.com/sonicrelay/voicenode/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopFactory(guildID string, events chan<- player.Event) *player.Player {
	return player.New(guildID, nil, nil, 200, events)
}

func newTestSession(cfg Config) *Session {
	return newSession("s1", true, time.Minute, cfg, noopFactory)
}

func TestNewSessionEmitsInitialReady(t *testing.T) {
	s := newTestSession(Config{})
	defer s.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := s.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "Ready", msg.Type)
	ready, ok := msg.Payload.(protocol.Ready)
	require.True(t, ok)
	assert.False(t, ready.Resumed)
	assert.Equal(t, "s1", ready.SessionID)
}

func TestPlayerIsCreatedLazilyAndReused(t *testing.T) {
	s := newTestSession(Config{})
	defer s.Destroy()

	p1 := s.Player("g1")
	p2 := s.Player("g1")
	assert.Same(t, p1, p2)
	assert.Equal(t, []string{"g1"}, s.Guilds())
}

func TestDestroyCascadesToPlayers(t *testing.T) {
	s := newTestSession(Config{})
	p := s.Player("g1")
	s.Destroy()
	assert.Equal(t, player.StateEnded, p.Snapshot().State)
	assert.Empty(t, s.Guilds())
}

func TestEnqueueEvictsOldestPlayerUpdateOnOverflow(t *testing.T) {
	s := newTestSession(Config{QueueCap: 2})
	defer s.cancel()
	_, _ = s.pop() // drain the initial Ready so the queue starts empty

	s.enqueue(protocol.Message{Type: "PlayerUpdate", Payload: 1})
	s.enqueue(protocol.Message{Type: "PlayerUpdate", Payload: 2})
	s.enqueue(protocol.Message{Type: "Event", Payload: 3}) // overflow: evicts the oldest PlayerUpdate

	var types []string
	for {
		m, ok := s.pop()
		if !ok {
			break
		}
		types = append(types, m.Type)
	}
	assert.Equal(t, []string{"PlayerUpdate", "Event"}, types)
}

func TestEnqueueDropsIncomingPlayerUpdateWhenQueueAllLifecycle(t *testing.T) {
	s := newTestSession(Config{QueueCap: 1})
	defer s.cancel()
	_, _ = s.pop()

	s.enqueue(protocol.Message{Type: "Event", Payload: 1})
	s.enqueue(protocol.Message{Type: "PlayerUpdate", Payload: 2}) // nothing non-lifecycle to evict, and it's droppable

	m, ok := s.pop()
	require.True(t, ok)
	assert.Equal(t, "Event", m.Type)
	_, ok = s.pop()
	assert.False(t, ok)
}

func TestPlayerEventIsMultiplexedOntoQueue(t *testing.T) {
	s := newTestSession(Config{})
	defer s.Destroy()
	_, _ = s.pop() // initial Ready

	s.playerEvents <- player.Event{Kind: player.EventTrackStart, GuildID: "g1"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := s.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "Event", msg.Type)
	ev, ok := msg.Payload.(protocol.EventMessage)
	require.True(t, ok)
	assert.Equal(t, "TrackStart", ev.Type)
	assert.Equal(t, "g1", ev.GuildID)
}

package player

import (
	"context"
	"io"
	"testing"

	"github.com/sonicrelay/voicenode/internal/filter"
	"github.com/sonicrelay/voicenode/internal/pipeline"
	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/sonicrelay/voicenode/pkg/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream is a minimal pipeline.Stream backed by a short in-memory buffer.
type fakeStream struct {
	samples []int32
	pos     int
}

func newFakeStream() *fakeStream {
	n := audio.FrameSamples * audio.OutputChannels * 50
	s := make([]int32, n)
	return &fakeStream{samples: s}
}

func (s *fakeStream) ReadFrame(buf []int32) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

func (s *fakeStream) Format() audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: audio.OutputSampleRate, Channels: audio.OutputChannels, BitDepth: 16}
}

func (s *fakeStream) Close() error { return nil }

type fakeStreamer struct {
	err error
}

func (f *fakeStreamer) Stream(ctx context.Context, t track.Track) (pipeline.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return newFakeStream(), nil
}

type fakeVoiceConn struct {
	ready     bool
	credsErr  error
	closed    bool
	lastCreds VoiceCredentials
	boundQ    *pipeline.FrameQueue
}

func (f *fakeVoiceConn) UpdateCredentials(creds VoiceCredentials) error {
	if f.credsErr != nil {
		return f.credsErr
	}
	f.lastCreds = creds
	f.ready = true
	return nil
}
func (f *fakeVoiceConn) Ready() bool { return f.ready }
func (f *fakeVoiceConn) BindQueue(queue *pipeline.FrameQueue) {
	f.boundQ = queue
}
func (f *fakeVoiceConn) Close() error { f.closed = true; return nil }

func TestNewPlayerStartsIdle(t *testing.T) {
	p := New("g1", &fakeStreamer{}, &fakeVoiceConn{}, 5000, nil)
	snap := p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 100, snap.Volume)
}

func TestUpdateRejectsOutOfRangeVolume(t *testing.T) {
	p := New("g1", &fakeStreamer{}, &fakeVoiceConn{}, 5000, nil)
	bad := 1001
	err := p.Update(context.Background(), Update{Volume: &bad})
	require.Error(t, err)
	assert.Equal(t, 100, p.Snapshot().Volume, "rejected update must not mutate volume")
}

func TestUpdatePlayWithVoiceNotReadyGoesConnecting(t *testing.T) {
	p := New("g1", &fakeStreamer{}, &fakeVoiceConn{}, 5000, nil)
	tr := track.Track{Identifier: "x", LengthMs: 60000}
	err := p.Update(context.Background(), Update{Track: &tr})
	require.NoError(t, err)
	assert.Equal(t, StateConnecting, p.Snapshot().State)
}

func TestUpdatePlayWithVoiceReadyStartsPlaying(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	events := make(chan Event, 8)
	p := New("g1", &fakeStreamer{}, voice, 5000, events)
	tr := track.Track{Identifier: "x", LengthMs: 60000}

	err := p.Update(context.Background(), Update{Track: &tr})
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, p.Snapshot().State)

	select {
	case e := <-events:
		assert.Equal(t, EventTrackStart, e.Kind)
	default:
		t.Fatal("expected a TrackStart event")
	}
}

func TestUpdateVoiceCredsTransitionsConnectingToPlaying(t *testing.T) {
	voice := &fakeVoiceConn{}
	events := make(chan Event, 8)
	p := New("g1", &fakeStreamer{}, voice, 5000, events)
	tr := track.Track{Identifier: "x", LengthMs: 60000}

	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))
	assert.Equal(t, StateConnecting, p.Snapshot().State)

	creds := VoiceCredentials{Token: "t", Endpoint: "e", SessionID: "s"}
	require.NoError(t, p.Update(context.Background(), Update{Voice: &creds}))
	assert.Equal(t, StatePlaying, p.Snapshot().State)
}

func TestPauseAndResume(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	p := New("g1", &fakeStreamer{}, voice, 5000, make(chan Event, 8))
	tr := track.Track{Identifier: "x", LengthMs: 60000}
	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))

	paused := true
	require.NoError(t, p.Update(context.Background(), Update{Paused: &paused}))
	assert.Equal(t, StatePaused, p.Snapshot().State)

	resumed := false
	require.NoError(t, p.Update(context.Background(), Update{Paused: &resumed}))
	assert.Equal(t, StatePlaying, p.Snapshot().State)
}

func TestClearTrackEmitsStopped(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	events := make(chan Event, 8)
	p := New("g1", &fakeStreamer{}, voice, 5000, events)
	tr := track.Track{Identifier: "x", LengthMs: 60000}
	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))
	<-events // TrackStart

	require.NoError(t, p.Update(context.Background(), Update{ClearTrack: true}))
	assert.Equal(t, StateIdle, p.Snapshot().State)

	select {
	case e := <-events:
		assert.Equal(t, EventTrackEnd, e.Kind)
		assert.Equal(t, ReasonStopped, e.Reason)
	default:
		t.Fatal("expected TrackEnd(Stopped)")
	}
}

func TestReplaceTrackEmitsReplaced(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	events := make(chan Event, 8)
	p := New("g1", &fakeStreamer{}, voice, 5000, events)
	first := track.Track{Identifier: "x", LengthMs: 60000}
	second := track.Track{Identifier: "y", LengthMs: 60000}

	require.NoError(t, p.Update(context.Background(), Update{Track: &first}))
	<-events // TrackStart for first

	require.NoError(t, p.Update(context.Background(), Update{Track: &second}))

	select {
	case e := <-events:
		assert.Equal(t, EventTrackEnd, e.Kind)
		assert.Equal(t, ReasonReplaced, e.Reason)
	default:
		t.Fatal("expected TrackEnd(Replaced)")
	}
}

func TestUpdateRejectsPositionOutOfRange(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	p := New("g1", &fakeStreamer{}, voice, 5000, make(chan Event, 8))
	tr := track.Track{Identifier: "x", LengthMs: 1000}
	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))

	bad := int64(5000)
	err := p.Update(context.Background(), Update{Position: &bad})
	require.Error(t, err)
}

func TestDestroyTearsDownVoice(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	p := New("g1", &fakeStreamer{}, voice, 5000, make(chan Event, 8))
	tr := track.Track{Identifier: "x", LengthMs: 60000}
	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))

	p.Destroy()
	assert.True(t, voice.closed)
	assert.Equal(t, StateEnded, p.Snapshot().State)
}

func TestUpdateFiltersAppliesToPipeline(t *testing.T) {
	voice := &fakeVoiceConn{ready: true}
	p := New("g1", &fakeStreamer{}, voice, 5000, make(chan Event, 8))
	tr := track.Track{Identifier: "x", LengthMs: 60000}
	require.NoError(t, p.Update(context.Background(), Update{Track: &tr}))

	set := filter.FilterSet{Volume: &filter.VolumeParams{Level: 0.5}}
	require.NoError(t, p.Update(context.Background(), Update{Filters: &set}))
	assert.NotNil(t, p.Snapshot().Filters.Volume)
}

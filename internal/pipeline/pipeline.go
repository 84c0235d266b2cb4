// ABOUTME: Audio Pipeline (C4): 20ms tick loop, decode -> resample -> filter -> encode -> enqueue
// ABOUTME: Adapted from the teacher's internal/server/audio_engine.go tick-driven streaming loop
package pipeline

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/filter"
	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/sonicrelay/voicenode/pkg/audio/encode"
	"github.com/sonicrelay/voicenode/pkg/audio/resample"
)

// Seeker is implemented by PcmStream backends that support repositioning.
type Seeker interface {
	Seek(ms int64) error
}

type pipelineFilters struct {
	chain *filter.Chain
	speed float64
}

// Stream is the minimal source the pipeline pulls PCM from; it's the same
// shape as source.PcmStream, declared independently here so this package
// doesn't depend on internal/source.
type Stream interface {
	ReadFrame(buf []int32) (int, error)
	Format() audio.Format
	Close() error
}

// Pipeline drives one Player's 20ms tick: pull PCM, resample, filter,
// Opus-encode, enqueue. One Pipeline per Player, one Opus encoder per
// Pipeline (stateful, per spec 5).
type Pipeline struct {
	stream    Stream
	resampler *resample.Resampler
	encoder   encode.Encoder
	queue     *FrameQueue
	events    chan Event

	filters atomic.Pointer[pipelineFilters]
	paused  atomic.Bool

	positionMs      atomic.Int64
	lastFrameAt     atomic.Int64 // unix nanos
	stuckSignaled   atomic.Bool
	stuckThreshold  time.Duration
	backpressureHit atomic.Uint64
}

// New builds a Pipeline over an already-open stream. events should be
// buffered; sends are non-blocking so a slow consumer never stalls the
// tick.
func New(stream Stream, initial filter.FilterSet, queue *FrameQueue, events chan Event) (*Pipeline, error) {
	format := stream.Format()

	var resampler *resample.Resampler
	if format.SampleRate != audio.OutputSampleRate {
		resampler = resample.New(format.SampleRate, audio.OutputSampleRate, audio.OutputChannels)
	}

	encFormat := audio.Format{
		Codec:      "opus",
		SampleRate: audio.OutputSampleRate,
		Channels:   audio.OutputChannels,
		BitDepth:   16,
	}
	enc, err := encode.NewOpus(encFormat)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		stream:         stream,
		resampler:      resampler,
		encoder:        enc,
		queue:          queue,
		events:         events,
		stuckThreshold: 10 * time.Second,
	}
	p.SetFilters(initial)
	p.lastFrameAt.Store(time.Now().UnixNano())
	return p, nil
}

// SetFilters atomically swaps in a new FilterSet, built into a fresh Chain.
// Per spec 9, the whole set is replaced, never mutated in place.
func (p *Pipeline) SetFilters(set filter.FilterSet) {
	speed := 1.0
	if set.Timescale != nil && set.Timescale.Speed > 0 {
		speed = float64(set.Timescale.Speed)
	}
	p.filters.Store(&pipelineFilters{chain: filter.NewChain(set), speed: speed})
}

// SetPaused stops or resumes tick processing without tearing down state.
func (p *Pipeline) SetPaused(paused bool) {
	p.paused.Store(paused)
}

// PositionMs returns the current playback position.
func (p *Pipeline) PositionMs() int64 {
	return p.positionMs.Load()
}

// Seek flushes the frame queue and repositions the stream, failing with
// InvalidState if the stream doesn't support seeking.
func (p *Pipeline) Seek(ms int64) error {
	seeker, ok := p.stream.(Seeker)
	if !ok {
		return apperr.New(apperr.InvalidState, "track is not seekable")
	}
	if err := seeker.Seek(ms); err != nil {
		return apperr.Wrap(apperr.InvalidState, "seek failed", err)
	}
	p.queue.Flush()
	p.positionMs.Store(ms)
	p.lastFrameAt.Store(time.Now().UnixNano())
	p.stuckSignaled.Store(false)
	return nil
}

// Run drives the 20ms tick loop until ctx is cancelled. events is closed on
// every exit path so a drain goroutine ranging over it always terminates.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(audio.FrameDurationMs * time.Millisecond)
	defer ticker.Stop()
	defer p.encoder.Close()
	defer p.stream.Close()
	defer close(p.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick() {
				return
			}
		}
	}
}

// tick processes exactly one 20ms window. Returns false when the pipeline
// should stop (end of stream or unrecoverable error).
func (p *Pipeline) tick() bool {
	if p.paused.Load() {
		return true
	}

	if p.queue.Full() {
		p.backpressureHit.Add(1)
		return true
	}

	frame := audio.NewStereoFrame()
	n, err := p.pullWindow(frame)
	if err == io.EOF {
		p.emit(Event{Kind: KindTrackEnd, Reason: ReasonFinished})
		return false
	}
	if err != nil {
		p.emit(Event{Kind: KindTrackException, Severity: apperr.SeverityCommon, Cause: err})
		return false
	}
	_ = n

	pf := p.filters.Load()
	pf.chain.Process(frame)

	samples := make([]int32, len(frame))
	for i, v := range frame {
		samples[i] = audio.SampleFromFloat32(v)
	}

	encoded, err := p.encoder.Encode(samples)
	if err != nil {
		p.emit(Event{Kind: KindTrackException, Severity: apperr.SeverityCommon, Cause: err})
		return false
	}

	p.queue.Push(encoded)

	p.positionMs.Add(int64(audio.FrameDurationMs * pf.speed))
	p.lastFrameAt.Store(time.Now().UnixNano())
	p.stuckSignaled.Store(false)

	return true
}

// pullWindow fills frame (f32 stereo, FrameSamples long) from the source,
// resampling if the source's native rate differs from 48kHz.
func (p *Pipeline) pullWindow(frame audio.StereoFrame) (int, error) {
	if p.resampler == nil {
		raw := make([]int32, len(frame))
		n, err := p.stream.ReadFrame(raw)
		if err != nil && err != io.EOF {
			return 0, err
		}
		for i := 0; i < n; i++ {
			frame[i] = audio.SampleToFloat32(raw[i])
		}
		if err == io.EOF && n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}

	needed := p.resampler.InputSamplesNeeded(len(frame))
	native := make([]int32, needed)
	n, err := p.stream.ReadFrame(native)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if err == io.EOF && n == 0 {
		return 0, io.EOF
	}

	resampled := make([]int32, len(frame))
	got := p.resampler.Resample(native[:n], resampled)
	for i := 0; i < got; i++ {
		frame[i] = audio.SampleToFloat32(resampled[i])
	}
	return got, nil
}

// CheckStuck reports (and latches) whether no frame has been produced for
// the stuck threshold while the pipeline is expected to be running. Run's
// ticker does not call it; it only runs when a caller polls it, and nothing
// in this module (the Player included) does, so TrackStuck is not emitted
// on its own.
func (p *Pipeline) CheckStuck() *Event {
	if p.paused.Load() || p.stuckSignaled.Load() {
		return nil
	}
	last := time.Unix(0, p.lastFrameAt.Load())
	if time.Since(last) < p.stuckThreshold {
		return nil
	}
	p.stuckSignaled.Store(true)
	return &Event{Kind: KindTrackStuck, ThresholdMs: p.stuckThreshold.Milliseconds()}
}

func (p *Pipeline) emit(e Event) {
	select {
	case p.events <- e:
	default:
	}
}

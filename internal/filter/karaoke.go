// ABOUTME: Karaoke filter, attenuates the mono (vocal-centered) signal in a band
// ABOUTME: Reconstructs output from the filtered mid and the monoLevel-scaled side signal
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

func newBandpassBiquad(sampleRate, centerHz, widthHz float64) *biquad {
	q := centerHz / widthHz
	if q <= 0 {
		q = 1
	}
	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return &biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

type karaokeStage struct {
	level, monoLevel float32
	band             *biquad // single-channel state, filters the mid signal
}

func newKaraokeStage(p KaraokeParams) *karaokeStage {
	band := p.FilterBand
	if band <= 0 {
		band = 220
	}
	width := p.FilterWidth
	if width <= 0 {
		width = 100
	}
	return &karaokeStage{
		level:     p.Level,
		monoLevel: p.MonoLevel,
		band:      newBandpassBiquad(float64(audio.OutputSampleRate), float64(band), float64(width)),
	}
}

func (s *karaokeStage) process(frame audio.StereoFrame) {
	for i := 0; i+1 < len(frame); i += 2 {
		l := float64(frame[i])
		r := float64(frame[i+1])

		mid := (l + r) * 0.5
		side := (l - r) * 0.5

		filteredMid := s.band.processL(mid)
		remainder := mid - float64(s.level)*filteredMid
		sideOut := side * float64(s.monoLevel)

		frame[i] = float32(remainder + sideOut)
		frame[i+1] = float32(remainder - sideOut)
	}
}

// ABOUTME: 15-band equalizer built from cascaded biquad peaking filters
// ABOUTME: Center frequencies follow the standard Lavalink/ISO band layout
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

// eqBandFrequencies are the 15 fixed center frequencies, in Hz.
var eqBandFrequencies = [15]float64{
	25, 40, 63, 100, 160, 250, 400, 630, 1000,
	1600, 2500, 4000, 6300, 10000, 16000,
}

// biquad is a direct-form-I second-order section with independent state
// per channel.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1L, x2L   float64
	y1L, y2L   float64
	x1R, x2R   float64
	y1R, y2R   float64
}

// newPeakingBiquad computes coefficients for a peaking EQ band at centerHz
// from the raw band gain (the -0.25..1.0 wire value, unmapped) and a fixed
// Q appropriate for 1/3-octave-ish spacing.
func newPeakingBiquad(sampleRate, centerHz float64, gain float32) *biquad {
	const q = 1.0
	a := math.Pow(10, float64(gain)/2) // peak amplitude factor A = 10^(gain/2)
	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a

	return &biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

func (bq *biquad) processL(x float64) float64 {
	y := bq.b0*x + bq.b1*bq.x1L + bq.b2*bq.x2L - bq.a1*bq.y1L - bq.a2*bq.y2L
	bq.x2L, bq.x1L = bq.x1L, x
	bq.y2L, bq.y1L = bq.y1L, y
	return y
}

func (bq *biquad) processR(x float64) float64 {
	y := bq.b0*x + bq.b1*bq.x1R + bq.b2*bq.x2R - bq.a1*bq.y1R - bq.a2*bq.y2R
	bq.x2R, bq.x1R = bq.x1R, x
	bq.y2R, bq.y1R = bq.y1R, y
	return y
}

type equalizerStage struct {
	bands []*biquad
}

func newEqualizerStage(p EqualizerParams) *equalizerStage {
	gains := make([]float32, 15)
	for _, b := range p.Bands {
		if b.Band >= 0 && b.Band < 15 {
			gains[b.Band] = b.Gain
		}
	}

	bands := make([]*biquad, 0, 15)
	for i, freq := range eqBandFrequencies {
		if gains[i] == 0 {
			continue
		}
		bands = append(bands, newPeakingBiquad(float64(audio.OutputSampleRate), freq, gains[i]))
	}
	return &equalizerStage{bands: bands}
}

func (s *equalizerStage) process(frame audio.StereoFrame) {
	if len(s.bands) == 0 {
		return
	}
	for i := 0; i+1 < len(frame); i += 2 {
		l := float64(frame[i])
		r := float64(frame[i+1])
		for _, bq := range s.bands {
			l = bq.processL(l)
			r = bq.processR(r)
		}
		frame[i] = float32(l)
		frame[i+1] = float32(r)
	}
}

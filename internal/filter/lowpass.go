// ABOUTME: Low-pass filter, single-pole exponential smoothing per channel
package filter

import "github.com/sonicrelay/voicenode/pkg/audio"

type lowPassStage struct {
	coeff    float32
	prevL    float32
	prevR    float32
}

func newLowPassStage(p LowPassParams) *lowPassStage {
	smoothing := p.Smoothing
	if smoothing < 1 {
		smoothing = 1
	}
	return &lowPassStage{coeff: 1 / smoothing}
}

func (s *lowPassStage) process(frame audio.StereoFrame) {
	for i := 0; i+1 < len(frame); i += 2 {
		s.prevL = s.prevL + s.coeff*(frame[i]-s.prevL)
		s.prevR = s.prevR + s.coeff*(frame[i+1]-s.prevR)
		frame[i] = s.prevL
		frame[i+1] = s.prevR
	}
}

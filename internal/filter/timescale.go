// ABOUTME: Timescale filter, combined speed/pitch/rate scaling
// ABOUTME: Naive resample implementation: linear interpolation over a backlog buffer
package filter

import "github.com/sonicrelay/voicenode/pkg/audio"

// timescaleStage reads each incoming frame into a backlog and resamples it
// out at a combined rate. This is the "naive resample" implementation the
// spec allows in place of windowed overlap-add: speed, pitch, and rate all
// collapse into one read-rate multiplier, since a single linear
// interpolation pass cannot separate them.
type timescaleStage struct {
	ratio    float64
	backlog  []float32
	readPos  float64
}

const timescaleBacklogCap = audio.FrameSamples * audio.OutputChannels * 4

func newTimescaleStage(p TimescaleParams) *timescaleStage {
	speed, pitch, rate := p.Speed, p.Pitch, p.Rate
	if speed <= 0 {
		speed = 1
	}
	if pitch <= 0 {
		pitch = 1
	}
	if rate <= 0 {
		rate = 1
	}
	return &timescaleStage{ratio: float64(speed) * float64(pitch) * float64(rate)}
}

func (s *timescaleStage) process(frame audio.StereoFrame) {
	s.backlog = append(s.backlog, frame...)

	pairs := len(frame) / audio.OutputChannels
	for i := 0; i < pairs; i++ {
		idx := int(s.readPos)
		frac := s.readPos - float64(idx)
		li := idx * audio.OutputChannels

		var l0, r0, l1, r1 float32
		if li+1 < len(s.backlog) {
			l0, r0 = s.backlog[li], s.backlog[li+1]
		}
		if li+3 < len(s.backlog) {
			l1, r1 = s.backlog[li+2], s.backlog[li+3]
		} else {
			l1, r1 = l0, r0
		}

		frame[i*2] = l0 + float32(frac)*(l1-l0)
		frame[i*2+1] = r0 + float32(frac)*(r1-r0)

		s.readPos += s.ratio
	}

	consumedPairs := int(s.readPos)
	if consumedPairs > 0 {
		consumedSamples := consumedPairs * audio.OutputChannels
		if consumedSamples > len(s.backlog) {
			consumedSamples = len(s.backlog)
		}
		s.backlog = s.backlog[consumedSamples:]
		s.readPos -= float64(consumedPairs)
	}

	if len(s.backlog) > timescaleBacklogCap {
		drop := len(s.backlog) - timescaleBacklogCap
		drop -= drop % audio.OutputChannels
		s.backlog = s.backlog[drop:]
	}
}

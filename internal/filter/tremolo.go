// ABOUTME: Tremolo filter, periodic amplitude modulation
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

type tremoloStage struct {
	frequency float64
	depth     float64
	phase     float64
}

func newTremoloStage(p TremoloParams) *tremoloStage {
	freq := p.Frequency
	if freq <= 0 {
		freq = 2
	}
	return &tremoloStage{frequency: float64(freq), depth: float64(p.Depth)}
}

func (s *tremoloStage) process(frame audio.StereoFrame) {
	step := 2 * math.Pi * s.frequency / float64(audio.OutputSampleRate)
	for i := 0; i+1 < len(frame); i += 2 {
		mod := 1 - s.depth + s.depth*(0.5*(1+math.Sin(s.phase)))
		frame[i] *= float32(mod)
		frame[i+1] *= float32(mod)
		s.phase += step
	}
	if s.phase > 2*math.Pi*1e6 {
		s.phase = math.Mod(s.phase, 2*math.Pi)
	}
}

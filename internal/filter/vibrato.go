// ABOUTME: Vibrato filter, periodic pitch modulation via a short delay line
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

const vibratoDelayLineMs = 20 // max delay sweep, milliseconds

type vibratoStage struct {
	frequency float64
	depth     float64
	phase     float64

	lineL, lineR []float32
	writePos     int
}

func newVibratoStage(p VibratoParams) *vibratoStage {
	freq := p.Frequency
	if freq <= 0 {
		freq = 2
	}
	lineLen := vibratoDelayLineMs * audio.OutputSampleRate / 1000
	return &vibratoStage{
		frequency: float64(freq),
		depth:     float64(p.Depth),
		lineL:     make([]float32, lineLen),
		lineR:     make([]float32, lineLen),
	}
}

func (s *vibratoStage) process(frame audio.StereoFrame) {
	n := len(s.lineL)
	step := 2 * math.Pi * s.frequency / float64(audio.OutputSampleRate)

	for i := 0; i+1 < len(frame); i += 2 {
		s.lineL[s.writePos] = frame[i]
		s.lineR[s.writePos] = frame[i+1]

		sweep := s.depth * float64(n-1) / 2 * (1 + math.Sin(s.phase))
		readPos := float64(s.writePos) - sweep
		for readPos < 0 {
			readPos += float64(n)
		}

		idx := int(readPos)
		frac := readPos - float64(idx)
		next := (idx + 1) % n

		frame[i] = s.lineL[idx] + float32(frac)*(s.lineL[next]-s.lineL[idx])
		frame[i+1] = s.lineR[idx] + float32(frac)*(s.lineR[next]-s.lineR[idx])

		s.writePos = (s.writePos + 1) % n
		s.phase += step
	}
	if s.phase > 2*math.Pi*1e6 {
		s.phase = math.Mod(s.phase, 2*math.Pi)
	}
}

// ABOUTME: Rotation filter, pans stereo output in a circle ("8D audio")
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

type rotationStage struct {
	hz    float64
	phase float64
}

func newRotationStage(p RotationParams) *rotationStage {
	return &rotationStage{hz: float64(p.RotationHz)}
}

func (s *rotationStage) process(frame audio.StereoFrame) {
	step := 2 * math.Pi * s.hz / float64(audio.OutputSampleRate)
	for i := 0; i+1 < len(frame); i += 2 {
		pan := math.Sin(s.phase) // -1..1
		leftGain := float32(1-pan) * 0.5 * 2
		rightGain := float32(1+pan) * 0.5 * 2

		l, r := frame[i], frame[i+1]
		mid := (l + r) * 0.5
		frame[i] = mid * leftGain
		frame[i+1] = mid * rightGain

		s.phase += step
	}
	if s.phase > 2*math.Pi*1e6 {
		s.phase = math.Mod(s.phase, 2*math.Pi)
	}
}

// ABOUTME: Distortion filter, waveshapes samples through sin/cos/tan terms
package filter

import (
	"math"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

type distortionStage struct {
	p DistortionParams
}

func newDistortionStage(p DistortionParams) *distortionStage {
	return &distortionStage{p: p}
}

func (s *distortionStage) shape(x float32) float32 {
	p := s.p
	v := float64(x)*float64(p.Scale) + float64(p.Offset)
	shaped := math.Sin(v*float64(p.SinScale)+float64(p.SinOffset)) +
		math.Cos(v*float64(p.CosScale)+float64(p.CosOffset)) +
		math.Tan(v*float64(p.TanScale)+float64(p.TanOffset))
	return float32(shaped)
}

func (s *distortionStage) process(frame audio.StereoFrame) {
	for i, v := range frame {
		frame[i] = s.shape(v)
	}
}

// ABOUTME: Volume filter, a flat gain stage
// ABOUTME: Adapted from the teacher's oto-output volume multiplier math
package filter

import "github.com/sonicrelay/voicenode/pkg/audio"

type volumeStage struct {
	level float32
}

func newVolumeStage(p VolumeParams) *volumeStage {
	level := p.Level
	if level < 0 {
		level = 0
	}
	return &volumeStage{level: level}
}

func (s *volumeStage) process(frame audio.StereoFrame) {
	for i, v := range frame {
		frame[i] = v * s.level
	}
}

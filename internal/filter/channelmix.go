// ABOUTME: Channel-mix filter, cross-mixes left and right channels
package filter

import "github.com/sonicrelay/voicenode/pkg/audio"

type channelMixStage struct {
	p ChannelMixParams
}

func newChannelMixStage(p ChannelMixParams) *channelMixStage {
	return &channelMixStage{p: p}
}

func (s *channelMixStage) process(frame audio.StereoFrame) {
	for i := 0; i+1 < len(frame); i += 2 {
		l, r := frame[i], frame[i+1]
		frame[i] = l*s.p.LeftToLeft + r*s.p.RightToLeft
		frame[i+1] = l*s.p.LeftToRight + r*s.p.RightToRight
	}
}

// ABOUTME: Filter chain types and parameter structs for the C3 DSP graph
// ABOUTME: FilterSet is the wire-facing config; Chain is the built, stateful pipeline
package filter

import (
	"encoding/json"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

// VolumeParams scales output amplitude. Domain: 0.0-5.0, 1.0 = unity.
type VolumeParams struct {
	Level float32
}

// EqualizerBand is one of 15 gain bands, gain in [-0.25, 1.0].
type EqualizerBand struct {
	Band int     `json:"band"`
	Gain float32 `json:"gain"`
}

// EqualizerParams holds sparse band overrides; unset bands default to 0 gain.
type EqualizerParams struct {
	Bands []EqualizerBand
}

// KaraokeParams attenuates vocal content centered in a frequency band.
type KaraokeParams struct {
	Level       float32 `json:"level"`
	MonoLevel   float32 `json:"monoLevel"`
	FilterBand  float32 `json:"filterBand"`
	FilterWidth float32 `json:"filterWidth"`
}

// TimescaleParams controls combined speed/pitch/rate scaling. Domain: 0.1-3.0 each.
type TimescaleParams struct {
	Speed float32 `json:"speed"`
	Pitch float32 `json:"pitch"`
	Rate  float32 `json:"rate"`
}

// TremoloParams modulates amplitude. Frequency 0.1-14Hz, depth 0-1.
type TremoloParams struct {
	Frequency float32 `json:"frequency"`
	Depth     float32 `json:"depth"`
}

// VibratoParams modulates pitch via a delay line. Frequency 0.1-14Hz, depth 0-1.
type VibratoParams struct {
	Frequency float32 `json:"frequency"`
	Depth     float32 `json:"depth"`
}

// RotationParams pans audio in a circle (8D audio effect). RotationHz 0-1.
type RotationParams struct {
	RotationHz float32 `json:"rotationHz"`
}

// DistortionParams holds the eight scalar waveshaping coefficients.
type DistortionParams struct {
	SinOffset float32 `json:"sinOffset"`
	SinScale  float32 `json:"sinScale"`
	CosOffset float32 `json:"cosOffset"`
	CosScale  float32 `json:"cosScale"`
	TanOffset float32 `json:"tanOffset"`
	TanScale  float32 `json:"tanScale"`
	Offset    float32 `json:"offset"`
	Scale     float32 `json:"scale"`
}

// ChannelMixParams cross-mixes the two channels, coefficients in [0, 1].
type ChannelMixParams struct {
	LeftToLeft   float32 `json:"leftToLeft"`
	LeftToRight  float32 `json:"leftToRight"`
	RightToLeft  float32 `json:"rightToLeft"`
	RightToRight float32 `json:"rightToRight"`
}

// LowPassParams is a single-pole low-pass. Smoothing must be >= 1.
type LowPassParams struct {
	Smoothing float32 `json:"smoothing"`
}

// FilterSet is the client-facing filter configuration. A nil field means
// that filter is absent from the chain. Presence, not zero value, means
// enabled.
type FilterSet struct {
	Volume     *VolumeParams
	Equalizer  *EqualizerParams
	Karaoke    *KaraokeParams
	Timescale  *TimescaleParams
	Tremolo    *TremoloParams
	Vibrato    *VibratoParams
	Rotation   *RotationParams
	Distortion *DistortionParams
	ChannelMix *ChannelMixParams
	LowPass    *LowPassParams
}

// filterSetWire mirrors the REST body's shape (§6): volume is a bare
// scalar and equalizer is a bare band array, not objects wrapping Level/
// Bands the way the domain structs hold them internally.
type filterSetWire struct {
	Volume     *float32          `json:"volume,omitempty"`
	Equalizer  []EqualizerBand   `json:"equalizer,omitempty"`
	Karaoke    *KaraokeParams    `json:"karaoke,omitempty"`
	Timescale  *TimescaleParams  `json:"timescale,omitempty"`
	Tremolo    *TremoloParams    `json:"tremolo,omitempty"`
	Vibrato    *VibratoParams    `json:"vibrato,omitempty"`
	Rotation   *RotationParams   `json:"rotation,omitempty"`
	Distortion *DistortionParams `json:"distortion,omitempty"`
	ChannelMix *ChannelMixParams `json:"channelMix,omitempty"`
	LowPass    *LowPassParams    `json:"lowPass,omitempty"`
}

// MarshalJSON flattens Volume/Equalizer to their wire scalars (§6).
func (s FilterSet) MarshalJSON() ([]byte, error) {
	w := filterSetWire{
		Karaoke:    s.Karaoke,
		Timescale:  s.Timescale,
		Tremolo:    s.Tremolo,
		Vibrato:    s.Vibrato,
		Rotation:   s.Rotation,
		Distortion: s.Distortion,
		ChannelMix: s.ChannelMix,
		LowPass:    s.LowPass,
	}
	if s.Volume != nil {
		w.Volume = &s.Volume.Level
	}
	if s.Equalizer != nil {
		w.Equalizer = s.Equalizer.Bands
	}
	return json.Marshal(w)
}

// UnmarshalJSON reconstructs Volume/Equalizer from their wire scalars (§6
// scenario 4: {"volume":2.0,"equalizer":[{"band":0,"gain":0.25}]}).
func (s *FilterSet) UnmarshalJSON(data []byte) error {
	var w filterSetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = FilterSet{
		Karaoke:    w.Karaoke,
		Timescale:  w.Timescale,
		Tremolo:    w.Tremolo,
		Vibrato:    w.Vibrato,
		Rotation:   w.Rotation,
		Distortion: w.Distortion,
		ChannelMix: w.ChannelMix,
		LowPass:    w.LowPass,
	}
	if w.Volume != nil {
		s.Volume = &VolumeParams{Level: *w.Volume}
	}
	if w.Equalizer != nil {
		s.Equalizer = &EqualizerParams{Bands: w.Equalizer}
	}
	return nil
}

// IsEmpty reports whether no filter is configured.
func (s FilterSet) IsEmpty() bool {
	return s.Volume == nil && s.Equalizer == nil && s.Karaoke == nil &&
		s.Timescale == nil && s.Tremolo == nil && s.Vibrato == nil &&
		s.Rotation == nil && s.Distortion == nil && s.ChannelMix == nil &&
		s.LowPass == nil
}

// stage is one link in the chain. process mutates frame in place.
type stage interface {
	process(frame audio.StereoFrame)
}

// Chain is a built, stateful filter graph for one Player. Each Process call
// advances every stage's internal state by exactly one 20ms frame; building
// a new Chain from an updated FilterSet and swapping it in atomically keeps
// parameter changes from landing mid-frame.
type Chain struct {
	stages []stage
}

// NewChain builds a Chain from set, instantiating only the present filters,
// in the fixed spec order: volume, EQ, karaoke, timescale, tremolo, vibrato,
// rotation, distortion, channel-mix, low-pass.
func NewChain(set FilterSet) *Chain {
	var stages []stage
	if set.Volume != nil {
		stages = append(stages, newVolumeStage(*set.Volume))
	}
	if set.Equalizer != nil {
		stages = append(stages, newEqualizerStage(*set.Equalizer))
	}
	if set.Karaoke != nil {
		stages = append(stages, newKaraokeStage(*set.Karaoke))
	}
	if set.Timescale != nil {
		stages = append(stages, newTimescaleStage(*set.Timescale))
	}
	if set.Tremolo != nil {
		stages = append(stages, newTremoloStage(*set.Tremolo))
	}
	if set.Vibrato != nil {
		stages = append(stages, newVibratoStage(*set.Vibrato))
	}
	if set.Rotation != nil {
		stages = append(stages, newRotationStage(*set.Rotation))
	}
	if set.Distortion != nil {
		stages = append(stages, newDistortionStage(*set.Distortion))
	}
	if set.ChannelMix != nil {
		stages = append(stages, newChannelMixStage(*set.ChannelMix))
	}
	if set.LowPass != nil {
		stages = append(stages, newLowPassStage(*set.LowPass))
	}
	return &Chain{stages: stages}
}

// Process runs frame through every configured stage in order. With no
// stages configured, frame is returned unmodified.
func (c *Chain) Process(frame audio.StereoFrame) {
	for _, s := range c.stages {
		s.process(frame)
	}
}

// Empty reports whether this chain has no stages (identity function).
func (c *Chain) Empty() bool {
	return len(c.stages) == 0
}

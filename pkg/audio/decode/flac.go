// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio to int32 samples via mewkiz/flac frame parsing
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/sonicrelay/voicenode/pkg/audio"
)

// FLACDecoder decodes a whole FLAC byte buffer (stream header plus frames)
// per Decode call, in the same one-shot style as the MP3 decoder.
type FLACDecoder struct {
	format audio.Format
}

// NewFLAC creates a new FLAC decoder
func NewFLAC(format audio.Format) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}
	return &FLACDecoder{format: format}, nil
}

// Decode converts a complete FLAC byte buffer to int32 samples, interleaved
// by channel.
func (d *FLACDecoder) Decode(data []byte) ([]int32, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac stream: %w", err)
	}
	defer stream.Close()

	// Shift to the 24-bit range the other decoders produce.
	shift := 24 - int(stream.Info.BitsPerSample)

	var samples []int32
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame decode error: %w", err)
		}
		nchan := len(f.Subframes)
		for i := 0; i < int(f.BlockSize); i++ {
			for ch := 0; ch < nchan; ch++ {
				s := f.Subframes[ch].Samples[i]
				if shift >= 0 {
					s <<= uint(shift)
				} else {
					s >>= uint(-shift)
				}
				samples = append(samples, s)
			}
		}
	}

	return samples, nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}

// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to int32 samples
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes whole MP3 byte buffers into PCM samples. go-mp3 exposes
// a streaming io.Reader, so each Decode call opens a fresh decoder over the
// bytes handed to it and drains it completely; source adapters (pkg C2) feed
// it a whole file or HTTP response body at a time, not arbitrary frame
// fragments.
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}
	return &MP3Decoder{}, nil
}

// Decode converts a complete MP3 byte buffer to int32 samples
func (d *MP3Decoder) Decode(data []byte) ([]int32, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	var samples []int32
	buf := make([]byte, 8192)
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			numSamples := n / 2 // 2 bytes per int16 sample
			for i := 0; i < numSamples; i++ {
				sample16 := int16(binary.LittleEndian.Uint16(buf[i*2:]))
				samples = append(samples, audio.SampleFromInt16(sample16))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3 decode error: %w", err)
		}
	}

	return samples, nil
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}

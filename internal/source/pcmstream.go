// ABOUTME: In-memory PcmStream backing the http and local adapters
// ABOUTME: Both decode a whole fetched buffer up front, then serve it incrementally
package source

import (
	"io"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

// bufferStream serves pre-decoded PCM samples out of memory, one ReadFrame
// call at a time.
type bufferStream struct {
	samples []int32
	pos     int
	format  audio.Format
}

func newBufferStream(samples []int32, format audio.Format) *bufferStream {
	return &bufferStream{samples: samples, format: format}
}

func (s *bufferStream) ReadFrame(buf []int32) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n, nil
}

func (s *bufferStream) Format() audio.Format {
	return s.format
}

func (s *bufferStream) Close() error {
	s.samples = nil
	return nil
}

// Seek repositions the stream to the given millisecond offset. bufferStream
// implements this directly since the whole track is already decoded in
// memory; streaming sources implement it on their own PcmStream type where
// seeking means re-requesting from an offset.
func (s *bufferStream) Seek(ms int64) error {
	samplesPerMs := s.format.SampleRate * s.format.Channels / 1000
	pos := int(ms) * samplesPerMs
	if pos < 0 {
		pos = 0
	}
	if pos > len(s.samples) {
		pos = len(s.samples)
	}
	s.pos = pos
	return nil
}

// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests MP3 decoder creation and error handling on malformed input
package decode

import (
	"testing"

	"github.com/sonicrelay/voicenode/pkg/audio"
)

func TestNewMP3(t *testing.T) {
	format := audio.Format{
		Codec:      "mp3",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err != nil {
		t.Fatalf("NewMP3() unexpected error: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewMP3_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for MP3 decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestMP3Decode_MalformedData(t *testing.T) {
	format := audio.Format{
		Codec:      "mp3",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err != nil {
		t.Fatalf("NewMP3() failed: %v", err)
	}

	_, err = decoder.Decode([]byte{0x00, 0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected error decoding malformed mp3 data, got nil")
	}
}

func TestMP3Close(t *testing.T) {
	format := audio.Format{
		Codec:      "mp3",
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewMP3(format)
	if err != nil {
		t.Fatalf("NewMP3() failed: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
}

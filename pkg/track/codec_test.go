// ABOUTME: Tests for the track codec round-trip and malformed-input handling
package track

import (
	"testing"

	"github.com/sonicrelay/voicenode/internal/apperr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Track{
		{
			Identifier: "dQw4w9WgXcQ",
			Title:      "Never Gonna Give You Up",
			Author:     "Rick Astley",
			LengthMs:   212000,
			IsStream:   false,
			IsSeekable: true,
			URI:        "https://youtube.com/watch?v=dQw4w9WgXcQ",
			SourceName: "youtube",
			ArtworkURL: "https://img.example/art.jpg",
			ISRC:       "GBARL9300135",
		},
		{
			Identifier: "live-radio-1",
			Title:      "Live Stream",
			Author:     "",
			LengthMs:   0,
			IsStream:   true,
			IsSeekable: false,
			SourceName: "http",
		},
	}

	for _, want := range cases {
		encoded := Encode(want)
		got, err := Decode(encoded)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
		}
	}
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode("AAAAAA==")
	assertMalformed(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	encoded := Encode(Track{Identifier: "abc", SourceName: "http"})
	truncated := encoded[:len(encoded)/2]
	_, err := Decode(truncated)
	assertMalformed(t, err)
}

func TestDecodeInvalidBase64(t *testing.T) {
	_, err := Decode("not-valid-base64!!!")
	assertMalformed(t, err)
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if appErr.Kind != apperr.MalformedTrack {
		t.Errorf("expected MalformedTrack, got %s", appErr.Kind)
	}
}

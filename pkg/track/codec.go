// ABOUTME: Binary encode/decode for the opaque track string
// ABOUTME: Versioned header + length-prefixed fields, base64-wrapped
package track

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"

	"github.com/sonicrelay/voicenode/internal/apperr"
)

// magic identifies the binary format before any version-specific parsing.
const magic uint32 = 0x564e_5431 // "VNT1"

// version is the current encoding schema version. Decoding an unknown
// version fails rather than guessing at field order.
const version uint8 = 2

// flag bits, set in the header when the corresponding optional field is present.
const (
	flagURI     uint8 = 1 << 0
	flagArtwork uint8 = 1 << 1
	flagISRC    uint8 = 1 << 2
	flagStream  uint8 = 1 << 3
	flagSeek    uint8 = 1 << 4
)

// Encode serialises t into the opaque, base64-wrapped wire format.
func Encode(t Track) string {
	var buf bytes.Buffer

	flags := flagByte(t)

	binary.Write(&buf, binary.BigEndian, magic)
	buf.WriteByte(version)
	buf.WriteByte(flags)

	writeString(&buf, t.Identifier)
	writeString(&buf, t.Title)
	writeString(&buf, t.Author)
	binary.Write(&buf, binary.BigEndian, t.LengthMs)
	if flags&flagURI != 0 {
		writeString(&buf, t.URI)
	}
	writeString(&buf, t.SourceName)
	if flags&flagArtwork != 0 {
		writeString(&buf, t.ArtworkURL)
	}
	if flags&flagISRC != 0 {
		writeString(&buf, t.ISRC)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func flagByte(t Track) uint8 {
	var f uint8
	if t.URI != "" {
		f |= flagURI
	}
	if t.ArtworkURL != "" {
		f |= flagArtwork
	}
	if t.ISRC != "" {
		f |= flagISRC
	}
	if t.IsStream {
		f |= flagStream
	}
	if t.IsSeekable {
		f |= flagSeek
	}
	return f
}

// Decode parses the opaque wire string back into a Track. It fails with a
// MalformedTrack apperr.Error on bad magic, unknown version, or truncated
// fields.
func Decode(encoded string) (Track, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Track{}, apperr.Wrap(apperr.MalformedTrack, "invalid base64", err)
	}

	r := bytes.NewReader(raw)

	var gotMagic uint32
	if err := binary.Read(r, binary.BigEndian, &gotMagic); err != nil {
		return Track{}, apperr.Wrap(apperr.MalformedTrack, "truncated header", err)
	}
	if gotMagic != magic {
		return Track{}, apperr.New(apperr.MalformedTrack, "bad magic")
	}

	gotVersion, err := r.ReadByte()
	if err != nil {
		return Track{}, apperr.Wrap(apperr.MalformedTrack, "truncated header", err)
	}
	if gotVersion != version {
		return Track{}, apperr.New(apperr.MalformedTrack, "unknown version")
	}

	flags, err := r.ReadByte()
	if err != nil {
		return Track{}, apperr.Wrap(apperr.MalformedTrack, "truncated header", err)
	}

	t := Track{
		IsStream:   flags&flagStream != 0,
		IsSeekable: flags&flagSeek != 0,
	}

	if t.Identifier, err = readString(r); err != nil {
		return Track{}, err
	}
	if t.Title, err = readString(r); err != nil {
		return Track{}, err
	}
	if t.Author, err = readString(r); err != nil {
		return Track{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &t.LengthMs); err != nil {
		return Track{}, apperr.Wrap(apperr.MalformedTrack, "truncated length", err)
	}
	if flags&flagURI != 0 {
		if t.URI, err = readString(r); err != nil {
			return Track{}, err
		}
	}
	if t.SourceName, err = readString(r); err != nil {
		return Track{}, err
	}
	if flags&flagArtwork != 0 {
		if t.ArtworkURL, err = readString(r); err != nil {
			return Track{}, err
		}
	}
	if flags&flagISRC != 0 {
		if t.ISRC, err = readString(r); err != nil {
			return Track{}, err
		}
	}

	return t, nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", apperr.Wrap(apperr.MalformedTrack, "truncated field length", err)
	}
	if r.Len() < int(n) {
		return "", apperr.New(apperr.MalformedTrack, "truncated field data")
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", apperr.Wrap(apperr.MalformedTrack, "truncated field data", err)
	}
	return string(b), nil
}

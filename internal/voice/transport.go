// ABOUTME: Gateway and MediaSocket: the injected transport collaborators C5 drives
// ABOUTME: UDPMediaSocket is the real MediaSocket; no real Gateway ships, tests inject fakes
package voice

import "context"

// Credentials is the complete, merged voice credential triad (spec 4.5).
type Credentials struct {
	Token     string
	Endpoint  string
	SessionID string
}

func (c Credentials) complete() bool {
	return c.Token != "" && c.Endpoint != "" && c.SessionID != ""
}

// ReadyInfo is what a successful gateway handshake yields: the UDP target,
// the negotiated encryption mode, and the secret key the session
// description exchange hands back for xsalsa20_poly1305 framing.
type ReadyInfo struct {
	SSRC           uint32
	IP             string
	Port           int
	EncryptionMode string
	SecretKey      [32]byte
}

// Gateway performs the voice gateway handshake (websocket identify/select-
// protocol exchange) and reports disconnects. No Gateway in this module
// dials a real voice gateway: cmd/voicenode wires a placeholder whose
// Handshake always fails with VoiceTransient, and tests inject fakes.
type Gateway interface {
	Handshake(ctx context.Context, creds Credentials) (ReadyInfo, error)
	// Closed blocks until the gateway session ends, yielding a
	// Discord-style numeric close code and a non-nil error unless the
	// close was clean (explicit Close() call).
	Closed() (code int, err error)
	// KeepAlive sends one heartbeat; the caller invokes it on its own
	// periodic timer.
	KeepAlive() error
	Close() error
}

// MediaSocket is the UDP media path: RTP framing (pion/rtp) plus
// encryption (golang.org/x/crypto/nacl/secretbox) over the socket opened
// at the ReadyInfo target.
type MediaSocket interface {
	Open(info ReadyInfo) error
	SendFrame(frame []byte) error
	SendSilence() error
	Close() error
}

// ABOUTME: UDPMediaSocket: real MediaSocket implementation over UDP
// ABOUTME: RTP framing (pion/rtp) plus xsalsa20_poly1305 encryption (nacl/secretbox)
package voice

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/pion/rtp"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	opusPayloadType = 0x78
	samplesPerFrame = 960 // 20ms at 48kHz
	rtpHeaderSize   = 12
	nonceSize       = 24
)

// silenceFrame is the 3-byte Opus "silence" packet Discord clients expect
// during an underrun (spec 4.5's up-to-5-frames-then-quiet behavior).
var silenceFrame = []byte{0xF8, 0xFF, 0xFE}

// UDPMediaSocket is the real MediaSocket: it frames each Opus payload as an
// RTP packet and encrypts it xsalsa20_poly1305, the mode Discord's
// voice UDP path uses, with the header bytes as the nonce prefix.
type UDPMediaSocket struct {
	mu sync.Mutex

	conn *net.UDPConn
	ssrc uint32
	key  [32]byte

	seq       uint16
	timestamp uint32
}

// NewUDPMediaSocket builds a MediaSocket bound to no socket yet; Open
// dials the UDP target and loads the SSRC/secret key negotiated by the
// gateway handshake.
func NewUDPMediaSocket() *UDPMediaSocket {
	return &UDPMediaSocket{}
}

// Open dials the UDP target named in info and adopts its SSRC/secret key.
func (m *UDPMediaSocket) Open(info ReadyInfo) error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", info.IP, info.Port))
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.ssrc = info.SSRC
	m.key = info.SecretKey
	m.seq = 0
	m.timestamp = 0
	m.mu.Unlock()
	return nil
}

// SendFrame encrypts and writes one Opus frame as an RTP packet, advancing
// the sequence number and timestamp (one frame is samplesPerFrame samples).
func (m *UDPMediaSocket) SendFrame(frame []byte) error {
	m.mu.Lock()
	conn := m.conn
	if conn == nil {
		m.mu.Unlock()
		return errors.New("voice: media socket not open")
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: m.seq,
			Timestamp:      m.timestamp,
			SSRC:           m.ssrc,
		},
	}
	key := m.key
	m.seq++
	m.timestamp += samplesPerFrame
	m.mu.Unlock()

	header, err := pkt.Header.Marshal()
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], header)

	sealed := secretbox.Seal(nil, frame, &nonce, &key)
	packet := append(header, sealed...)

	_, err = conn.Write(packet)
	return err
}

// SendSilence writes one silence RTP packet, the same way a real frame
// would go out, so the remote side keeps its jitter buffer primed.
func (m *UDPMediaSocket) SendSilence() error {
	return m.SendFrame(silenceFrame)
}

// Close releases the UDP socket; safe to call on an unopened socket.
func (m *UDPMediaSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

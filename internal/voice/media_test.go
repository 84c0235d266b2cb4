package voice

import (
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/secretbox"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUDPMediaSocketSendFrameEncryptsAndFrames(t *testing.T) {
	listener := listenUDP(t)
	addr := listener.LocalAddr().(*net.UDPAddr)

	var key [32]byte
	key[0] = 0x42

	m := NewUDPMediaSocket()
	require.NoError(t, m.Open(ReadyInfo{SSRC: 7, IP: "127.0.0.1", Port: addr.Port, SecretKey: key}))
	defer m.Close()

	require.NoError(t, m.SendFrame([]byte("opus-frame-bytes")))

	buf := make([]byte, 1500)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(buf[:n]))
	assert.EqualValues(t, 7, pkt.SSRC)
	assert.EqualValues(t, 0, pkt.SequenceNumber)
	assert.EqualValues(t, opusPayloadType, pkt.PayloadType)

	header, err := pkt.Header.Marshal()
	require.NoError(t, err)
	var nonce [nonceSize]byte
	copy(nonce[:], header)

	decrypted, ok := secretbox.Open(nil, pkt.Payload, &nonce, &key)
	require.True(t, ok)
	assert.Equal(t, "opus-frame-bytes", string(decrypted))
}

func TestUDPMediaSocketSendFrameAdvancesSequenceAndTimestamp(t *testing.T) {
	listener := listenUDP(t)
	addr := listener.LocalAddr().(*net.UDPAddr)

	m := NewUDPMediaSocket()
	require.NoError(t, m.Open(ReadyInfo{SSRC: 1, IP: "127.0.0.1", Port: addr.Port}))
	defer m.Close()

	require.NoError(t, m.SendFrame([]byte("a")))
	require.NoError(t, m.SendFrame([]byte("b")))

	for i := 0; i < 2; i++ {
		buf := make([]byte, 1500)
		listener.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := listener.ReadFromUDP(buf)
		require.NoError(t, err)

		var pkt rtp.Packet
		require.NoError(t, pkt.Unmarshal(buf[:n]))
		assert.EqualValues(t, i, pkt.SequenceNumber)
		assert.EqualValues(t, i*samplesPerFrame, pkt.Timestamp)
	}
}

func TestUDPMediaSocketSendFrameBeforeOpenFails(t *testing.T) {
	m := NewUDPMediaSocket()
	assert.Error(t, m.SendFrame([]byte("x")))
}

func TestUDPMediaSocketSendSilenceWritesSilenceFrame(t *testing.T) {
	listener := listenUDP(t)
	addr := listener.LocalAddr().(*net.UDPAddr)

	var key [32]byte
	m := NewUDPMediaSocket()
	require.NoError(t, m.Open(ReadyInfo{SSRC: 1, IP: "127.0.0.1", Port: addr.Port, SecretKey: key}))
	defer m.Close()

	require.NoError(t, m.SendSilence())

	buf := make([]byte, 1500)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(buf[:n]))
	decrypted, ok := secretbox.Open(nil, pkt.Payload, headerNonce(pkt.Header), &key)
	require.True(t, ok)
	assert.Equal(t, silenceFrame, decrypted)
}

func headerNonce(h rtp.Header) *[nonceSize]byte {
	raw, _ := h.Marshal()
	var nonce [nonceSize]byte
	copy(nonce[:], raw)
	return &nonce
}

func TestUDPMediaSocketCloseIsIdempotent(t *testing.T) {
	m := NewUDPMediaSocket()
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

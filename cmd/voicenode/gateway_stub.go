// ABOUTME: Placeholder Gateway until a deployment wires a real voice websocket dialer
// ABOUTME: Fails closed rather than faking a connected session
package main

import (
	"context"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/internal/voice"
)

type unconfiguredGateway struct {
	closed chan struct{}
}

func (g *unconfiguredGateway) Handshake(ctx context.Context, creds voice.Credentials) (voice.ReadyInfo, error) {
	return voice.ReadyInfo{}, apperr.New(apperr.VoiceTransient, "voice gateway transport not configured")
}

func (g *unconfiguredGateway) Closed() (int, error) {
	<-g.closed
	return 1000, nil
}

func (g *unconfiguredGateway) KeepAlive() error { return nil }

func (g *unconfiguredGateway) Close() error {
	select {
	case <-g.closed:
	default:
		close(g.closed)
	}
	return nil
}

// ABOUTME: Entry point for the voicenode control-plane server
// ABOUTME: Parses CLI flags, wires C1-C8 together, and serves the REST+stream API
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sonicrelay/voicenode/internal/config"
	"github.com/sonicrelay/voicenode/internal/control"
	"github.com/sonicrelay/voicenode/internal/logging"
	"github.com/sonicrelay/voicenode/internal/pipeline"
	"github.com/sonicrelay/voicenode/internal/player"
	"github.com/sonicrelay/voicenode/internal/session"
	"github.com/sonicrelay/voicenode/internal/source"
	"github.com/sonicrelay/voicenode/internal/version"
	"github.com/sonicrelay/voicenode/internal/voice"
	"github.com/sonicrelay/voicenode/pkg/track"
)

// sourceStreamer adapts *source.Registry's PcmStream return to the
// player.Streamer the Player was built against; source.PcmStream and
// pipeline.Stream share a method set but are distinct named types across
// the C2/C4 package boundary.
type sourceStreamer struct {
	registry *source.Registry
}

func (s sourceStreamer) Stream(ctx context.Context, t track.Track) (pipeline.Stream, error) {
	return s.registry.Stream(ctx, t)
}

var (
	configPath = flag.String("config", "", "Path to voicenode.yaml (defaults layered under env overrides)")
	logFile    = flag.String("log-file", "voicenode.log", "Log file path")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(logging.Config{
		Level:   cfg.LogLevel,
		Output:  io.MultiWriter(os.Stdout, f),
		Service: "voicenode",
	})
	log := logging.Get()

	registry := buildRegistry(cfg.Sources, cfg.LocalRoot)

	newPlayer := func(guildID string, events chan<- player.Event) *player.Player {
		conn := voice.New(guildID, unconfiguredGatewayFactory, realMediaFactory, nil)
		return player.New(guildID, sourceStreamer{registry: registry}, conn, 5000, events)
	}

	sessions := session.NewManager(newPlayer, cfg.ResumeTimeout, session.Config{
		PlayerUpdateInterval: cfg.PlayerUpdateInterval,
		StatsInterval:        cfg.StatsInterval,
	})

	router := control.NewRouter(control.Deps{
		Registry:  registry,
		Sessions:  sessions,
		Password:  cfg.Password,
		Version:   version.Version,
		Filters:   cfg.Filters,
		CacheSize: cfg.TrackCacheSize,
		LoadRPS:   cfg.LoadTracksRPS,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	log.Info().Str("addr", addr).Msg("starting voicenode")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown did not complete cleanly")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("voicenode stopped")
}

// buildRegistry wires the http and local adapters plus five remote adapters
// (youtube, soundcloud, bandcamp, vimeo, twitch). The nico adapter exists in
// internal/source but is not registered here, and config has no switch for
// it. The remote adapters are built with nil resolve/search/stream
// backends: each reports SourceUnavailable
// until a deployment wires a real backend in, per the adapter's own
// fallback contract, rather than this binary embedding a third-party
// service client.
func buildRegistry(sc config.SourcesConfig, localRoot string) *source.Registry {
	return source.NewRegistry(
		source.NewHTTP(sc.HTTP, nil),
		source.NewLocal(sc.Local, localRoot),
		source.NewYoutube(sc.YouTube, nil, nil, nil),
		source.NewSoundCloud(sc.SoundCloud, nil, nil, nil),
		source.NewBandcamp(sc.Bandcamp, nil, nil, nil),
		source.NewVimeo(sc.Vimeo, nil, nil, nil),
		source.NewTwitch(sc.Twitch, nil, nil, nil),
	)
}

// unconfiguredGatewayFactory backs every Connection's Gateway until a
// deployment supplies a real voice websocket dialer (spec Non-goal: no
// chat-platform gateway protocol implementation ships here). Handshake
// fails closed with VoiceTransient so the Connection's existing
// classify/backoff/circuit-breaker path handles it exactly like any other
// gateway outage, rather than the node silently pretending to be connected.
func unconfiguredGatewayFactory() voice.Gateway { return &unconfiguredGateway{closed: make(chan struct{})} }

// realMediaFactory builds the real UDP media transport (RTP + secretbox
// encryption); it only ever opens once a Gateway handshake succeeds, so
// it's safe to wire in even while the gateway dialer above stays a stub.
func realMediaFactory() voice.MediaSocket { return voice.NewUDPMediaSocket() }

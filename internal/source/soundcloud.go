// ABOUTME: SoundCloud adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var soundcloudHostPattern = regexp.MustCompile(`^(https?://)?(www\.)?soundcloud\.com/`)

func NewSoundCloud(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "soundcloud",
		enabled:     enabled,
		hostPattern: soundcloudHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

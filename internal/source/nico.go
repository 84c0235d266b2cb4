// ABOUTME: Niconico adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var nicoHostPattern = regexp.MustCompile(`^(https?://)?(www\.)?nicovideo\.jp/`)

func NewNico(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "nico",
		enabled:     enabled,
		hostPattern: nicoHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

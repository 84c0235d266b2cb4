// ABOUTME: Bandcamp adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var bandcampHostPattern = regexp.MustCompile(`^(https?://)?([a-z0-9-]+\.)?bandcamp\.com/`)

func NewBandcamp(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "bandcamp",
		enabled:     enabled,
		hostPattern: bandcampHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

// ABOUTME: Vimeo adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var vimeoHostPattern = regexp.MustCompile(`^(https?://)?(www\.)?vimeo\.com/`)

func NewVimeo(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "vimeo",
		enabled:     enabled,
		hostPattern: vimeoHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

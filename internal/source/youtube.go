// ABOUTME: YouTube adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var youtubeHostPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be|music\.youtube\.com)/`)

// NewYoutube constructs the youtube adapter. resolver/searcher/streamer may
// be nil during startup before a backend is wired, in which case the
// adapter reports SourceUnavailable rather than panicking.
func NewYoutube(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "youtube",
		enabled:     enabled,
		hostPattern: youtubeHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

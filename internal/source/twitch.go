// ABOUTME: Twitch adapter: host matching plus injected resolve/search/stream backends
package source

import "regexp"

var twitchHostPattern = regexp.MustCompile(`^(https?://)?(www\.)?twitch\.tv/`)

func NewTwitch(enabled bool, resolver TrackResolver, searcher SearchResolver, streamer Streamer) Adapter {
	return &remoteAdapter{
		name:        "twitch",
		enabled:     enabled,
		hostPattern: twitchHostPattern,
		resolver:    resolver,
		searcher:    searcher,
		streamer:    streamer,
	}
}

// ABOUTME: Collaborator interfaces the remote adapters delegate to
// ABOUTME: Keeps actual third-party-service resolution pluggable and out of the adapter's own logic
package source

import (
	"context"

	"github.com/sonicrelay/voicenode/pkg/track"
)

// TrackResolver resolves a single source-native identifier to full track
// metadata.
type TrackResolver interface {
	Resolve(ctx context.Context, identifier string) (track.Track, error)
}

// SearchResolver resolves a free-text query to a set of candidate tracks.
type SearchResolver interface {
	Search(ctx context.Context, query string) ([]track.Track, error)
}

// Streamer opens a PCM stream for a resolved track.
type Streamer interface {
	Stream(ctx context.Context, t track.Track) (PcmStream, error)
}

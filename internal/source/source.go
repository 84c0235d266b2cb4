// ABOUTME: Source adapter contract and load-result types for the C2 registry
// ABOUTME: Adapters are a uniform capability set, not a class hierarchy (spec 9)
package source

import (
	"context"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/sonicrelay/voicenode/pkg/track"
)

// ResultKind tags which branch of LoadResult is populated.
type ResultKind string

const (
	KindTrack    ResultKind = "track"
	KindPlaylist ResultKind = "playlist"
	KindSearch   ResultKind = "search"
	KindEmpty    ResultKind = "empty"
	KindError    ResultKind = "error"
)

// Playlist is a named, ordered set of tracks with a selected entry.
type Playlist struct {
	Tracks        []track.Track
	SelectedIndex int
	Name          string
}

// LoadResult is the tagged union returned by Adapter.Load and Adapter.Search.
type LoadResult struct {
	Kind     ResultKind
	Track    track.Track
	Playlist Playlist
	Tracks   []track.Track

	ErrorMessage  string
	ErrorSeverity apperr.Severity
	ErrorCause    error
}

func TrackResult(t track.Track) LoadResult {
	return LoadResult{Kind: KindTrack, Track: t}
}

func PlaylistResult(p Playlist) LoadResult {
	return LoadResult{Kind: KindPlaylist, Playlist: p}
}

func SearchResult(tracks []track.Track) LoadResult {
	return LoadResult{Kind: KindSearch, Tracks: tracks}
}

func EmptyResult() LoadResult {
	return LoadResult{Kind: KindEmpty}
}

func ErrorResult(severity apperr.Severity, message string, cause error) LoadResult {
	return LoadResult{
		Kind:          KindError,
		ErrorSeverity: severity,
		ErrorMessage:  message,
		ErrorCause:    cause,
	}
}

// PcmStream is an open, decoded PCM stream at the source's native rate.
// ReadFrame fills buf with up to len(buf) interleaved samples and returns
// the count actually read; io.EOF signals end of stream.
type PcmStream interface {
	ReadFrame(buf []int32) (int, error)
	Format() audio.Format
	Close() error
}

// Adapter is the uniform capability set every source implements.
type Adapter interface {
	Name() string
	Enabled() bool
	CanHandle(identifier string) bool
	Load(ctx context.Context, identifier string) LoadResult
	Search(ctx context.Context, query string) LoadResult
	Stream(ctx context.Context, t track.Track) (PcmStream, error)
}

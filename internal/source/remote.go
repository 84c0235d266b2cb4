// ABOUTME: Shared adapter shape for the six remote streaming-service sources
// ABOUTME: Each source differs only by name, host pattern, and injected resolvers
package source

import (
	"context"
	"regexp"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/pkg/track"
)

type remoteAdapter struct {
	name        string
	enabled     bool
	hostPattern *regexp.Regexp
	resolver    TrackResolver
	searcher    SearchResolver
	streamer    Streamer
}

func (a *remoteAdapter) Name() string  { return a.name }
func (a *remoteAdapter) Enabled() bool { return a.enabled }

func (a *remoteAdapter) CanHandle(identifier string) bool {
	return a.hostPattern.MatchString(identifier)
}

func (a *remoteAdapter) Load(ctx context.Context, identifier string) LoadResult {
	if a.resolver == nil {
		return ErrorResult(apperr.SeverityCommon, a.name+" resolution not configured",
			apperr.New(apperr.SourceUnavailable, a.name+" has no track resolver"))
	}
	t, err := a.resolver.Resolve(ctx, identifier)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, err.Error(), err)
	}
	t.SourceName = a.name
	return TrackResult(t)
}

func (a *remoteAdapter) Search(ctx context.Context, query string) LoadResult {
	if a.searcher == nil {
		return ErrorResult(apperr.SeverityCommon, a.name+" search not configured",
			apperr.New(apperr.SourceUnavailable, a.name+" has no search resolver"))
	}
	tracks, err := a.searcher.Search(ctx, query)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, err.Error(), err)
	}
	for i := range tracks {
		tracks[i].SourceName = a.name
	}
	if len(tracks) == 0 {
		return EmptyResult()
	}
	return SearchResult(tracks)
}

func (a *remoteAdapter) Stream(ctx context.Context, t track.Track) (PcmStream, error) {
	if a.streamer == nil {
		return nil, apperr.New(apperr.SourceUnavailable, a.name+" has no stream backend configured")
	}
	return a.streamer.Stream(ctx, t)
}

// ABOUTME: Source registry: deterministic routing from identifier to adapter
// ABOUTME: Implements search-prefix dispatch, can_handle priority order, and the fallback rewriter
package source

import (
	"context"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/pkg/track"
)

// searchPrefixes maps a recognised search prefix to the adapter name that
// handles it. Order doesn't matter here; prefix match is exact.
var searchPrefixes = map[string]string{
	"ytsearch:": "youtube",
	"scsearch:": "soundcloud",
	"bcsearch:": "bandcamp",
	"vmsearch:": "vimeo",
	"twsearch:": "twitch",
}

// Registry holds adapters in declared priority order. It is immutable
// after construction (spec 5: "source adapter registry is immutable after
// startup").
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds a Registry from adapters, in priority order: earlier
// adapters win can_handle ties.
func NewRegistry(adapters ...Adapter) *Registry {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Registry{adapters: adapters, byName: byName}
}

// Adapter returns the named adapter, or nil if not registered or disabled.
func (r *Registry) Adapter(name string) Adapter {
	a, ok := r.byName[name]
	if !ok || !a.Enabled() {
		return nil
	}
	return a
}

// Adapters returns all enabled adapters, in priority order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if a.Enabled() {
			out = append(out, a)
		}
	}
	return out
}

// Resolve routes identifier to the right adapter per spec 4.2:
//  1. known search prefix -> strip, dispatch Search on that adapter
//  2. else first enabled adapter whose CanHandle matches, in priority order
//  3. else a fallback-rewriter pattern match -> ytsearch delegation
//  4. else Empty
func (r *Registry) Resolve(ctx context.Context, identifier string) LoadResult {
	for prefix, name := range searchPrefixes {
		if hasPrefix(identifier, prefix) {
			a := r.Adapter(name)
			if a == nil {
				return EmptyResult()
			}
			return a.Search(ctx, identifier[len(prefix):])
		}
	}

	for _, a := range r.adapters {
		if a.Enabled() && a.CanHandle(identifier) {
			return a.Load(ctx, identifier)
		}
	}

	if query, ok := RewriteFallback(identifier); ok {
		youtube := r.Adapter("youtube")
		if youtube == nil {
			return EmptyResult()
		}
		return youtube.Search(ctx, query)
	}

	return EmptyResult()
}

// Stream opens a PcmStream for an already-resolved track by dispatching to
// the adapter named in t.SourceName. Used by the Player (C6) once a track
// has been loaded via Resolve and is about to start playing.
func (r *Registry) Stream(ctx context.Context, t track.Track) (PcmStream, error) {
	a := r.Adapter(t.SourceName)
	if a == nil {
		return nil, apperr.New(apperr.NotFound, "no adapter registered for source: "+t.SourceName)
	}
	return a.Stream(ctx, t)
}

// DecodeBatch decodes each encoded track string, returning one LoadResult
// per input in order; malformed entries produce an Error result rather
// than failing the whole batch.
func DecodeBatch(decode func(string) (LoadResult, error)) func([]string) []LoadResult {
	return func(encoded []string) []LoadResult {
		out := make([]LoadResult, len(encoded))
		for i, e := range encoded {
			res, err := decode(e)
			if err != nil {
				appErr, _ := apperr.As(err)
				msg := err.Error()
				if appErr != nil {
					msg = appErr.Message
				}
				out[i] = ErrorResult(apperr.SeverityCommon, msg, err)
				continue
			}
			out[i] = res
		}
		return out
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

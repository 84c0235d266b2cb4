// ABOUTME: Tests for registry routing: prefix dispatch, can_handle priority, fallback, disabled sources
package source

import (
	"context"
	"testing"

	"github.com/sonicrelay/voicenode/pkg/track"
)

// fakeAdapter is a minimal test double implementing Adapter. Like the real
// remote adapters, its Search stamps its own name as each hit's SourceName.
type fakeAdapter struct {
	name       string
	enabled    bool
	handles    func(string) bool
	searchHits []track.Track
	loadHit    track.Track
	loadOK     bool
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Enabled() bool { return f.enabled }
func (f *fakeAdapter) CanHandle(id string) bool {
	if f.handles == nil {
		return false
	}
	return f.handles(id)
}
func (f *fakeAdapter) Load(ctx context.Context, id string) LoadResult {
	if !f.loadOK {
		return EmptyResult()
	}
	return TrackResult(f.loadHit)
}
func (f *fakeAdapter) Search(ctx context.Context, q string) LoadResult {
	if len(f.searchHits) == 0 {
		return EmptyResult()
	}
	hits := make([]track.Track, len(f.searchHits))
	for i, h := range f.searchHits {
		h.SourceName = f.name
		hits[i] = h
	}
	return SearchResult(hits)
}
func (f *fakeAdapter) Stream(ctx context.Context, t track.Track) (PcmStream, error) {
	return nil, nil
}

func TestResolveSearchPrefixDispatch(t *testing.T) {
	yt := &fakeAdapter{
		name: "youtube", enabled: true,
		searchHits: []track.Track{{Identifier: "abc", Title: "hit"}},
	}
	reg := NewRegistry(yt)

	res := reg.Resolve(context.Background(), "ytsearch:some query")
	if res.Kind != KindSearch {
		t.Fatalf("expected KindSearch, got %s", res.Kind)
	}
	if len(res.Tracks) != 1 || res.Tracks[0].SourceName != "youtube" {
		t.Fatalf("unexpected tracks: %+v", res.Tracks)
	}
}

func TestResolveCanHandlePriorityOrder(t *testing.T) {
	first := &fakeAdapter{name: "a", enabled: true, handles: func(string) bool { return true }, loadOK: true, loadHit: track.Track{Identifier: "from-a"}}
	second := &fakeAdapter{name: "b", enabled: true, handles: func(string) bool { return true }, loadOK: true, loadHit: track.Track{Identifier: "from-b"}}
	reg := NewRegistry(first, second)

	res := reg.Resolve(context.Background(), "anything")
	if res.Kind != KindTrack || res.Track.Identifier != "from-a" {
		t.Fatalf("expected first adapter to win the tie, got %+v", res)
	}
}

func TestResolveDisabledSourceSkipped(t *testing.T) {
	disabled := &fakeAdapter{name: "a", enabled: false, handles: func(string) bool { return true }}
	enabled := &fakeAdapter{name: "b", enabled: true, handles: func(string) bool { return true }, loadOK: true, loadHit: track.Track{Identifier: "from-b"}}
	reg := NewRegistry(disabled, enabled)

	res := reg.Resolve(context.Background(), "anything")
	if res.Kind != KindTrack || res.Track.Identifier != "from-b" {
		t.Fatalf("expected disabled adapter to be skipped, got %+v", res)
	}
}

func TestResolveFallbackRewriteToYoutube(t *testing.T) {
	yt := &fakeAdapter{
		name: "youtube", enabled: true,
		searchHits: []track.Track{{Identifier: "fallback-hit"}},
	}
	reg := NewRegistry(yt)

	res := reg.Resolve(context.Background(), "https://open.spotify.com/track/some-artist-some-song")
	if res.Kind != KindSearch {
		t.Fatalf("expected fallback search result, got %s", res.Kind)
	}
	if len(res.Tracks) != 1 || res.Tracks[0].SourceName != "youtube" {
		t.Fatalf("expected youtube-sourced fallback track, got %+v", res.Tracks)
	}
}

func TestResolveUnmatchedReturnsEmpty(t *testing.T) {
	reg := NewRegistry()
	res := reg.Resolve(context.Background(), "not-a-url-or-prefix")
	if res.Kind != KindEmpty {
		t.Fatalf("expected KindEmpty, got %s", res.Kind)
	}
}

func TestAdapterLookupRespectsEnabled(t *testing.T) {
	disabled := &fakeAdapter{name: "a", enabled: false}
	reg := NewRegistry(disabled)
	if reg.Adapter("a") != nil {
		t.Fatal("expected disabled adapter to be unreachable by name")
	}
}

// ABOUTME: In-process LRU of decoded-track metadata, keyed by encoded string
// ABOUTME: Avoids redundant codec.Decode calls on hot PATCH/decodetrack loops; never caches audio
package control

import (
	"container/list"
	"sync"

	"github.com/sonicrelay/voicenode/pkg/track"
)

// TrackCache bounds memory with a plain container/list LRU - metadata only,
// never audio bytes (SPEC_FULL non-goal: no on-disk track storage).
type TrackCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key   string
	track track.Track
}

// NewTrackCache builds a cache holding at most capacity decoded tracks.
func NewTrackCache(capacity int) *TrackCache {
	if capacity <= 0 {
		capacity = 512
	}
	return &TrackCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached Track for encoded, decoding and caching it via
// decode on a miss.
func (c *TrackCache) Get(encoded string, decode func(string) (track.Track, error)) (track.Track, error) {
	c.mu.Lock()
	if el, ok := c.items[encoded]; ok {
		c.order.MoveToFront(el)
		t := el.Value.(*cacheEntry).track
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := decode(encoded)
	if err != nil {
		return track.Track{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[encoded]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).track, nil
	}
	el := c.order.PushFront(&cacheEntry{key: encoded, track: t})
	c.items[encoded] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
	return t, nil
}

// Len reports how many entries are currently cached.
func (c *TrackCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

package status

import (
	"context"
	"sync"
	"time"

	"ai-docview-be/pkg/view"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryTracker struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryTracker{cache: gocache.New(ttl, 10*time.Minute)}
}

func (t *MemoryTracker) Set(ctx context.Context, documentID string, kind view.Kind, state JobState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	states := t.load(documentID)
	states[kind] = state
	t.cache.Set(documentID, states, gocache.DefaultExpiration)
	return nil
}

func (t *MemoryTracker) Get(ctx context.Context, documentID string) (map[view.Kind]JobState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(documentID), nil
}

func (t *MemoryTracker) Clear(ctx context.Context, documentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Delete(documentID)
	return nil
}

// load returns a copy so callers can mutate freely.
func (t *MemoryTracker) load(documentID string) map[view.Kind]JobState {
	out := make(map[view.Kind]JobState)
	if x, found := t.cache.Get(documentID); found {
		for k, v := range x.(map[view.Kind]JobState) {
			out[k] = v
		}
	}
	return out
}

package cache

import (
	"context"
	"fmt"
	"time"

	"ai-docview-be/pkg/view"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{cache: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (view.ResultData, bool, error) {
	x, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	raw, ok := x.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("cache entry %s has unexpected type %T", key, x)
	}
	data, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, data view.ResultData) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	s.cache.Set(key, raw, gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

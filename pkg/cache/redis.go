package cache

import (
	"context"
	"errors"
	"time"

	"ai-docview-be/pkg/view"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "docview:result:"

type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (view.ResultData, bool, error) {
	raw, err := s.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data view.ResultData) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisPrefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisPrefix+key).Err()
}

package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-docview-be/pkg/view"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "docview:status:"

// RedisTracker keeps one hash per document, field per view.
type RedisTracker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisTracker(client redis.Cmdable, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Set(ctx context.Context, documentID string, kind view.Kind, state JobState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	key := redisPrefix + documentID
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, string(kind), raw)
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	return err
}

func (t *RedisTracker) Get(ctx context.Context, documentID string) (map[view.Kind]JobState, error) {
	fields, err := t.client.HGetAll(ctx, redisPrefix+documentID).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[view.Kind]JobState, len(fields))
	for k, raw := range fields {
		var s JobState
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode status %s/%s: %w", documentID, k, err)
		}
		out[view.Kind(k)] = s
	}
	return out, nil
}

func (t *RedisTracker) Clear(ctx context.Context, documentID string) error {
	return t.client.Del(ctx, redisPrefix+documentID).Err()
}

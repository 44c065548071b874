package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-docview-be/pkg/view"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	key := ViewKey("dv:test-"+time.Now().Format("150405.000000"), view.KindQA, "content")

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	original := view.ResultData{"pair_count": 2, "pairs": []interface{}{"a"}}
	require.NoError(t, s.Set(ctx, key, original))
	original["pair_count"] = 99

	got, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2.0, got["pair_count"])
	assert.Equal(t, []interface{}{"a"}, got["pairs"])

	require.NoError(t, s.Delete(ctx, key))
	_, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Minute))
}

func TestViewKey(t *testing.T) {
	key := ViewKey("dv:abc", view.KindSystem, "first text")

	assert.Regexp(t, `^dv:abc/system/[0-9a-f]{16}$`, key)
	assert.Equal(t, key, ViewKey("dv:abc", view.KindSystem, "first text"))
	assert.NotEqual(t, key, ViewKey("dv:abc", view.KindSystem, "second text"))
	assert.NotEqual(t, key, ViewKey("dv:abc", view.KindQA, "first text"))
}

package status

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseTracker(t *testing.T, tr Tracker) {
	ctx := context.Background()
	doc := uuid.NewString()

	states, err := tr.Get(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, states)

	require.NoError(t, tr.Set(ctx, doc, view.KindSystem, Pending()))
	require.NoError(t, tr.Set(ctx, doc, view.KindLearning, Failed(errors.New("model down"))))
	require.NoError(t, tr.Set(ctx, doc, view.KindSystem, Processing()))

	states, err = tr.Get(ctx, doc)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, StateProcessing, states[view.KindSystem].State)
	assert.Equal(t, StateFailed, states[view.KindLearning].State)
	assert.Equal(t, "model down", states[view.KindLearning].Error)

	require.NoError(t, tr.Clear(ctx, doc))
	states, err = tr.Get(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestMemoryTracker(t *testing.T) {
	exerciseTracker(t, NewMemoryTracker(time.Minute))
}

func TestMemoryTracker_ReturnsCopies(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	ctx := context.Background()
	require.NoError(t, tr.Set(ctx, "doc", view.KindQA, Pending()))

	states, _ := tr.Get(ctx, "doc")
	states[view.KindQA] = Completed()

	states, _ = tr.Get(ctx, "doc")
	assert.Equal(t, StatePending, states[view.KindQA].State)
}

func TestRedisTracker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	exerciseTracker(t, NewRedisTracker(client, time.Minute))
}

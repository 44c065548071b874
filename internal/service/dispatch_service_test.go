package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	mu    sync.Mutex
	calls []view.Kind
	err   error
}

func (r *scriptedRunner) ProcessView(ctx context.Context, documentId string, kind view.Kind, isPrimary bool) (*ViewOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, kind)
	return &ViewOutcome{}, r.err
}

func (r *scriptedRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	return pubSub
}

func startDispatch(t *testing.T, pubSub *gochannel.GoChannel, runner viewRunner, tracker status.Tracker) {
	t.Helper()
	registry := view.NewRegistry(logger.NewNopLogger())
	for _, kind := range []view.Kind{view.KindQA, view.KindSystem, view.KindLearning} {
		registry.Register(kind, &countingProcessor{kind: kind}, "")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ds := NewDispatchService(pubSub, "view.ready", runner, registry, tracker, DispatchConfig{
		Shards:           2,
		MaxAttempts:      3,
		Backoff:          time.Millisecond,
		SecondaryTimeout: time.Second,
	}, logger.NewNopLogger())
	require.NoError(t, ds.Consume(ctx))
}

func publishReady(t *testing.T, pub IPublisherService, msg dto.ViewReadyMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), msg.DocumentId+"/"+msg.View, payload))
}

func TestDispatch_BuildsSecondaryViews(t *testing.T) {
	pubSub := newPubSub(t)
	h := newHarness(t, nil, DocumentServiceConfig{})
	startDispatch(t, pubSub, h.svc, h.tracker)

	// Route the service's secondaries through the real bus.
	h.svc.(*documentService).dispatcher = NewPublisherService("view.ready", 2, pubSub)
	h.ingest(t, "doc-1")

	assert.Eventually(t, func() bool {
		st, err := h.svc.GetStatus(context.Background(), "doc-1")
		return err == nil && st.Views["system"].Ready
	}, 2*time.Second, 10*time.Millisecond)

	got, err := h.svc.GetView(context.Background(), "doc-1", "system")
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)
	assert.Equal(t, 1, h.processors[view.KindSystem].Calls())
}

func TestDispatch_RetriesThenMarksFailed(t *testing.T) {
	pubSub := newPubSub(t)
	tracker := status.NewMemoryTracker(time.Hour)
	runner := &scriptedRunner{err: errors.New("store unavailable")}
	startDispatch(t, pubSub, runner, tracker)

	publishReady(t, NewPublisherService("view.ready", 2, pubSub), dto.ViewReadyMessage{DocumentId: "doc-1", View: "system"})

	assert.Eventually(t, func() bool {
		states, _ := tracker.Get(context.Background(), "doc-1")
		return states[view.KindSystem].State == status.StateFailed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, runner.count())
}

func TestDispatch_ProcessingFailureIsNotRetried(t *testing.T) {
	pubSub := newPubSub(t)
	runner := &scriptedRunner{err: ErrViewProcessingFailure}
	startDispatch(t, pubSub, runner, status.NewMemoryTracker(time.Hour))
	pub := NewPublisherService("view.ready", 2, pubSub)

	publishReady(t, pub, dto.ViewReadyMessage{DocumentId: "doc-1", View: "learning"})
	publishReady(t, pub, dto.ViewReadyMessage{DocumentId: "doc-2", View: "learning"})

	assert.Eventually(t, func() bool { return runner.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, runner.count())
}

func TestDispatch_WaitsForNotBefore(t *testing.T) {
	pubSub := newPubSub(t)
	runner := &scriptedRunner{}
	startDispatch(t, pubSub, runner, status.NewMemoryTracker(time.Hour))

	publishReady(t, NewPublisherService("view.ready", 2, pubSub), dto.ViewReadyMessage{
		DocumentId: "doc-1",
		View:       "qa",
		NotBefore:  time.Now().Add(150 * time.Millisecond),
	})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, runner.count())
	assert.Eventually(t, func() bool { return runner.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestShardOf_IsStable(t *testing.T) {
	for _, key := range []string{"doc-1/system", "doc-2/learning", ""} {
		a := shardOf(key, 4)
		assert.Equal(t, a, shardOf(key, 4))
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, 4)
	}
	assert.Equal(t, "view.ready.3", ShardTopic("view.ready", 3))
}

package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/events"
	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func watch(t *testing.T, hub *Hub, documentID string) *Client {
	t.Helper()
	c := &Client{Hub: hub, DocumentID: documentID, Send: make(chan []byte, 8)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Watchers(documentID) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func TestHub_DeliversOnlyToDocumentWatchers(t *testing.T) {
	hub := startHub(t)
	a := watch(t, hub, "doc-a")
	b := watch(t, hub, "doc-b")

	hub.SendToDocument("doc-a", events.NewViewCompleted("doc-a", view.KindQA, true, time.Second))

	f := readFrame(t, a)
	assert.Equal(t, events.TypeViewCompleted, f.Type)
	assert.Equal(t, "doc-a", f.Data["document_id"])
	assert.Empty(t, b.Send)
}

func TestHub_ProgressAndChunks(t *testing.T) {
	hub := startHub(t)
	c := watch(t, hub, "doc-1")

	hub.PushProgress("doc-1", view.KindLearning, 80, "ordering")
	hub.PushChunk("doc-1", view.KindLearning, "step 1")

	f := readFrame(t, c)
	assert.Equal(t, events.TypeViewProgress, f.Type)
	assert.Equal(t, 80.0, f.Data["percent"])

	f = readFrame(t, c)
	assert.Equal(t, "VIEW_CHUNK", f.Type)
	assert.Equal(t, "step 1", f.Data["chunk"])
}

func TestHub_PublishIgnoresEventsWithoutDocument(t *testing.T) {
	hub := startHub(t)
	c := watch(t, hub, "doc-1")

	require.NoError(t, hub.Publish(context.Background(), events.BaseEvent{Type: "OTHER", Data: map[string]interface{}{}}))
	require.NoError(t, hub.Publish(context.Background(), events.NewDocumentProcessed("doc-1", view.KindQA, []view.Kind{view.KindQA})))

	f := readFrame(t, c)
	assert.Equal(t, events.TypeDocumentProcessed, f.Type)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	c := watch(t, hub, "doc-1")

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.Watchers("doc-1") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/events"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisChannel carries frames between instances so a watcher connected to
// one instance sees work done on another.
const RedisChannel = "view_events"

type Frame struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type clusterMessage struct {
	Origin     string          `json:"origin"`
	DocumentID string          `json:"document_id"`
	Message    json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients map: DocumentID -> watchers
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out, nil when running alone
	rdb    *redis.Client
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.DocumentID] = append(h.clients[client.DocumentID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Watcher registered", map[string]interface{}{"document_id": client.DocumentID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.DocumentID]
	for i, c := range clients {
		if c == client {
			h.clients[client.DocumentID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.DocumentID]) == 0 {
		delete(h.clients, client.DocumentID)
		h.logger.Info("Hub", "Document has no watchers left", map[string]interface{}{"document_id": client.DocumentID})
	}
}

// Watchers reports how many local connections follow documentID.
func (h *Hub) Watchers(documentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[documentID])
}

// SendToDocument delivers a bus event to the document's watchers.
func (h *Hub) SendToDocument(documentID string, event events.Event) {
	h.dispatch(documentID, Frame{Type: event.EventType(), Data: event.Payload()})
}

// Publish lets the hub stand in for the event bus when none is configured.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	if id := events.DocumentID(event); id != "" {
		h.SendToDocument(id, event)
	}
	return nil
}

func (h *Hub) PushProgress(documentID string, kind view.Kind, percent int, stage string) {
	event := events.NewViewProgress(documentID, kind, percent, stage)
	h.dispatch(documentID, Frame{Type: event.EventType(), Data: event.Payload()})
}

func (h *Hub) PushChunk(documentID string, kind view.Kind, chunk string) {
	h.dispatch(documentID, Frame{Type: "VIEW_CHUNK", Data: map[string]interface{}{
		"document_id": documentID,
		"view":        string(kind),
		"chunk":       chunk,
	}})
}

func (h *Hub) dispatch(documentID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(documentID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.origin, DocumentID: documentID, Message: data})
		if err := h.rdb.Publish(context.Background(), RedisChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to fan out frame", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliver(documentID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[documentID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Watcher send buffer full, dropping connection", map[string]interface{}{"document_id": documentID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.origin {
			continue
		}
		h.deliver(payload.DocumentID, payload.Message)
	}
}

package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-docview-be/pkg/events"
)

const (
	StreamName    = "DOCVIEW_EVENTS"
	subjectPrefix = "events."
)

// envelope keeps the event type and time on the wire so subscribers do not
// have to guess them from the subject.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func encodeEvent(event events.Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
}

func decodeEvent(subject string, raw []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.BaseEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if env.Type == "" {
		env.Type = strings.TrimPrefix(subject, subjectPrefix)
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

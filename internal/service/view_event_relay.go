package service

import (
	"context"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/events"
	pktNats "ai-docview-be/pkg/nats" // Renamed to avoid collision
)

// EventDelivery pushes view events to whoever watches a document.
// Typically implemented by the WebSocket Hub.
type EventDelivery interface {
	SendToDocument(documentId string, event events.Event)
}

// ViewEventRelay forwards bus events to live document watchers.
type ViewEventRelay struct {
	subscriber *pktNats.Subscriber
	delivery   EventDelivery
	logger     logger.ILogger
}

func NewViewEventRelay(sub *pktNats.Subscriber, delivery EventDelivery, log logger.ILogger) *ViewEventRelay {
	return &ViewEventRelay{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (r *ViewEventRelay) Start(ctx context.Context) error {
	if err := r.subscriber.Subscribe(ctx, "events.>", "view-event-relay", r.handleEvent); err != nil {
		r.logger.Error("ViewEventRelay", "Failed to start event relay", map[string]interface{}{"error": err.Error()})
		return err
	}
	r.logger.Info("ViewEventRelay", "Event relay started, listening to events.>", nil)
	return nil
}

func (r *ViewEventRelay) handleEvent(ctx context.Context, event events.Event) error {
	documentId := events.DocumentID(event)
	if documentId == "" {
		r.logger.Debug("ViewEventRelay", "Skipping event without document", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	r.delivery.SendToDocument(documentId, event)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"
)

type IDispatchService interface {
	Consume(ctx context.Context) error
	Wait() error
}

// viewRunner is the part of the document service the workers need.
type viewRunner interface {
	ProcessView(ctx context.Context, documentId string, kind view.Kind, isPrimary bool) (*ViewOutcome, error)
}

type DispatchConfig struct {
	Shards           int
	MaxAttempts      int
	Backoff          time.Duration
	SecondaryTimeout time.Duration
}

func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		Shards:           4,
		MaxAttempts:      3,
		Backoff:          500 * time.Millisecond,
		SecondaryTimeout: 60 * time.Second,
	}
}

type dispatchService struct {
	subscriber message.Subscriber
	topicName  string
	runner     viewRunner
	registry   *view.Registry
	tracker    status.Tracker
	cfg        DispatchConfig
	logger     logger.ILogger

	group    *errgroup.Group
	mu       sync.Mutex
	attempts map[string]int
}

func NewDispatchService(
	subscriber message.Subscriber,
	topicName string,
	runner viewRunner,
	registry *view.Registry,
	tracker status.Tracker,
	cfg DispatchConfig,
	log logger.ILogger,
) IDispatchService {
	if cfg.Shards < 1 {
		cfg.Shards = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &dispatchService{
		subscriber: subscriber,
		topicName:  topicName,
		runner:     runner,
		registry:   registry,
		tracker:    tracker,
		cfg:        cfg,
		logger:     log,
		attempts:   make(map[string]int),
	}
}

// Consume subscribes one worker per shard topic and returns once every
// subscription is live. Workers stop when ctx is cancelled.
func (ds *dispatchService) Consume(ctx context.Context) error {
	channels := make([]<-chan *message.Message, ds.cfg.Shards)
	for i := range channels {
		messages, err := ds.subscriber.Subscribe(ctx, ShardTopic(ds.topicName, i))
		if err != nil {
			return err
		}
		channels[i] = messages
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, messages := range channels {
		shard, messages := i, messages
		g.Go(func() error {
			for msg := range messages {
				ds.processMessage(gctx, shard, msg)
			}
			return nil
		})
	}
	ds.group = g

	ds.logger.Info("DispatchService", "Dispatch workers started", map[string]interface{}{
		"topic":  ds.topicName,
		"shards": ds.cfg.Shards,
	})
	return nil
}

// Wait blocks until every worker has drained.
func (ds *dispatchService) Wait() error {
	if ds.group == nil {
		return nil
	}
	return ds.group.Wait()
}

func (ds *dispatchService) processMessage(ctx context.Context, shard int, msg *message.Message) {
	var payload dto.ViewReadyMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ds.logger.Error("DispatchService", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // malformed, a retry cannot fix it
		return
	}

	kind, err := ds.registry.Resolve(payload.View)
	if err != nil || payload.DocumentId == "" {
		ds.logger.Error("DispatchService", "Dropping message for unknown view", map[string]interface{}{
			"message_id":  msg.UUID,
			"document_id": payload.DocumentId,
			"view":        payload.View,
		})
		msg.Ack()
		return
	}

	if wait := time.Until(payload.NotBefore); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			msg.Nack()
			return
		case <-timer.C:
		}
	}

	// Detached from ctx: a shutdown should not cut a view off halfway.
	runCtx, cancel := context.WithTimeout(context.Background(), ds.cfg.SecondaryTimeout)
	defer cancel()

	_, err = ds.runner.ProcessView(runCtx, payload.DocumentId, kind, false)
	switch {
	case err == nil:
		ds.forget(msg.UUID)
		msg.Ack()
		ds.logger.Debug("DispatchService", "Secondary view built", map[string]interface{}{
			"document_id": payload.DocumentId,
			"view":        kind,
			"shard":       shard,
		})
	case errors.Is(err, ErrViewProcessingFailure):
		// Already recorded as failed by ProcessView.
		ds.forget(msg.UUID)
		msg.Ack()
	case errors.Is(err, ErrNoIntermediateResult):
		ds.forget(msg.UUID)
		ds.markFailed(payload.DocumentId, kind, err)
		msg.Ack()
	default:
		attempt := ds.attempt(msg.UUID)
		if attempt >= ds.cfg.MaxAttempts {
			ds.forget(msg.UUID)
			ds.markFailed(payload.DocumentId, kind, err)
			msg.Ack()
			return
		}
		ds.logger.Warn("DispatchService", "Retrying secondary view", map[string]interface{}{
			"document_id": payload.DocumentId,
			"view":        kind,
			"attempt":     attempt,
			"error":       err.Error(),
		})
		select {
		case <-ctx.Done():
		case <-time.After(ds.cfg.Backoff * time.Duration(attempt)):
		}
		msg.Nack()
	}
}

func (ds *dispatchService) attempt(id string) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.attempts[id]++
	return ds.attempts[id]
}

func (ds *dispatchService) forget(id string) {
	ds.mu.Lock()
	delete(ds.attempts, id)
	ds.mu.Unlock()
}

func (ds *dispatchService) markFailed(documentId string, kind view.Kind, cause error) {
	ds.logger.Error("DispatchService", "Secondary view failed", map[string]interface{}{
		"document_id": documentId,
		"view":        kind,
		"error":       cause.Error(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ds.tracker.Set(ctx, documentId, kind, status.Failed(cause)); err != nil {
		ds.logger.Warn("DispatchService", "Failed to record view status", map[string]interface{}{
			"document_id": documentId,
			"view":        kind,
			"error":       err.Error(),
		})
	}
}

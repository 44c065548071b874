package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docview-be/internal/entity"
	"ai-docview-be/pkg/cache"
	"ai-docview-be/pkg/events"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ProcessView builds one view from the stored intermediate snapshot and
// upserts its row. Failures are confined to this (document, view) pair.
func (s *documentService) ProcessView(ctx context.Context, documentId string, kind view.Kind, isPrimary bool) (*ViewOutcome, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.ProcessView")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.id", documentId),
		attribute.String("view.kind", string(kind)),
		attribute.Bool("view.primary", isPrimary),
	)

	processor, err := s.registry.Processor(kind)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	intermediate, err := uow.IntermediateResultRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if intermediate == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoIntermediateResult, documentId)
	}
	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cacheKey := ""
	if profile != nil && profile.CacheKey != "" {
		cacheKey = cache.ViewKey(profile.CacheKey, kind, intermediate.PreprocessedContent)
	}

	data, hit := s.cached(ctx, cacheKey)
	if !hit {
		s.setStatus(documentId, kind, status.Processing())

		data, err = s.runProcessor(ctx, documentId, kind, processor, intermediate)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrViewProcessingFailure, kind, err)
			s.fail(documentId, kind, isPrimary, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "view processing failed")
			return nil, err
		}
		if cacheKey != "" && s.resultCache != nil {
			if cerr := s.resultCache.Set(ctx, cacheKey, data); cerr != nil {
				s.logger.Warn("DocumentService", "Failed to cache view result", map[string]interface{}{
					"document_id": documentId,
					"view":        kind,
					"error":       cerr.Error(),
				})
			}
		}
	}

	alias, _ := s.registry.LegacyAlias(kind)
	result := &entity.ViewResult{
		DocumentId:     documentId,
		View:           kind,
		TypeAlias:      alias,
		ResultData:     data,
		IsPrimary:      isPrimary,
		ProcessingTime: time.Since(start),
	}
	if err := uow.ViewResultRepository().Upsert(ctx, result); err != nil {
		s.setStatus(documentId, kind, status.Failed(err))
		return nil, fmt.Errorf("store view result: %w", err)
	}

	s.setStatus(documentId, kind, status.Completed())
	s.publish(ctx, events.NewViewCompleted(documentId, kind, isPrimary, result.ProcessingTime))

	s.logger.Info("DocumentService", "View processed", map[string]interface{}{
		"document_id":        documentId,
		"view":               kind,
		"is_primary":         isPrimary,
		"cache_hit":          hit,
		"processing_time_ms": result.ProcessingTime.Milliseconds(),
	})

	return &ViewOutcome{Result: result, CacheHit: hit, Duration: result.ProcessingTime}, nil
}

func (s *documentService) cached(ctx context.Context, key string) (view.ResultData, bool) {
	if key == "" || s.resultCache == nil {
		return nil, false
	}
	data, ok, err := s.resultCache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("DocumentService", "Cache lookup failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return data, ok
}

// runProcessor isolates the processor: a panic becomes an error and the
// callbacks are only handed over when the processor declares it uses them.
func (s *documentService) runProcessor(ctx context.Context, documentId string, kind view.Kind, processor view.Processor, intermediate *entity.IntermediateResult) (data view.ResultData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()

	in := view.Input{
		Content:  intermediate.PreprocessedContent,
		Segments: view.CopySegments(intermediate.Segments),
	}
	caps := view.CapabilitiesOf(processor)
	if caps.Progress && s.progress != nil {
		in.Progress = func(percent int, stage string) {
			s.progress.PushProgress(documentId, kind, percent, stage)
		}
	}
	if caps.Streaming && s.progress != nil {
		in.Stream = func(chunk string) {
			s.progress.PushChunk(documentId, kind, chunk)
		}
	}

	data, err = processor.Process(ctx, in)
	if err == nil && data == nil {
		data = view.ResultData{}
	}
	return data, err
}

func (s *documentService) fail(documentId string, kind view.Kind, isPrimary bool, err error) {
	s.logger.Error("DocumentService", "View processing failed", map[string]interface{}{
		"document_id": documentId,
		"view":        kind,
		"is_primary":  isPrimary,
		"error":       err.Error(),
	})
	s.setStatus(documentId, kind, status.Failed(err))
	s.publish(context.Background(), events.NewViewFailed(documentId, kind, isPrimary, err))
}

func (s *documentService) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("DocumentService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

// SwitchView returns the requested view, building it on demand from the
// intermediate snapshot when it has not been produced yet.
func (s *documentService) SwitchView(ctx context.Context, documentId string, target string) (*SwitchResult, error) {
	kind, err := s.registry.Resolve(target)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.ViewResultRepository().FindOne(ctx, documentId, kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &SwitchResult{View: kind, Result: existing, FromCache: true}, nil
	}

	start := time.Now()
	outcome, err := s.ProcessView(ctx, documentId, kind, false)
	if err != nil {
		return nil, err
	}

	if err := s.enable(ctx, documentId, kind); err != nil {
		s.logger.Warn("DocumentService", "Failed to enable switched view", map[string]interface{}{
			"document_id": documentId,
			"view":        kind,
			"error":       err.Error(),
		})
	}

	return &SwitchResult{
		View:             kind,
		Result:           outcome.Result,
		ProcessingTime:   time.Since(start),
		UsedIntermediate: true,
		ResultCacheHit:   outcome.CacheHit,
	}, nil
}

func (s *documentService) enable(ctx context.Context, documentId string, kind view.Kind) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return err
	}
	if profile == nil {
		return errors.New("document profile missing")
	}
	if profile.IsEnabled(kind) {
		return nil
	}
	profile.EnabledViews = append(profile.EnabledViews, kind)
	return uow.DocumentProfileRepository().Save(ctx, profile)
}

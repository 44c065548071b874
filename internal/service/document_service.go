package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-docview-be/internal/dto"
	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/internal/repository/unitofwork"
	"ai-docview-be/pkg/cache"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/events"
	"ai-docview-be/pkg/extract"
	"ai-docview-be/pkg/multiview"
	"ai-docview-be/pkg/recommend"
	"ai-docview-be/pkg/status"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ai-docview-be/internal/service")

type IDocumentService interface {
	ProcessDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.ProcessDocumentResponse, error)
	ProcessView(ctx context.Context, documentId string, kind view.Kind, isPrimary bool) (*ViewOutcome, error)
	SwitchView(ctx context.Context, documentId string, target string) (*SwitchResult, error)

	SaveIntermediate(ctx context.Context, result *entity.IntermediateResult) error
	GetIntermediate(ctx context.Context, documentId string) (*entity.IntermediateResult, error)

	GetStatus(ctx context.Context, documentId string) (*dto.DocumentStatusResponse, error)
	GetContainer(ctx context.Context, documentId string) (*multiview.Container, error)
	GetView(ctx context.Context, documentId string, name string) (*dto.ViewResultResponse, error)
	GetProfile(ctx context.Context, documentId string) (*dto.DocumentProfileResponse, error)
	Delete(ctx context.Context, documentId string) (*dto.DeleteDocumentResponse, error)

	Detect(ctx context.Context, req *dto.DetectRequest) *dto.DetectResponse
	ComputeConfidence(req *dto.ConfidenceRequest) confidence.Score
}

// ProgressSink receives processor progress for live delivery.
type ProgressSink interface {
	PushProgress(documentId string, kind view.Kind, percent int, stage string)
	PushChunk(documentId string, kind view.Kind, chunk string)
}

type DocumentServiceConfig struct {
	PrimaryTimeout  time.Duration
	DocumentTimeout time.Duration
	DispatchDelay   time.Duration
}

// ViewOutcome is the result of building one view.
type ViewOutcome struct {
	Result   *entity.ViewResult
	CacheHit bool
	Duration time.Duration
}

// SwitchResult.FromCache reports a stored view row. ResultCacheHit reports a
// computed view whose data came from the result cache instead of the processor.
type SwitchResult struct {
	View             view.Kind
	Result           *entity.ViewResult
	ProcessingTime   time.Duration
	FromCache        bool
	UsedIntermediate bool
	ResultCacheHit   bool
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	registry     *view.Registry
	detector     *detect.Detector
	recommender  *recommend.Recommender
	calculator   *confidence.Calculator
	extractor    extract.Extractor
	preprocessor *extract.Preprocessor
	dispatcher   IPublisherService
	tracker      status.Tracker
	resultCache  cache.Store
	events       events.Publisher
	progress     ProgressSink
	cfg          DocumentServiceConfig
	logger       logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	registry *view.Registry,
	detector *detect.Detector,
	recommender *recommend.Recommender,
	calculator *confidence.Calculator,
	extractor extract.Extractor,
	preprocessor *extract.Preprocessor,
	dispatcher IPublisherService,
	tracker status.Tracker,
	resultCache cache.Store,
	eventPublisher events.Publisher,
	progress ProgressSink,
	cfg DocumentServiceConfig,
	log logger.ILogger,
) IDocumentService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &documentService{
		uowFactory:   uowFactory,
		registry:     registry,
		detector:     detector,
		recommender:  recommender,
		calculator:   calculator,
		extractor:    extractor,
		preprocessor: preprocessor,
		dispatcher:   dispatcher,
		tracker:      tracker,
		resultCache:  resultCache,
		events:       eventPublisher,
		progress:     progress,
		cfg:          cfg,
		logger:       log,
	}
}

// ProcessDocument detects, persists the shared snapshot, builds the primary
// view inline and then hands every secondary view to the dispatch workers.
// Secondary messages are published only once the primary outcome is stored.
func (s *documentService) ProcessDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.ProcessDocumentResponse, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.ProcessDocument")
	defer span.End()

	if s.cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DocumentTimeout)
		defer cancel()
	}

	documentId := req.DocumentId
	if documentId == "" {
		documentId = uuid.NewString()
	}
	span.SetAttributes(attribute.String("document.id", documentId))

	raw, err := s.extractor.Extract(ctx, req.Filename, req.ContentType, []byte(req.Content))
	if err != nil {
		return nil, s.timeoutOr(ctx, err)
	}
	pre, err := s.preprocessor.Run(ctx, raw)
	if err != nil {
		return nil, s.timeoutOr(ctx, err)
	}

	report := s.detector.DetectReport(pre.Content)
	rec := s.recommender.FromScores(ctx, pre.Content, report.Scores)
	cacheKey := detect.CacheKey(documentId, report.Scores)
	span.SetAttributes(
		attribute.String("view.primary", string(rec.Primary)),
		attribute.String("view.method", string(rec.Method)),
	)

	profile := &entity.DocumentProfile{
		DocumentId:      documentId,
		PrimaryView:     rec.Primary,
		EnabledViews:    rec.Enabled,
		DetectionScores: report.Scores,
		CacheKey:        cacheKey,
		Method:          string(rec.Method),
	}
	intermediate := &entity.IntermediateResult{
		DocumentId:          documentId,
		RawContent:          raw,
		PreprocessedContent: pre.Content,
		Segments:            pre.Segments,
		Metadata: map[string]interface{}{
			"filename":         req.Filename,
			"content_type":     req.ContentType,
			"segment_count":    len(pre.Segments),
			"skipped_segments": pre.Skipped,
		},
	}
	if err := s.saveSnapshot(ctx, profile, intermediate); err != nil {
		return nil, s.timeoutOr(ctx, err)
	}

	s.logger.Info("DocumentService", "Document analysed", map[string]interface{}{
		"document_id":   documentId,
		"primary_view":  rec.Primary,
		"enabled_views": rec.Enabled,
		"method":        rec.Method,
	})

	res := &dto.ProcessDocumentResponse{
		DocumentId:        documentId,
		PrimaryView:       string(rec.Primary),
		EnabledViews:      kindsToStrings(rec.Enabled),
		Method:            string(rec.Method),
		CacheKey:          cacheKey,
		DetectionScores:   scoresToMap(report.Scores),
		DetectionDegraded: report.Degraded,
		SkippedSegments:   pre.Skipped,
		Statuses:          make(map[string]dto.ViewStatusResponse),
	}

	primaryCtx := ctx
	if s.cfg.PrimaryTimeout > 0 {
		var cancel context.CancelFunc
		primaryCtx, cancel = context.WithTimeout(ctx, s.cfg.PrimaryTimeout)
		defer cancel()
	}

	outcome, err := s.ProcessView(primaryCtx, documentId, rec.Primary, true)
	if ctx.Err() != nil {
		// The whole-document budget is spent: terminal, nothing is dispatched.
		s.setStatus(documentId, rec.Primary, status.Failed(ErrProcessingTimeout))
		span.SetStatus(codes.Error, "document timeout")
		return nil, fmt.Errorf("%w: %s", ErrProcessingTimeout, documentId)
	}
	if err != nil {
		res.PrimaryError = err.Error()
		res.Statuses[string(rec.Primary)] = dto.ViewStatusResponse{State: string(status.StateFailed), Error: err.Error()}
		if !errors.Is(err, ErrViewProcessingFailure) {
			s.setStatus(documentId, rec.Primary, status.Failed(err))
		}
	} else {
		res.Primary = ToViewResultResponse(outcome.Result)
		res.Statuses[string(rec.Primary)] = dto.ViewStatusResponse{State: string(status.StateCompleted), Ready: true}
	}

	for _, kind := range rec.Secondary() {
		res.Statuses[string(kind)] = s.dispatchSecondary(ctx, documentId, kind)
	}

	if err := s.events.Publish(ctx, events.NewDocumentProcessed(documentId, rec.Primary, rec.Enabled)); err != nil {
		s.logger.Warn("DocumentService", "Failed to publish document event", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}

	return res, nil
}

// saveSnapshot upserts the profile and the intermediate result. When it
// replaces a snapshot with different content or a different primary view, the
// view rows built from the old one are deleted in the same transaction and
// their status and cache entries are cleared after commit.
func (s *documentService) saveSnapshot(ctx context.Context, profile *entity.DocumentProfile, intermediate *entity.IntermediateResult) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	documentId := profile.DocumentId
	prevProfile, err := uow.DocumentProfileRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return err
	}
	prevIntermediate, err := uow.IntermediateResultRepository().FindByDocumentId(ctx, documentId)
	if err != nil {
		return err
	}

	superseded := prevIntermediate != nil &&
		(prevIntermediate.PreprocessedContent != intermediate.PreprocessedContent ||
			(prevProfile != nil && prevProfile.PrimaryView != profile.PrimaryView))

	var viewsDeleted int64
	if superseded {
		viewsDeleted, err = uow.ViewResultRepository().DeleteByDocumentId(ctx, documentId)
		if err != nil {
			return fmt.Errorf("delete superseded view results: %w", err)
		}
	}
	if err := uow.DocumentProfileRepository().Save(ctx, profile); err != nil {
		return fmt.Errorf("save document profile: %w", err)
	}
	if err := uow.IntermediateResultRepository().Save(ctx, intermediate); err != nil {
		return fmt.Errorf("save intermediate result: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if !superseded {
		return nil
	}
	if err := s.tracker.Clear(ctx, documentId); err != nil {
		s.logger.Warn("DocumentService", "Failed to clear view status", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
	}
	if prevProfile != nil {
		s.purgeCache(ctx, documentId, prevProfile.CacheKey, prevIntermediate.PreprocessedContent)
	}
	s.logger.Info("DocumentService", "Snapshot superseded, previous views dropped", map[string]interface{}{
		"document_id":   documentId,
		"views_deleted": viewsDeleted,
	})
	return nil
}

// dispatchSecondary is phase one of the hand-off: mark the view pending and
// publish the ready message a worker will pick up.
func (s *documentService) dispatchSecondary(ctx context.Context, documentId string, kind view.Kind) dto.ViewStatusResponse {
	msg := dto.ViewReadyMessage{
		DocumentId: documentId,
		View:       string(kind),
		NotBefore:  time.Now().Add(s.cfg.DispatchDelay).UTC(),
	}
	payload, err := json.Marshal(msg)
	if err == nil {
		s.setStatus(documentId, kind, status.Pending())
		err = s.dispatcher.Publish(ctx, documentId+"/"+string(kind), payload)
	}
	if err != nil {
		s.logger.Error("DocumentService", "Failed to dispatch secondary view", map[string]interface{}{
			"document_id": documentId,
			"view":        kind,
			"error":       err.Error(),
		})
		s.setStatus(documentId, kind, status.Failed(err))
		return dto.ViewStatusResponse{State: string(status.StateFailed), Error: err.Error()}
	}
	return dto.ViewStatusResponse{State: string(status.StatePending)}
}

func (s *documentService) SaveIntermediate(ctx context.Context, result *entity.IntermediateResult) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.IntermediateResultRepository().Save(ctx, result)
}

// GetIntermediate returns nil, nil when the document has no snapshot.
func (s *documentService) GetIntermediate(ctx context.Context, documentId string) (*entity.IntermediateResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.IntermediateResultRepository().FindByDocumentId(ctx, documentId)
}

func (s *documentService) Detect(ctx context.Context, req *dto.DetectRequest) *dto.DetectResponse {
	report := s.detector.DetectReport(req.Content)
	rec := s.recommender.FromScores(ctx, req.Content, report.Scores)

	res := &dto.DetectResponse{
		DetectionScores:   scoresToMap(report.Scores),
		DetectionDegraded: report.Degraded,
		PrimaryView:       string(rec.Primary),
		EnabledViews:      kindsToStrings(rec.Enabled),
		Method:            string(rec.Method),
	}
	if req.DocumentId != "" {
		res.CacheKey = detect.CacheKey(req.DocumentId, report.Scores)
	}
	return res
}

func (s *documentService) ComputeConfidence(req *dto.ConfidenceRequest) confidence.Score {
	segments := make([]view.Segment, len(req.Segments))
	for i, text := range req.Segments {
		segments[i] = view.Segment{ID: view.SegmentID(i), Index: i, Text: text}
	}
	return s.calculator.Compute(confidence.Input{
		Base:         req.Base,
		SourceIDs:    req.SourceIds,
		Segments:     segments,
		Content:      req.Content,
		AIResponse:   req.AIResponse,
		Similarities: req.Similarities,
	})
}

// setStatus runs detached from the request so bookkeeping survives cancellation.
func (s *documentService) setStatus(documentId string, kind view.Kind, state status.JobState) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.tracker.Set(ctx, documentId, kind, state); err != nil {
		s.logger.Warn("DocumentService", "Failed to record view status", map[string]interface{}{
			"document_id": documentId,
			"view":        kind,
			"state":       state.State,
			"error":       err.Error(),
		})
	}
}

func (s *documentService) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProcessingTimeout, err)
	}
	return err
}
